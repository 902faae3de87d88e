package script

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

const viewerScript = `; Setup definition for a small spreadsheet viewer.

[Setup]
AppName=Xlsx Row Viewer
AppVersion=1.2.0
AppPublisher=Example Tools
DefaultDirName={pf}\Xlsx Row Viewer
DefaultGroupName=Xlsx Row Viewer
OutputBaseFilename=XlsxRowViewerSetup
Compression=lzma
SolidCompression=yes
PrivilegesRequired=admin
MinVersion=6.1

[Tasks]
Name: "desktopicon"; Description: "Create a desktop icon"; GroupDescription: "Additional icons:"; Flags: unchecked

[Files]
Source: "XlsxRowViewer.exe"; DestDir: "{app}"; Flags: ignoreversion
Source: "README.txt"; DestDir: "{app}"
Source: "sample.xlsx"; DestDir: "{app}"; Flags: onlyifdoesntexist

[Icons]
Name: "{group}\Xlsx Row Viewer"; Filename: "{app}\XlsxRowViewer.exe"
Name: "{commondesktop}\Xlsx Row Viewer"; Filename: "{app}\XlsxRowViewer.exe"; Tasks: desktopicon

[Registry]
Root: HKCR; Subkey: "SystemFileAssociations\.xlsx\shell\Open with Xlsx Row Viewer"; ValueType: string; ValueData: "Open with Xlsx Row Viewer"; Flags: uninsdeletekey
Root: HKCR; Subkey: "SystemFileAssociations\.xlsx\shell\Open with Xlsx Row Viewer\command"; ValueType: string; ValueData: """{app}\XlsxRowViewer.exe"" ""%1"""; Flags: uninsdeletekey

[Run]
Filename: "{app}\XlsxRowViewer.exe"; Description: "Launch Xlsx Row Viewer"; Flags: nowait postinstall skipifsilent
`

func TestParseViewerScript(t *testing.T) {
	m, warnings, err := Parse(strings.NewReader(viewerScript))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	if m.AppName != "Xlsx Row Viewer" || m.AppVersion != "1.2.0" {
		t.Errorf("setup block parsed wrong: %q %q", m.AppName, m.AppVersion)
	}
	if m.Compression != manifest.CompressionBest || !m.SolidCompression {
		t.Errorf("compression = %q solid=%t, want best/true", m.Compression, m.SolidCompression)
	}
	if m.MinVersion != "6.1" || m.PrivilegesRequired != "admin" {
		t.Errorf("MinVersion=%q PrivilegesRequired=%q", m.MinVersion, m.PrivilegesRequired)
	}

	wantFiles := []manifest.FileEntry{
		{Source: "XlsxRowViewer.exe", DestDir: "{app}", IgnoreVersion: true},
		{Source: "README.txt", DestDir: "{app}"},
		{Source: "sample.xlsx", DestDir: "{app}", OnlyIfDoesntExist: true},
	}
	if diff := cmp.Diff(wantFiles, m.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	if len(m.Tasks) != 1 || m.Tasks[0].Name != "desktopicon" || !m.Tasks[0].Unchecked {
		t.Errorf("tasks parsed wrong: %+v", m.Tasks)
	}
	if m.Tasks[0].CheckedByDefault() {
		t.Error("desktopicon should default off")
	}

	if len(m.Icons) != 2 {
		t.Fatalf("got %d icons, want 2", len(m.Icons))
	}
	if got := m.Icons[1].Tasks; len(got) != 1 || got[0] != "desktopicon" {
		t.Errorf("desktop icon task gate = %v", got)
	}

	if len(m.Registry) != 2 {
		t.Fatalf("got %d registry entries, want 2", len(m.Registry))
	}
	wantCmd := `"{app}\XlsxRowViewer.exe" "%1"`
	if m.Registry[1].ValueData != wantCmd {
		t.Errorf("command value = %q, want %q", m.Registry[1].ValueData, wantCmd)
	}
	if !m.Registry[0].UninsDeleteKey || m.Registry[0].Root != manifest.HiveClassesRoot {
		t.Errorf("registry entry flags parsed wrong: %+v", m.Registry[0])
	}

	if len(m.Run) != 1 {
		t.Fatalf("got %d run entries, want 1", len(m.Run))
	}
	r := m.Run[0]
	if !r.NoWait || !r.PostInstall || !r.SkipIfSilent {
		t.Errorf("run flags parsed wrong: %+v", r)
	}
}

func TestParseIgnoredDirectivesWarn(t *testing.T) {
	src := "[Setup]\nAppName=X\nOutputDir=userdocs:Output\nSetupIconFile=x.ico\n"
	_, warnings, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 2 {
		t.Errorf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown setup key", "[Setup]\nBogusKey=1\n", "unknown [Setup] directive"},
		{"unknown section", "[Frobs]\n", "unknown section"},
		{"directive outside section", "AppName=X\n", "outside any section"},
		{"unknown file flag", "[Files]\nSource: \"a\"; DestDir: \"{app}\"; Flags: sparkle\n", "unknown file flag"},
		{"unknown compression", "[Setup]\nCompression=zpaq\n", "unknown Compression value"},
		{"file without source", "[Files]\nDestDir: \"{app}\"\n", "needs a Source"},
		{"unknown registry type", "[Registry]\nRoot: HKCU; Subkey: \"S\"; ValueType: qword\n", "unknown ValueType"},
		{"unknown param", "[Files]\nSource: \"a\"; DestDir: \"{app}\"; Sparkle: yes\n", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestUnquoteDoubledQuotes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"plain"`, "plain"},
		{`bare`, "bare"},
		{`"""{app}\V.exe"" ""%1"""`, `"{app}\V.exe" "%1"`},
		{`"semi;colon"`, "semi;colon"},
	}
	for _, tt := range tests {
		got, err := unquote(tt.in)
		if err != nil {
			t.Errorf("unquote(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("unquote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	m1, _, err := Parse(strings.NewReader(viewerScript))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := Write(m1)
	m2, _, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse of rendered script: %v\n%s", err, out)
	}
	if diff := cmp.Diff(m1, m2); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}
