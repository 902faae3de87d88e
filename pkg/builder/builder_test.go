package builder

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/payload"
	"github.com/windowsadmins/packforge/pkg/sfx"
)

func buildFixture(t *testing.T) (*manifest.Manifest, Options) {
	t.Helper()
	base := t.TempDir()
	files := map[string]string{
		"Viewer.exe": "MZ viewer bytes",
		"README.txt": "docs",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(base, name), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	stub := filepath.Join(base, "stub.exe")
	if err := os.WriteFile(stub, []byte("MZ stub"), 0755); err != nil {
		t.Fatal(err)
	}

	m := &manifest.Manifest{
		AppName:            "Viewer",
		AppVersion:         "1.0.0",
		DefaultDirName:     `{pf}\Viewer`,
		OutputBaseFilename: "ViewerSetup",
		SolidCompression:   true,
		Files: []manifest.FileEntry{
			{Source: "Viewer.exe", DestDir: "{app}", IgnoreVersion: true},
			{Source: "README.txt", DestDir: "{app}"},
		},
	}
	return m, Options{BaseDir: base, StubPath: stub, OutputDir: filepath.Join(base, "Output")}
}

func TestBuildProducesOpenableArtifact(t *testing.T) {
	m, opts := buildFixture(t)

	artifact, err := Build(m, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if filepath.Base(artifact) != "ViewerSetup.exe" {
		t.Errorf("artifact name = %s", filepath.Base(artifact))
	}

	a, err := sfx.Open(artifact)
	if err != nil {
		t.Fatalf("Open built artifact: %v", err)
	}
	defer a.Close()

	rec := a.Record
	if rec.Manifest.AppName != "Viewer" || rec.BuildID == "" || rec.PayloadSHA256 == "" {
		t.Errorf("build record incomplete: %+v", rec)
	}
	if rec.Format != payload.FormatSolid {
		t.Errorf("format = %q, want solid", rec.Format)
	}
	if len(rec.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(rec.Members))
	}

	// Destinations stay unresolved in the archive.
	names := map[string]bool{}
	for _, mem := range rec.Members {
		names[mem.Name] = true
	}
	for _, want := range []string{"{app}/Viewer.exe", "{app}/README.txt"} {
		if !names[want] {
			t.Errorf("member %s missing from %v", want, names)
		}
	}

	// The payload itself extracts cleanly.
	err = payload.Extract(a.Payload(), a.PayloadSize, rec.Format, rec.Members, func(m payload.Member, r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	})
	if err != nil {
		t.Errorf("payload does not extract: %v", err)
	}
}

func TestBuildMissingSourceFails(t *testing.T) {
	m, opts := buildFixture(t)
	m.Files = append(m.Files, manifest.FileEntry{Source: "gone.dll", DestDir: "{app}"})

	_, err := Build(m, opts)
	if err == nil {
		t.Fatal("expected build failure")
	}
	if !errors.Is(err, manifest.ErrMissingSourceFile) {
		t.Errorf("error is not ErrMissingSourceFile: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(opts.OutputDir, "ViewerSetup.exe")); !os.IsNotExist(statErr) {
		t.Error("failed build left an artifact behind")
	}
}

func TestBuildDuplicateDestinationFails(t *testing.T) {
	m, opts := buildFixture(t)
	m.Files = append(m.Files, manifest.FileEntry{Source: "README.txt", DestDir: "{app}", DestName: "Viewer.exe"})

	if _, err := Build(m, opts); err == nil {
		t.Fatal("expected duplicate destination error")
	}
}

func TestBuildMissingStubFails(t *testing.T) {
	m, opts := buildFixture(t)
	opts.StubPath = filepath.Join(opts.BaseDir, "nostub.exe")

	if _, err := Build(m, opts); err == nil {
		t.Fatal("expected missing stub error")
	}
}
