package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestToArchivePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{app}\Viewer.exe`, "{app}/Viewer.exe"},
		{`{app}\sub\dir\f.txt`, "{app}/sub/dir/f.txt"},
		{`\leading\slash`, "leading/slash"},
		{`{app}\\double`, "{app}/double"},
	}
	for _, tt := range tests {
		if got := ToArchivePath(tt.in); got != tt.want {
			t.Errorf("ToArchivePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateArchivePath(t *testing.T) {
	for _, ok := range []string{"{app}/Viewer.exe", "a/b/c", "plain.txt"} {
		if err := ValidateArchivePath(ok); err != nil {
			t.Errorf("ValidateArchivePath(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "../up", "a/../../up", "/abs", `C:\drive`, ".."} {
		if err := ValidateArchivePath(bad); err == nil {
			t.Errorf("ValidateArchivePath(%q) accepted", bad)
		}
	}
}

func TestNormalizeWindowsPath(t *testing.T) {
	if got := NormalizeWindowsPath(`C:/a//b\c`); got != `C:\a\b\c` {
		t.Errorf("got %q", got)
	}
}

func TestFileSHA256AndVerify(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(p, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got, err := FileSHA256(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("FileSHA256 = %s, want %s", got, want)
	}
	if !Verify(p, want) {
		t.Error("Verify rejected correct hash")
	}
	if Verify(p, "beef") {
		t.Error("Verify accepted wrong hash")
	}
}
