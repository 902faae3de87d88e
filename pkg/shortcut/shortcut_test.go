package shortcut

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileCreator(t *testing.T) {
	dir := t.TempDir()
	c := FileCreator{}

	// The engine creates shortcut directories itself.
	if err := os.MkdirAll(filepath.Join(dir, "menu"), 0755); err != nil {
		t.Fatal(err)
	}
	created, err := c.Create(Spec{
		Path:      filepath.Join(dir, "menu", "Viewer"),
		Target:    `C:\Program Files\Viewer\Viewer.exe`,
		Arguments: "-q",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasSuffix(created, ".lnk") {
		t.Errorf("created path %q has no .lnk extension", created)
	}
	data, err := os.ReadFile(created)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `Viewer.exe`) {
		t.Errorf("link content missing target: %q", data)
	}

	if err := c.Remove(created); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(created); !os.IsNotExist(err) {
		t.Error("link still exists after Remove")
	}
	// Removing again is not an error.
	if err := c.Remove(created); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	p, err := r.Create(Spec{Path: "/x/Viewer", Target: "/x/v.exe"})
	if err != nil || p != "/x/Viewer.lnk" {
		t.Fatalf("Create = %q, %v", p, err)
	}
	if err := r.Remove(p); err != nil {
		t.Fatal(err)
	}
	if len(r.Created) != 1 || len(r.Removed) != 1 {
		t.Errorf("recorder state: %+v", r)
	}
}
