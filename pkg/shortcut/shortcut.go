// pkg/shortcut/shortcut.go - shortcut creation behind an interface.

package shortcut

import (
	"fmt"
	"os"
	"sync"
)

// Spec describes one shortcut to create.
type Spec struct {
	// Path is the full path of the shortcut file, without extension;
	// the creator appends the platform's extension.
	Path        string
	Target      string
	Arguments   string
	WorkingDir  string
	Description string
	IconPath    string
	IconIndex   int
}

// Creator creates and removes shortcuts.
type Creator interface {
	// Create writes the shortcut and returns the path of the file it
	// created, for the uninstall receipt. The parent directory must
	// already exist; the caller creates (and journals) it.
	Create(s Spec) (string, error)
	// Remove deletes a shortcut file; missing files are not an error.
	Remove(path string) error
}

// FileCreator writes plain-text link files. It backs non-Windows dry
// runs, where a real .lnk cannot exist.
type FileCreator struct{}

func (FileCreator) Create(s Spec) (string, error) {
	lnkPath := s.Path + ".lnk"
	content := fmt.Sprintf("target=%s\narguments=%s\nworkdir=%s\n", s.Target, s.Arguments, s.WorkingDir)
	if err := os.WriteFile(lnkPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write shortcut: %w", err)
	}
	return lnkPath, nil
}

func (FileCreator) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Recorder is a Creator that records calls without touching the
// filesystem. Tests use it to assert which shortcuts an install created.
type Recorder struct {
	mu      sync.Mutex
	Created []Spec
	Removed []string
}

func (r *Recorder) Create(s Spec) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Created = append(r.Created, s)
	return s.Path + ".lnk", nil
}

func (r *Recorder) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Removed = append(r.Removed, path)
	return nil
}
