//go:build !windows

package consts

import (
	"os"
	"path/filepath"
)

// systemFolders provides a home-rooted layout for dry runs and tests on
// non-Windows hosts. Real installs only happen on Windows.
func systemFolders() map[string]string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return map[string]string{
		"pf":             filepath.Join(home, "programs"),
		"tmp":            os.TempDir(),
		"src":            ".",
		"commondesktop":  filepath.Join(home, "Desktop"),
		"userdesktop":    filepath.Join(home, "Desktop"),
		"commonprograms": filepath.Join(home, ".local", "share", "applications"),
		"userprograms":   filepath.Join(home, ".local", "share", "applications"),
	}
}
