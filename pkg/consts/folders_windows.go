//go:build windows

package consts

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// systemFolders maps constants to the machine's shell folder layout.
func systemFolders() map[string]string {
	pf := os.Getenv("ProgramW6432")
	if pf == "" {
		pf = os.Getenv("ProgramFiles")
	}
	if pf == "" {
		pf = `C:\Program Files`
	}

	folders := map[string]string{
		"pf":  pf,
		"tmp": os.TempDir(),
		"src": ".",
	}

	knownFolder := func(id *windows.KNOWNFOLDERID, fallback string) string {
		if p, err := windows.KnownFolderPath(id, 0); err == nil && p != "" {
			return p
		}
		return fallback
	}

	public := os.Getenv("PUBLIC")
	if public == "" {
		public = `C:\Users\Public`
	}
	folders["commondesktop"] = knownFolder(windows.FOLDERID_PublicDesktop, filepath.Join(public, "Desktop"))
	folders["userdesktop"] = knownFolder(windows.FOLDERID_Desktop, filepath.Join(os.Getenv("USERPROFILE"), "Desktop"))
	folders["commonprograms"] = knownFolder(windows.FOLDERID_CommonPrograms,
		filepath.Join(os.Getenv("ProgramData"), `Microsoft\Windows\Start Menu\Programs`))
	folders["userprograms"] = knownFolder(windows.FOLDERID_Programs,
		filepath.Join(os.Getenv("APPDATA"), `Microsoft\Windows\Start Menu\Programs`))

	return folders
}
