//go:build !windows

package shortcut

// NewSystemCreator returns the platform's shortcut creator. Outside
// Windows that is the plain-file creator used for dry runs.
func NewSystemCreator() Creator {
	return FileCreator{}
}
