//go:build !windows

package regstore

// NewSystemStore returns an in-memory store outside Windows, which
// makes dry runs and development installs possible on any platform.
func NewSystemStore() Store {
	return NewMemStore()
}
