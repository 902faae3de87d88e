//go:build !windows

package regstore

// NotifyAssocChanged is a no-op outside Windows.
func NotifyAssocChanged() {}
