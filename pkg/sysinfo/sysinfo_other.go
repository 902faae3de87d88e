//go:build !windows

package sysinfo

// CheckMinVersion cannot consult the Windows version here; dry runs
// outside Windows skip the requirement.
func CheckMinVersion(minVersion string) error {
	return nil
}

// OSVersion is unavailable outside Windows.
func OSVersion() (string, error) {
	return "", nil
}
