//go:build windows

package sysinfo

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/yusufpapurcu/wmi"
)

// win32OperatingSystem mirrors the WMI class of the same name; only the
// fields queried here are declared.
type win32OperatingSystem struct {
	Version string
	Caption string
}

// OSVersion returns the Windows version as reported by WMI.
func OSVersion() (string, error) {
	var result []win32OperatingSystem
	if err := wmi.Query("SELECT Version, Caption FROM Win32_OperatingSystem", &result); err != nil {
		return "", fmt.Errorf("WMI query failed: %w", err)
	}
	if len(result) == 0 {
		return "", fmt.Errorf("WMI returned no operating system record")
	}
	return result[0].Version, nil
}

// CheckMinVersion verifies the running OS satisfies the manifest's
// minimum version requirement.
func CheckMinVersion(minVersion string) error {
	if minVersion == "" {
		return nil
	}
	want, err := goversion.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", minVersion, err)
	}
	osVer, err := OSVersion()
	if err != nil {
		return err
	}
	have, err := goversion.NewVersion(osVer)
	if err != nil {
		return fmt.Errorf("unparseable OS version %q: %w", osVer, err)
	}
	if have.LessThan(want) {
		return fmt.Errorf("this program requires Windows %s or later (running %s)", minVersion, osVer)
	}
	return nil
}
