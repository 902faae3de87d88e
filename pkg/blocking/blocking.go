// pkg/blocking/blocking.go - detection of running applications that
// would be overwritten by an install.

package blocking

import (
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/windowsadmins/packforge/pkg/logging"
)

// IsAppRunning checks whether a process matching appName is running.
// appName may be an absolute path or a bare executable name.
func IsAppRunning(appName string) bool {
	processes, err := process.Processes()
	if err != nil {
		logging.Error("Failed to get process list", "error", err)
		return false
	}

	for _, proc := range processes {
		if Matches(appName, proc) {
			return true
		}
	}
	return false
}

// Matches reports whether a single process matches appName.
func Matches(appName string, proc *process.Process) bool {
	name, err := proc.Name()
	if err != nil {
		return false
	}

	if strings.ContainsAny(appName, `\/`) {
		exe, err := proc.Exe()
		if err != nil {
			return false
		}
		return strings.EqualFold(exe, appName)
	}
	return MatchesName(appName, name)
}

// MatchesName compares a target executable name against a process name,
// tolerating a missing .exe suffix on either side.
func MatchesName(appName, processName string) bool {
	a := strings.ToLower(appName)
	p := strings.ToLower(processName)
	if a == p {
		return true
	}
	return strings.TrimSuffix(a, ".exe") == strings.TrimSuffix(p, ".exe")
}

// RunningTargets returns which of the given installed executable paths
// are currently running. The engine refuses to overwrite a running
// program rather than leave a half-copied binary behind.
func RunningTargets(paths []string) []string {
	processes, err := process.Processes()
	if err != nil {
		logging.Error("Failed to get process list", "error", err)
		return nil
	}

	var running []string
	for _, target := range paths {
		base := filepath.Base(target)
		for _, proc := range processes {
			exe, err := proc.Exe()
			if err == nil && strings.EqualFold(exe, target) {
				running = append(running, target)
				break
			}
			name, err := proc.Name()
			if err == nil && MatchesName(base, name) {
				running = append(running, target)
				break
			}
		}
	}
	if len(running) > 0 {
		logging.Info("Blocking applications are running", "targets", running)
	}
	return running
}
