package blocking

import "testing"

func TestMatchesName(t *testing.T) {
	tests := []struct {
		app, proc string
		want      bool
	}{
		{"viewer.exe", "viewer.exe", true},
		{"Viewer.exe", "viewer.exe", true},
		{"viewer", "viewer.exe", true},
		{"viewer.exe", "viewer", true},
		{"viewer.exe", "editor.exe", false},
		{"viewer.exe", "viewer.exe.bak", false},
	}
	for _, tt := range tests {
		if got := MatchesName(tt.app, tt.proc); got != tt.want {
			t.Errorf("MatchesName(%q, %q) = %t, want %t", tt.app, tt.proc, got, tt.want)
		}
	}
}

func TestRunningTargetsNoMatch(t *testing.T) {
	// Nothing on a test machine runs under this name.
	got := RunningTargets([]string{`C:\Program Files\Viewer\pkforge-test-sentinel.exe`})
	if len(got) != 0 {
		t.Errorf("unexpected running targets: %v", got)
	}
}

func TestIsAppRunningNoMatch(t *testing.T) {
	if IsAppRunning("pkforge-test-sentinel.exe") {
		t.Error("sentinel process reported running")
	}
}
