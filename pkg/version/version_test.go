package version

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1.2.0", "1.2"},
		{"1.0.0", "1"},
		{"1.2.3", "1.2.3"},
		{"2.0", "2"},
		{"dev", "dev"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVersionInfoPopulated(t *testing.T) {
	info := Version()
	if info.Version == "" || info.Revision == "" {
		t.Errorf("version info incomplete: %+v", info)
	}
}
