package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OutputDir != "Output" || cfg.DefaultCompression != "best" || cfg.LogLevel != "INFO" {
		t.Errorf("defaults wrong: %+v", cfg)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packforge.yaml")
	data := "StubPath: C:\\tools\\forgesetup.exe\nOutputDir: dist\nDefaultCompression: fast\nVerbose: true\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StubPath != `C:\tools\forgesetup.exe` || cfg.OutputDir != "dist" || cfg.DefaultCompression != "fast" || !cfg.Verbose {
		t.Errorf("config parsed wrong: %+v", cfg)
	}
}

func TestLoadConfigExplicitMissingFails(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for explicit missing config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PACKFORGE_OUTPUT_DIR", "envout")
	t.Setenv("PACKFORGE_LOG_LEVEL", "DEBUG")
	t.Setenv("PACKFORGE_VERBOSE", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputDir != "envout" || cfg.LogLevel != "DEBUG" || !cfg.Verbose {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "packforge.yaml")
	want := &Configuration{StubPath: "stub.exe", OutputDir: "o", DefaultCompression: "none", LogLevel: "WARN"}
	if err := SaveConfig(want, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.StubPath != "stub.exe" || got.OutputDir != "o" || got.DefaultCompression != "none" || got.LogLevel != "WARN" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
