// pkg/config/config.go - builder configuration for PackForge.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the builder config file looked up in the
// project directory.
const DefaultConfigName = "packforge.yaml"

// Configuration holds the configurable options for the builder in
// YAML format.
type Configuration struct {
	// StubPath is the runtime stub executable appended in front of every
	// payload. Empty means the builder looks for forgesetup.exe next to
	// its own binary.
	StubPath string `yaml:"StubPath"`
	// OutputDir receives built artifacts.
	OutputDir string `yaml:"OutputDir"`
	// DefaultCompression applies when a script sets none.
	DefaultCompression string `yaml:"DefaultCompression"`
	LogLevel           string `yaml:"LogLevel"`
	LogFile            string `yaml:"LogFile"`
	Verbose            bool   `yaml:"Verbose"`
	Debug              bool   `yaml:"Debug"`
}

// LoadConfig loads the configuration from path, or from
// packforge.yaml in the current directory when path is empty. A
// missing file yields the defaults; environment variables override
// either way.
func LoadConfig(path string) (*Configuration, error) {
	config := GetDefaultConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigName
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if explicit {
			return nil, fmt.Errorf("configuration file does not exist: %s", path)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if config.OutputDir == "" {
		config.OutputDir = "Output"
	}
	if config.DefaultCompression == "" {
		config.DefaultCompression = "best"
	}
	return config, nil
}

// SaveConfig saves the current configuration to a YAML file.
func SaveConfig(config *Configuration, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create configuration directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		OutputDir:          "Output",
		DefaultCompression: "best",
		LogLevel:           "INFO",
	}
}

// applyEnvOverrides lets PACKFORGE_* environment variables win over
// the file, which keeps CI builds free of per-machine config files.
func applyEnvOverrides(config *Configuration) {
	if v := os.Getenv("PACKFORGE_STUB"); v != "" {
		config.StubPath = v
	}
	if v := os.Getenv("PACKFORGE_OUTPUT_DIR"); v != "" {
		config.OutputDir = v
	}
	if v := os.Getenv("PACKFORGE_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("PACKFORGE_LOG_FILE"); v != "" {
		config.LogFile = v
	}
	if v := os.Getenv("PACKFORGE_VERBOSE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			config.Verbose = parsed
		}
	}
	if v := os.Getenv("PACKFORGE_DEBUG"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			config.Debug = parsed
		}
	}
}
