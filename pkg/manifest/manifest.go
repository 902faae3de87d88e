// pkg/manifest/manifest.go - the install manifest model shared by the
// builder, the setup script parser, and the runtime engine.

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compression selects the payload compression policy.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionFast Compression = "fast"
	CompressionBest Compression = "best"
)

// Valid reports whether c is a known compression policy.
func (c Compression) Valid() bool {
	switch c {
	case CompressionNone, CompressionFast, CompressionBest:
		return true
	}
	return false
}

// Hive identifies a registry root.
type Hive string

const (
	HiveClassesRoot  Hive = "HKCR"
	HiveCurrentUser  Hive = "HKCU"
	HiveLocalMachine Hive = "HKLM"
)

// Valid reports whether h is a known registry root.
func (h Hive) Valid() bool {
	switch h {
	case HiveClassesRoot, HiveCurrentUser, HiveLocalMachine:
		return true
	}
	return false
}

// RegistryValueType identifies the type of a registry value.
type RegistryValueType string

const (
	RegString   RegistryValueType = "string"
	RegExpandSZ RegistryValueType = "expandsz"
	RegDWord    RegistryValueType = "dword"
	RegNone     RegistryValueType = "none"
)

// Manifest is the complete install definition consumed by the builder.
// Path values containing {...} constants stay opaque until install time.
type Manifest struct {
	AppName            string      `yaml:"app_name"`
	AppVersion         string      `yaml:"app_version"`
	Publisher          string      `yaml:"publisher,omitempty"`
	DefaultDirName     string      `yaml:"default_dir_name"`
	DefaultGroupName   string      `yaml:"default_group_name,omitempty"`
	OutputBaseFilename string      `yaml:"output_base_filename"`
	Compression        Compression `yaml:"compression,omitempty"`
	SolidCompression   bool        `yaml:"solid_compression,omitempty"`
	PrivilegesRequired string      `yaml:"privileges_required,omitempty"`
	MinVersion         string      `yaml:"min_version,omitempty"`
	WizardImageFile    string      `yaml:"wizard_image_file,omitempty"`

	Files    []FileEntry     `yaml:"files"`
	Tasks    []TaskEntry     `yaml:"tasks,omitempty"`
	Icons    []ShortcutEntry `yaml:"icons,omitempty"`
	Registry []RegistryEntry `yaml:"registry,omitempty"`
	Run      []RunEntry      `yaml:"run,omitempty"`
}

// FileEntry ships one file into a destination directory template.
type FileEntry struct {
	Source   string `yaml:"source"`
	DestDir  string `yaml:"dest_dir"`
	DestName string `yaml:"dest_name,omitempty"`

	// Overwrite policy flags.
	IgnoreVersion     bool `yaml:"ignore_version,omitempty"`
	OnlyIfDoesntExist bool `yaml:"only_if_doesnt_exist,omitempty"`
	ReadOnly          bool `yaml:"read_only,omitempty"`
}

// InstalledName returns the file name the entry installs as.
func (f FileEntry) InstalledName() string {
	if f.DestName != "" {
		return f.DestName
	}
	return filepath.Base(strings.ReplaceAll(f.Source, `\`, "/"))
}

// DestPath returns the unresolved destination path template.
func (f FileEntry) DestPath() string {
	return strings.TrimRight(f.DestDir, `\/`) + `\` + f.InstalledName()
}

// TaskEntry is an opt-in install task presented to the user.
type TaskEntry struct {
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	GroupDescription string `yaml:"group_description,omitempty"`
	Unchecked        bool   `yaml:"unchecked,omitempty"`
}

// CheckedByDefault reports whether the task starts selected.
func (t TaskEntry) CheckedByDefault() bool { return !t.Unchecked }

// ShortcutEntry describes a shortcut to create at install time.
type ShortcutEntry struct {
	Name       string   `yaml:"name"`
	Target     string   `yaml:"target"`
	Parameters string   `yaml:"parameters,omitempty"`
	WorkingDir string   `yaml:"working_dir,omitempty"`
	IconFile   string   `yaml:"icon_file,omitempty"`
	Tasks      []string `yaml:"tasks,omitempty"`
}

// RegistryEntry describes one registry value written at install time.
type RegistryEntry struct {
	Root      Hive              `yaml:"root"`
	Subkey    string            `yaml:"subkey"`
	ValueType RegistryValueType `yaml:"value_type,omitempty"`
	ValueName string            `yaml:"value_name,omitempty"`
	ValueData string            `yaml:"value_data,omitempty"`

	// UninsDeleteKey removes the entire subkey (recursively) on uninstall.
	UninsDeleteKey bool `yaml:"unins_delete_key,omitempty"`
}

// RunEntry describes a program launched at the end of a successful install.
type RunEntry struct {
	Target      string `yaml:"target"`
	Parameters  string `yaml:"parameters,omitempty"`
	Description string `yaml:"description,omitempty"`

	NoWait       bool `yaml:"no_wait,omitempty"`
	PostInstall  bool `yaml:"post_install,omitempty"`
	SkipIfSilent bool `yaml:"skip_if_silent,omitempty"`
	Unchecked    bool `yaml:"unchecked,omitempty"`
}

// Load reads a native YAML manifest from disk.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest in native YAML form.
func Save(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyDefaults fills unset optional fields.
func (m *Manifest) ApplyDefaults() {
	if m.Compression == "" {
		m.Compression = CompressionBest
	}
	if m.OutputBaseFilename == "" && m.AppName != "" {
		m.OutputBaseFilename = strings.ReplaceAll(m.AppName, " ", "") + "Setup"
	}
	if m.PrivilegesRequired == "" {
		m.PrivilegesRequired = "admin"
	}
}

// TaskByName returns the declared task with the given name.
func (m *Manifest) TaskByName(name string) (TaskEntry, bool) {
	for _, t := range m.Tasks {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TaskEntry{}, false
}

// AppFiles returns the installed names of every file shipped into {app}.
func (m *Manifest) AppFiles() map[string]FileEntry {
	out := make(map[string]FileEntry, len(m.Files))
	for _, f := range m.Files {
		dir := strings.ToLower(strings.TrimRight(f.DestDir, `\/`))
		if dir == "{app}" {
			out[strings.ToLower(f.InstalledName())] = f
		}
	}
	return out
}
