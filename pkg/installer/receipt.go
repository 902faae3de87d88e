// pkg/installer/receipt.go - the install receipt written into {app}.
//
// The receipt records exactly what an install did; the uninstaller
// reverses it and future installs consult it for the version-aware
// overwrite policy.

package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

// ReceiptName is the receipt's file name inside the install directory.
const ReceiptName = "unins.yaml"

// UninstallerName is the stub copy placed beside the installed files;
// the unins prefix makes it run in uninstall mode.
const UninstallerName = "unins.exe"

// InstalledFile records one file placed by the install.
type InstalledFile struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// ReceiptRegistry records one registry entry and its uninstall policy.
type ReceiptRegistry struct {
	Root      manifest.Hive `yaml:"root"`
	Subkey    string        `yaml:"subkey"`
	ValueName string        `yaml:"value_name,omitempty"`
	DeleteKey bool          `yaml:"delete_key,omitempty"`
}

// Receipt is the uninstall record for one installed application.
type Receipt struct {
	AppName     string            `yaml:"app_name"`
	AppVersion  string            `yaml:"app_version"`
	SessionID   string            `yaml:"session_id"`
	InstalledAt time.Time         `yaml:"installed_at"`
	InstallDir  string            `yaml:"install_dir"`
	Files       []InstalledFile   `yaml:"files"`
	Dirs        []string          `yaml:"dirs,omitempty"`
	Registry    []ReceiptRegistry `yaml:"registry,omitempty"`
	Shortcuts   []string          `yaml:"shortcuts,omitempty"`
}

// ReceiptPath returns the receipt location for an install directory.
func ReceiptPath(installDir string) string {
	return filepath.Join(installDir, ReceiptName)
}

// LoadReceipt reads the receipt for an install directory. A missing
// receipt returns (nil, nil): nothing is installed there.
func LoadReceipt(installDir string) (*Receipt, error) {
	data, err := os.ReadFile(ReceiptPath(installDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read install receipt: %w", err)
	}
	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse install receipt: %w", err)
	}
	return &r, nil
}

// Save writes the receipt into its install directory.
func (r *Receipt) Save() error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize install receipt: %w", err)
	}
	return os.WriteFile(ReceiptPath(r.InstallDir), data, 0644)
}
