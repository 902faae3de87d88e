// pkg/installer/uninstall.go - receipt-driven uninstall.

package installer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/regstore"
	"github.com/windowsadmins/packforge/pkg/shortcut"
)

// Uninstall removes an install described by the receipt in installDir.
// A missing receipt means nothing is installed there and is not an
// error, which makes repeated uninstalls harmless.
func Uninstall(ctx context.Context, installDir string, reg regstore.Store, sc shortcut.Creator) error {
	receipt, err := LoadReceipt(installDir)
	if err != nil {
		return err
	}
	if receipt == nil {
		logging.Info("Nothing to uninstall", "dir", installDir)
		return nil
	}
	logging.Info("Uninstalling", "app", receipt.AppName, "version", receipt.AppVersion, "dir", receipt.InstallDir)

	for _, path := range receipt.Shortcuts {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		if err := sc.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove shortcut", "path", path, "error", err)
		}
	}

	touchedClasses := false
	for _, r := range receipt.Registry {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		if !r.DeleteKey {
			continue
		}
		if err := reg.DeleteKeyTree(r.Root, r.Subkey); err != nil {
			logging.Warn("Failed to delete registry key", "root", string(r.Root), "subkey", r.Subkey, "error", err)
			continue
		}
		if r.Root == manifest.HiveClassesRoot {
			touchedClasses = true
		}
	}
	if touchedClasses {
		regstore.NotifyAssocChanged()
	}

	for _, f := range receipt.Files {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		// Read-only files from the install would block os.Remove.
		_ = os.Chmod(f.Path, 0644)
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove file", "path", f.Path, "error", err)
		}
	}

	if err := os.Remove(ReceiptPath(receipt.InstallDir)); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove receipt", "error", err)
	}

	pruneEmptyDirs(receipt)
	logging.Info("Uninstall complete", "app", receipt.AppName)
	return nil
}

// pruneEmptyDirs removes directories the install created, deepest
// first, stopping at anything that still has contents. The receipt's
// dir list also covers shortcut folders outside the install directory.
func pruneEmptyDirs(r *Receipt) {
	dirs := map[string]bool{r.InstallDir: true}
	for _, d := range r.Dirs {
		dirs[d] = true
	}
	for _, f := range r.Files {
		d := filepath.Dir(f.Path)
		for strings.HasPrefix(d, r.InstallDir) {
			dirs[d] = true
			parent := filepath.Dir(d)
			if parent == d {
				break
			}
			d = parent
		}
	}
	ordered := make([]string, 0, len(dirs))
	for d := range dirs {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })
	for _, d := range ordered {
		if err := os.Remove(d); err == nil {
			logging.Debug("Removed empty directory", "path", d)
		}
	}
}
