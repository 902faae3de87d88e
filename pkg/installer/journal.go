// pkg/installer/journal.go - the rollback journal.
//
// Every side effect the engine performs is journaled before the next
// one starts. On failure or cancellation the journal unwinds in reverse
// order, restoring overwritten files from their backups, so no partial
// install survives.

package installer

import (
	"os"

	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/regstore"
	"github.com/windowsadmins/packforge/pkg/shortcut"
)

type journalEntry struct {
	desc string
	undo func() error
}

type journal struct {
	entries []journalEntry
}

func (j *journal) add(desc string, undo func() error) {
	j.entries = append(j.entries, journalEntry{desc: desc, undo: undo})
}

// rollback unwinds all journaled actions in reverse order. Undo is best
// effort: one failed undo is logged and the rest still run.
func (j *journal) rollback() {
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if err := e.undo(); err != nil {
			logging.Warn("Rollback step failed", "step", e.desc, "error", err)
		} else {
			logging.Debug("Rolled back", "step", e.desc)
		}
	}
	j.entries = nil
}

func (j *journal) dirCreated(path string) {
	j.add("remove directory "+path, func() error {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

func (j *journal) fileCopied(path string) {
	j.add("remove file "+path, func() error {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

// fileBackedUp registers the restore of an overwritten file. It runs
// after the corresponding fileCopied undo, so the original contents
// come back.
func (j *journal) fileBackedUp(original, backup string) {
	j.add("restore "+original, func() error {
		return os.Rename(backup, original)
	})
}

func (j *journal) shortcutCreated(creator shortcut.Creator, path string) {
	j.add("remove shortcut "+path, func() error {
		return creator.Remove(path)
	})
}

// registryKeyCreated undoes the creation of a subkey that did not exist
// before this install.
func (j *journal) registryKeyCreated(store regstore.Store, root manifest.Hive, subkey string) {
	j.add("delete registry key "+string(root)+`\`+subkey, func() error {
		return store.DeleteKeyTree(root, subkey)
	})
}

// registryValueWritten undoes one value write in a pre-existing subkey,
// restoring the previous string data and value type when there was any.
func (j *journal) registryValueWritten(store regstore.Store, root manifest.Hive, subkey, valueName, prev string, prevExpand, hadPrev bool) {
	j.add("restore registry value "+string(root)+`\`+subkey+`\`+valueName, func() error {
		if hadPrev {
			return store.SetString(root, subkey, valueName, prev, prevExpand)
		}
		return store.DeleteValue(root, subkey, valueName)
	})
}
