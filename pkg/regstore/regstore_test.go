package regstore

import (
	"errors"
	"sort"
	"testing"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

func TestMemStoreValues(t *testing.T) {
	s := NewMemStore()

	if err := s.SetString(manifest.HiveCurrentUser, `Software\Viewer`, "InstallDir", `C:\Viewer`, false); err != nil {
		t.Fatal(err)
	}
	got, expand, err := s.GetString(manifest.HiveCurrentUser, `Software\Viewer`, "InstallDir")
	if err != nil {
		t.Fatal(err)
	}
	if got != `C:\Viewer` || expand {
		t.Errorf("GetString = %q expand=%v", got, expand)
	}

	// The expand bit round-trips for REG_EXPAND_SZ values.
	if err := s.SetString(manifest.HiveCurrentUser, `Software\Viewer`, "Cache", `%TEMP%\Viewer`, true); err != nil {
		t.Fatal(err)
	}
	if _, expand, err := s.GetString(manifest.HiveCurrentUser, `Software\Viewer`, "Cache"); err != nil || !expand {
		t.Errorf("expandsz read = expand=%v, %v", expand, err)
	}

	// Subkey lookup is case-insensitive, matching the real registry.
	if _, _, err := s.GetString(manifest.HiveCurrentUser, `software\VIEWER`, "installdir"); err != nil {
		t.Errorf("case-insensitive read failed: %v", err)
	}

	if _, _, err := s.GetString(manifest.HiveCurrentUser, `Software\Viewer`, "Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing value error = %v, want ErrNotFound", err)
	}
	if _, _, err := s.GetString(manifest.HiveLocalMachine, `Software\Viewer`, "InstallDir"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong hive error = %v, want ErrNotFound", err)
	}
}

func TestMemStoreKeyLifecycle(t *testing.T) {
	s := NewMemStore()

	if ok, _ := s.KeyExists(manifest.HiveClassesRoot, `Parent`); ok {
		t.Error("key exists before creation")
	}
	if err := s.CreateKey(manifest.HiveClassesRoot, `Parent`); err != nil {
		t.Fatal(err)
	}
	if err := s.SetString(manifest.HiveClassesRoot, `Parent\Child`, "", "v", false); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDWord(manifest.HiveClassesRoot, `ParentSibling`, "n", 7); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteKeyTree(manifest.HiveClassesRoot, `Parent`); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.KeyExists(manifest.HiveClassesRoot, `Parent`); ok {
		t.Error("parent survived DeleteKeyTree")
	}
	if ok, _ := s.KeyExists(manifest.HiveClassesRoot, `Parent\Child`); ok {
		t.Error("child survived DeleteKeyTree")
	}
	// A sibling sharing the name prefix is not part of the tree.
	if ok, _ := s.KeyExists(manifest.HiveClassesRoot, `ParentSibling`); !ok {
		t.Error("prefix sibling deleted by DeleteKeyTree")
	}

	// Deleting a missing tree is a no-op.
	if err := s.DeleteKeyTree(manifest.HiveClassesRoot, `Parent`); err != nil {
		t.Errorf("second DeleteKeyTree: %v", err)
	}
}

func TestMemStoreDeleteValue(t *testing.T) {
	s := NewMemStore()
	if err := s.SetString(manifest.HiveCurrentUser, `K`, "v", "data", false); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteValue(manifest.HiveCurrentUser, `K`, "v"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.GetString(manifest.HiveCurrentUser, `K`, "v"); !errors.Is(err, ErrNotFound) {
		t.Errorf("value survived delete: %v", err)
	}
	// The key itself stays.
	if ok, _ := s.KeyExists(manifest.HiveCurrentUser, `K`); !ok {
		t.Error("key removed by DeleteValue")
	}
	if err := s.DeleteValue(manifest.HiveCurrentUser, `K`, "v"); err != nil {
		t.Errorf("second DeleteValue: %v", err)
	}
}

func TestMemStoreKeys(t *testing.T) {
	s := NewMemStore()
	s.CreateKey(manifest.HiveClassesRoot, `A`)
	s.CreateKey(manifest.HiveCurrentUser, `B`)
	keys := s.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != `HKCR\a` || keys[1] != `HKCU\b` {
		t.Errorf("Keys = %v", keys)
	}
}
