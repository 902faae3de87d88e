//go:build windows

package regstore

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

// WinStore talks to the live Windows registry.
type WinStore struct{}

// NewSystemStore returns a Store backed by the Windows registry.
func NewSystemStore() Store {
	return &WinStore{}
}

func rootKey(root manifest.Hive) (registry.Key, error) {
	switch root {
	case manifest.HiveClassesRoot:
		return registry.CLASSES_ROOT, nil
	case manifest.HiveCurrentUser:
		return registry.CURRENT_USER, nil
	case manifest.HiveLocalMachine:
		return registry.LOCAL_MACHINE, nil
	}
	return 0, fmt.Errorf("unknown registry root %q", root)
}

// wrapAccess translates ERROR_ACCESS_DENIED into ErrAccessDenied so the
// engine can surface a privilege error instead of a raw syscall code.
func wrapAccess(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.Errno(windows.ERROR_ACCESS_DENIED) {
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return err
}

func (s *WinStore) CreateKey(root manifest.Hive, subkey string) error {
	rk, err := rootKey(root)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(rk, subkey, registry.ALL_ACCESS)
	if err != nil {
		return wrapAccess(err)
	}
	return k.Close()
}

func (s *WinStore) SetString(root manifest.Hive, subkey, valueName, data string, expand bool) error {
	rk, err := rootKey(root)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(rk, subkey, registry.SET_VALUE)
	if err != nil {
		return wrapAccess(err)
	}
	defer k.Close()

	if expand {
		return wrapAccess(k.SetExpandStringValue(valueName, data))
	}
	return wrapAccess(k.SetStringValue(valueName, data))
}

func (s *WinStore) SetDWord(root manifest.Hive, subkey, valueName string, data uint32) error {
	rk, err := rootKey(root)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(rk, subkey, registry.SET_VALUE)
	if err != nil {
		return wrapAccess(err)
	}
	defer k.Close()
	return wrapAccess(k.SetDWordValue(valueName, data))
}

func (s *WinStore) GetString(root manifest.Hive, subkey, valueName string) (string, bool, error) {
	rk, err := rootKey(root)
	if err != nil {
		return "", false, err
	}
	k, err := registry.OpenKey(rk, subkey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, fmt.Errorf("%w: %s\\%s", ErrNotFound, root, subkey)
		}
		return "", false, wrapAccess(err)
	}
	defer k.Close()

	v, valtype, err := k.GetStringValue(valueName)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, fmt.Errorf("%w: %s\\%s\\%s", ErrNotFound, root, subkey, valueName)
		}
		return "", false, wrapAccess(err)
	}
	return v, valtype == registry.EXPAND_SZ, nil
}

func (s *WinStore) DeleteValue(root manifest.Hive, subkey, valueName string) error {
	rk, err := rootKey(root)
	if err != nil {
		return err
	}
	k, err := registry.OpenKey(rk, subkey, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return wrapAccess(err)
	}
	defer k.Close()

	if err := k.DeleteValue(valueName); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return wrapAccess(err)
	}
	return nil
}

func (s *WinStore) DeleteKeyTree(root manifest.Hive, subkey string) error {
	rk, err := rootKey(root)
	if err != nil {
		return err
	}
	return deleteKeyRecursive(rk, subkey)
}

// deleteKeyRecursive removes children depth-first; the registry API
// only deletes empty keys.
func deleteKeyRecursive(rk registry.Key, subkey string) error {
	k, err := registry.OpenKey(rk, subkey, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return wrapAccess(err)
	}
	names, err := k.ReadSubKeyNames(-1)
	k.Close()
	if err != nil {
		return wrapAccess(err)
	}
	for _, name := range names {
		if err := deleteKeyRecursive(rk, subkey+`\`+name); err != nil {
			return err
		}
	}
	if err := registry.DeleteKey(rk, subkey); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return wrapAccess(err)
	}
	return nil
}

func (s *WinStore) KeyExists(root manifest.Hive, subkey string) (bool, error) {
	rk, err := rootKey(root)
	if err != nil {
		return false, err
	}
	k, err := registry.OpenKey(rk, subkey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, wrapAccess(err)
	}
	k.Close()
	return true, nil
}
