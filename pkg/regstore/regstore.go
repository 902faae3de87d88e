// pkg/regstore/regstore.go - registry access behind an interface.
//
// The install engine never touches the Windows registry directly; it
// talks to a Store. The Windows implementation wraps
// golang.org/x/sys/windows/registry, and the in-memory implementation
// backs tests and non-Windows dry runs.

package regstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

// ErrAccessDenied reports a registry operation rejected for lack of
// privilege.
var ErrAccessDenied = errors.New("registry access denied")

// Store writes and removes registry state.
type Store interface {
	// CreateKey ensures the subkey exists.
	CreateKey(root manifest.Hive, subkey string) error
	// SetString writes a REG_SZ or REG_EXPAND_SZ value, creating the
	// subkey as needed.
	SetString(root manifest.Hive, subkey, valueName, data string, expand bool) error
	// SetDWord writes a REG_DWORD value, creating the subkey as needed.
	SetDWord(root manifest.Hive, subkey, valueName string, data uint32) error
	// GetString reads a string value back, reporting whether it is
	// stored as REG_EXPAND_SZ.
	GetString(root manifest.Hive, subkey, valueName string) (string, bool, error)
	// DeleteValue removes a single value; missing values are not an error.
	DeleteValue(root manifest.Hive, subkey, valueName string) error
	// DeleteKeyTree removes the subkey and everything below it; a
	// missing subkey is not an error.
	DeleteKeyTree(root manifest.Hive, subkey string) error
	// KeyExists reports whether the subkey exists.
	KeyExists(root manifest.Hive, subkey string) (bool, error)
}

// ErrNotFound reports a missing key or value on read.
var ErrNotFound = errors.New("registry entry not found")

// MemStore is an in-memory Store.
type MemStore struct {
	mu   sync.Mutex
	keys map[string]map[string]memValue
}

type memValue struct {
	str    string
	dword  uint32
	isStr  bool
	expand bool
}

// NewMemStore returns an empty in-memory registry.
func NewMemStore() *MemStore {
	return &MemStore{keys: make(map[string]map[string]memValue)}
}

func keyID(root manifest.Hive, subkey string) string {
	return string(root) + `\` + strings.ToLower(strings.Trim(subkey, `\`))
}

func (s *MemStore) CreateKey(root manifest.Hive, subkey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := keyID(root, subkey)
	if s.keys[id] == nil {
		s.keys[id] = make(map[string]memValue)
	}
	return nil
}

func (s *MemStore) SetString(root manifest.Hive, subkey, valueName, data string, expand bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := keyID(root, subkey)
	if s.keys[id] == nil {
		s.keys[id] = make(map[string]memValue)
	}
	s.keys[id][strings.ToLower(valueName)] = memValue{str: data, isStr: true, expand: expand}
	return nil
}

func (s *MemStore) SetDWord(root manifest.Hive, subkey, valueName string, data uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := keyID(root, subkey)
	if s.keys[id] == nil {
		s.keys[id] = make(map[string]memValue)
	}
	s.keys[id][strings.ToLower(valueName)] = memValue{dword: data}
	return nil
}

func (s *MemStore) GetString(root manifest.Hive, subkey, valueName string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.keys[keyID(root, subkey)]
	if !ok {
		return "", false, fmt.Errorf("%w: %s\\%s", ErrNotFound, root, subkey)
	}
	v, ok := values[strings.ToLower(valueName)]
	if !ok || !v.isStr {
		return "", false, fmt.Errorf("%w: %s\\%s\\%s", ErrNotFound, root, subkey, valueName)
	}
	return v.str, v.expand, nil
}

func (s *MemStore) DeleteValue(root manifest.Hive, subkey, valueName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if values, ok := s.keys[keyID(root, subkey)]; ok {
		delete(values, strings.ToLower(valueName))
	}
	return nil
}

func (s *MemStore) DeleteKeyTree(root manifest.Hive, subkey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := keyID(root, subkey)
	for id := range s.keys {
		if id == prefix || strings.HasPrefix(id, prefix+`\`) {
			delete(s.keys, id)
		}
	}
	return nil
}

func (s *MemStore) KeyExists(root manifest.Hive, subkey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[keyID(root, subkey)]
	return ok, nil
}

// Keys returns the identifiers of all existing keys, for inspection.
func (s *MemStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.keys))
	for id := range s.keys {
		out = append(out, id)
	}
	return out
}
