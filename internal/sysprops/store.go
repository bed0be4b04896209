package sysprops

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidName indicates the property name cannot be stored.
	ErrInvalidName = errors.New("property name must be non-empty and must not contain '=' or NUL")
)

// Store is a process-wide property namespace.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string) error
	Names() []string
}

// MemoryStore keeps properties in-memory and guards access with a RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	props map[string]string
}

var defaultStore = NewMemoryStore()

// Default returns the process-wide store. It is written once during
// bootstrap and read afterwards.
func Default() *MemoryStore {
	return defaultStore
}

// NewMemoryStore initialises an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		props: make(map[string]string),
	}
}

// Get returns the value stored under name.
func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.props[name]
	return value, ok
}

// Set validates name and stores value under it, replacing any previous value.
func (s *MemoryStore) Set(name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	s.props[name] = value
	s.mu.Unlock()

	return nil
}

// Names returns the stored property names in sorted order.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.props))
	for name := range s.props {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of every stored property.
func (s *MemoryStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.props))
	for name, value := range s.props {
		out[name] = value
	}
	return out
}

// EnvStore mirrors properties into the OS environment of the current process.
type EnvStore struct{}

// Get looks name up in the process environment.
func (EnvStore) Get(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Set exports name=value into the process environment.
func (EnvStore) Set(name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	return nil
}

// Names returns the sorted names of all environment variables.
func (EnvStore) Names() []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if i := strings.IndexByte(kv, '='); i > 0 {
			out = append(out, kv[:i])
		}
	}
	sort.Strings(out)
	return out
}

type teeStore []Store

// Tee returns a Store writing to every given store. Reads are served by the
// first store that holds the name.
func Tee(stores ...Store) Store {
	if len(stores) == 1 {
		return stores[0]
	}
	return teeStore(stores)
}

func (t teeStore) Get(name string) (string, bool) {
	for _, s := range t {
		if value, ok := s.Get(name); ok {
			return value, true
		}
	}
	return "", false
}

func (t teeStore) Set(name, value string) error {
	var errs []error
	for _, s := range t {
		if err := s.Set(name, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeStore) Names() []string {
	unique := make(map[string]struct{})
	for _, s := range t {
		for _, name := range s.Names() {
			unique[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(unique))
	for name := range unique {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "=\x00") {
		return ErrInvalidName
	}
	return nil
}
