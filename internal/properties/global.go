package properties

import (
	"context"
	"sync"
	"sync/atomic"
)

var (
	initOnce sync.Once
	initErr  error
	loaded   atomic.Pointer[Set]
)

// Init runs loader exactly once per process and installs the result as the
// global configuration. Later calls return the first result without loading.
func Init(ctx context.Context, loader *Loader) (*Set, error) {
	initOnce.Do(func() {
		set, err := loader.Load(ctx)
		loaded.Store(set)
		initErr = err
	})
	return Loaded(), initErr
}

// Loaded returns the global configuration, empty until Init has run.
func Loaded() *Set {
	if set := loaded.Load(); set != nil {
		return set
	}
	return &Set{}
}

// Property looks name up in the global configuration.
func Property(name string) (string, bool) {
	return Loaded().Property(name)
}

// PropertyOr returns the global value of name, or def if it is absent.
//
// Deprecated: use Property.
func PropertyOr(name, def string) string {
	return Loaded().PropertyOr(name, def)
}
