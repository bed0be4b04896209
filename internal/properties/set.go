package properties

// Set is an immutable, ordered collection of loaded properties.
// The zero value and a nil *Set are empty.
type Set struct {
	keys   []string
	values map[string]string
	source string
	err    error
}

func newSet(keys []string, values map[string]string, source string) *Set {
	return &Set{keys: keys, values: values, source: source}
}

func emptySet(err error) *Set {
	return &Set{err: err}
}

// Property returns the value of name and whether it was loaded.
func (s *Set) Property(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	value, ok := s.values[name]
	return value, ok
}

// PropertyOr returns the value of name, or def if it was not loaded.
//
// Deprecated: use Property and handle the missing case explicitly.
func (s *Set) PropertyOr(name, def string) string {
	if value, ok := s.Property(name); ok {
		return value
	}
	return def
}

// Keys returns the property names in the order they were read.
func (s *Set) Keys() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Source names the source the set was read from, or "" for an empty fallback.
func (s *Set) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

// Err returns the swallowed failure that left the set empty, if any.
// Use errors.Is with ErrNoSource or ErrMalformed to tell the cases apart.
func (s *Set) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}
