package properties

import (
	"context"
	"errors"
	"fmt"
	"io"

	mprops "github.com/magiconair/properties"
	"go.uber.org/zap"

	"github.com/eugenenazirov/bootprops/internal/sysprops"
)

// Loader reads the first available source and publishes its entries into a
// property store.
type Loader struct {
	sources  []Source
	store    sysprops.Store
	logger   *zap.Logger
	encoding mprops.Encoding
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithStore overrides the store entries are published into.
func WithStore(store sysprops.Store) LoaderOption {
	return func(l *Loader) {
		l.store = store
	}
}

// WithEncoding sets the character encoding of the properties stream.
func WithEncoding(enc mprops.Encoding) LoaderOption {
	return func(l *Loader) {
		l.encoding = enc
	}
}

// NewLoader builds a Loader trying sources in order. Entries are published
// into sysprops.Default unless WithStore is given.
func NewLoader(logger *zap.Logger, sources []Source, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		sources:  sources,
		store:    sysprops.Default(),
		logger:   logger,
		encoding: mprops.UTF8,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the configuration. Non-fatal failures are logged and yield an
// empty set with a nil error; only fatal failures are returned, in which case
// nothing is published.
func (l *Loader) Load(ctx context.Context) (*Set, error) {
	set, err := l.read(ctx)
	if err != nil {
		return emptySet(err), err
	}

	if set.err != nil {
		l.logger.Warn("failed to load bootstrap properties, using empty configuration", zap.Error(set.err))
	}

	l.publish(set)

	if set.source != "" {
		l.logger.Info("bootstrap properties loaded",
			zap.String("source", set.source),
			zap.Int("count", set.Len()),
		)
	}
	return set, nil
}

func (l *Loader) read(ctx context.Context) (*Set, error) {
	var unavailable []error
	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Kind: KindFatal, Source: src.Name(), Err: fmt.Errorf("%w: %w", ErrAborted, err)}
		}

		rc, err := l.open(ctx, src)
		if err != nil {
			loadErr := classify(KindUnavailable, src.Name(), err)
			if loadErr.Kind == KindFatal {
				return nil, loadErr
			}
			l.logger.Debug("bootstrap properties source unavailable",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			unavailable = append(unavailable, loadErr)
			continue
		}

		set, err := l.parse(src, rc)
		if err != nil {
			loadErr := classify(KindMalformed, src.Name(), err)
			if loadErr.Kind == KindFatal {
				return nil, loadErr
			}
			return emptySet(loadErr), nil
		}
		return set, nil
	}

	return emptySet(&Error{Kind: KindNoSource, Err: errors.Join(unavailable...)}), nil
}

func (l *Loader) open(ctx context.Context, src Source) (rc io.ReadCloser, err error) {
	defer func() {
		if r := recover(); r != nil {
			rc, err = nil, fmt.Errorf("panic while opening: %v", r)
		}
	}()

	rc, err = src.Open(ctx)
	if err == nil && rc == nil {
		err = errors.New("no stream returned")
	}
	return rc, err
}

func (l *Loader) parse(src Source, rc io.ReadCloser) (*Set, error) {
	defer func() {
		if err := rc.Close(); err != nil {
			l.logger.Warn("could not close bootstrap properties source",
				zap.String("source", src.Name()),
				zap.Error(&Error{Kind: KindClose, Source: src.Name(), Err: err}),
			)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	parser := &mprops.Loader{Encoding: l.encoding, DisableExpansion: true}
	p, err := parser.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	keys := p.Keys()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		value, _ := p.Get(key)
		values[key] = value
	}
	return newSet(keys, values, src.Name()), nil
}

func (l *Loader) publish(set *Set) {
	for _, name := range set.keys {
		value := set.values[name]
		l.logger.Info("publishing bootstrap property",
			zap.String("name", name),
			zap.String("value", value),
		)
		if err := l.store.Set(name, value); err != nil {
			l.logger.Warn("could not publish bootstrap property",
				zap.String("name", name),
				zap.Error(err),
			)
		}
	}
}
