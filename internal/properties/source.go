package properties

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/go-resty/resty/v2"
)

const (
	// FileName is the properties file looked up under the conf directory.
	FileName = "catalina.properties"
	// ConfDir is the directory below the base directory holding FileName.
	ConfDir = "conf"

	defaultFetchTimeout = 10 * time.Second
)

//go:embed catalina.properties
var bundled embed.FS

// Source is a candidate location for the bootstrap properties.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Options selects the candidate sources built by DefaultSources.
type Options struct {
	ConfigURL    string
	BaseDir      string
	HomeDir      string
	FetchTimeout time.Duration
	HTTPClient   *resty.Client
}

// DefaultSources returns the fallback chain: the configuration URL when set,
// then <base>/conf/catalina.properties, then the bundled defaults.
func DefaultSources(opts Options) []Source {
	opts = withDefaults(opts)

	sources := make([]Source, 0, 3)
	if opts.ConfigURL != "" {
		client := opts.HTTPClient
		if client == nil {
			client = NewHTTPClient(opts.FetchTimeout)
		}
		sources = append(sources, &URLSource{URL: opts.ConfigURL, Client: client})
	}

	base := ResolveBaseDir(opts.BaseDir, opts.HomeDir)
	sources = append(sources,
		&FileSource{Path: filepath.Join(base, ConfDir, FileName)},
		DefaultResource(),
	)
	return sources
}

// withDefaults fills the unset fields of opts.
func withDefaults(opts Options) Options {
	defaults := Options{
		FetchTimeout: defaultFetchTimeout,
	}
	// Merge only fails on mismatched types.
	_ = mergo.Merge(&opts, defaults)
	return opts
}

// ResolveBaseDir picks the base directory, falling back to the home
// directory and then to the working directory.
func ResolveBaseDir(base, home string) string {
	if base != "" {
		return base
	}
	if home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// NewHTTPClient returns a resty client suitable for URLSource. A
// non-positive timeout selects the default.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
}

// URLSource reads properties from an http, https or file URL.
type URLSource struct {
	URL    string
	Client *resty.Client
}

func (s *URLSource) Name() string {
	return "url:" + s.URL
}

func (s *URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		return openFile(filepath.FromSlash(path))
	case "http", "https":
		return s.fetch(ctx)
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (s *URLSource) fetch(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = NewHTTPClient(0)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	body := resp.RawBody()
	if body == nil {
		return nil, errors.New("fetch: empty response")
	}
	if !resp.IsSuccess() {
		_ = body.Close()
		return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status())
	}
	return body, nil
}

// FileSource reads properties from a file on disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string {
	return "file:" + s.Path
}

func (s *FileSource) Open(context.Context) (io.ReadCloser, error) {
	return openFile(s.Path)
}

// EmbeddedSource reads properties from a resource inside an fs.FS.
type EmbeddedSource struct {
	FS   fs.FS
	Path string
}

// DefaultResource returns the bundled defaults compiled into the binary.
func DefaultResource() *EmbeddedSource {
	return &EmbeddedSource{FS: bundled, Path: FileName}
}

func (s *EmbeddedSource) Name() string {
	return "resource:" + s.Path
}

func (s *EmbeddedSource) Open(context.Context) (io.ReadCloser, error) {
	if s.FS == nil {
		return nil, errors.New("no filesystem")
	}
	f, err := s.FS.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open resource: %w", err)
	}
	return f, nil
}

func openFile(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return f, nil
}
