package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/bootprops/internal/api"
	"github.com/eugenenazirov/bootprops/internal/config"
	"github.com/eugenenazirov/bootprops/internal/properties"
	"github.com/eugenenazirov/bootprops/internal/sysprops"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	props   *properties.Set
	store   sysprops.Store
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// Bootstrap loads catalina.properties once for the process and returns the
// installed configuration. A non-nil error is fatal.
//
// The load goes through the process-wide properties.Init, so only the first
// call reads sources. Later calls return the first result even when cfg names
// different sources.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*properties.Set, sysprops.Store, error) {
	store := Store(cfg)
	loader := properties.NewLoader(logger, properties.DefaultSources(SourceOptions(cfg)), properties.WithStore(store))

	set, err := properties.Init(ctx, loader)
	if err != nil {
		return nil, nil, fmt.Errorf("load bootstrap properties: %w", err)
	}
	return set, store, nil
}

// Store returns the process-wide property store, mirrored into the OS
// environment when ExportEnv is set.
func Store(cfg config.Config) sysprops.Store {
	if cfg.Bootstrap.ExportEnv {
		return sysprops.Tee(sysprops.Default(), sysprops.EnvStore{})
	}
	return sysprops.Default()
}

// SourceOptions maps the bootstrap settings onto loader options.
func SourceOptions(cfg config.Config) properties.Options {
	return properties.Options{
		ConfigURL:    cfg.Bootstrap.ConfigURL,
		BaseDir:      cfg.Bootstrap.BaseDir,
		HomeDir:      cfg.Bootstrap.HomeDir,
		FetchTimeout: cfg.Bootstrap.FetchTimeout,
	}
}

// New loads the bootstrap configuration and wires the HTTP server around it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	props, store, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(props, store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		props:   props,
		store:   store,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and answers 404 elsewhere.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("source", a.props.Source()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Properties returns the loaded bootstrap configuration.
func (a *App) Properties() *properties.Set {
	return a.props
}
