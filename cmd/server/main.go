package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/bootprops/internal/application"
	"github.com/eugenenazirov/bootprops/internal/config"
	"github.com/eugenenazirov/bootprops/internal/logging"
	"github.com/eugenenazirov/bootprops/internal/properties"
)

var signalNotify = signal.Notify

var errPropertyNotFound = errors.New("property not found")

const (
	cmdServe = "serve"
	cmdGet   = "get"
	cmdList  = "list"
)

type invocation struct {
	command   string
	overrides *config.CLIOverrides
	name      string
	def       *string
}

func main() {
	inv, err := parseArgs(os.Args[1:])
	kingpin.FatalIfError(err, "parse arguments")

	cfg, err := config.Load(inv.overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	if inv.command == cmdServe {
		app, err := application.New(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize application", zap.Error(err))
		}

		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
		return
	}

	set, _, err := application.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to load bootstrap properties", zap.Error(err))
	}

	switch inv.command {
	case cmdGet:
		if err := printProperty(os.Stdout, set, inv.name, inv.def); err != nil {
			fmt.Fprintln(os.Stderr, err)
			_ = logger.Sync()
			os.Exit(1)
		}
	case cmdList:
		printProperties(os.Stdout, set)
	}
}

func parseArgs(args []string) (invocation, error) {
	app := kingpin.New("bootprops", "Bootstrap properties loader - reads catalina.properties and serves it for inspection")
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	configURL := app.Flag("catalina-config", "URL of the properties file to try first").String()
	baseDir := app.Flag("catalina-base", "Base directory holding conf/catalina.properties").String()
	homeDir := app.Flag("catalina-home", "Home directory used when no base directory is set").String()
	var exportSet bool
	exportEnv := app.Flag("export-env", "Mirror loaded properties into the process environment").IsSetByUser(&exportSet).Bool()

	serveCmd := app.Command(cmdServe, "Load properties and serve the inspection API").Default()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	var rpsSet, burstSet bool
	rateLimitRPS := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").IsSetByUser(&rpsSet).Float64()
	rateLimitBurst := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter").IsSetByUser(&burstSet).Int()

	getCmd := app.Command(cmdGet, "Print the value of a single property")
	name := getCmd.Arg("name", "Property name").Required().String()
	var defaultSet bool
	def := getCmd.Flag("default", "Value printed when the property is absent").IsSetByUser(&defaultSet).String()

	app.Command(cmdList, "Print every loaded property as key=value")

	command, err := app.Parse(args)
	if err != nil {
		return invocation{}, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		LogLevel:   logLevel,
		ConfigURL:  configURL,
		BaseDir:    baseDir,
		HomeDir:    homeDir,
	}
	if exportSet {
		overrides.ExportEnv = exportEnv
	}
	if *port != "" {
		overrides.Port = port
	}
	if rpsSet {
		overrides.RateLimitRPS = rateLimitRPS
	}
	if burstSet {
		overrides.RateLimitBurst = rateLimitBurst
	}

	inv := invocation{
		command:   command,
		overrides: overrides,
		name:      *name,
	}
	if defaultSet {
		inv.def = def
	}
	return inv, nil
}

func printProperty(w io.Writer, set *properties.Set, name string, def *string) error {
	value, ok := set.Property(name)
	if !ok {
		if def == nil {
			return fmt.Errorf("%w: %s", errPropertyNotFound, name)
		}
		value = *def
	}
	_, err := fmt.Fprintln(w, value)
	return err
}

// printProperties writes the set in properties format, escaped so the output
// loads back to the same entries.
func printProperties(w io.Writer, set *properties.Set) {
	for _, name := range set.Keys() {
		value, _ := set.Property(name)
		fmt.Fprintf(w, "%s=%s\n", escapeProperty(name, true), escapeProperty(value, false))
	}
}

func escapeProperty(s string, key bool) string {
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\f':
			b.WriteString(`\f`)
		case '=', ':', '#', '!':
			b.WriteByte('\\')
			b.WriteRune(r)
		case ' ':
			// Values only need their leading whitespace kept.
			if key || i == 0 {
				b.WriteString(`\ `)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
