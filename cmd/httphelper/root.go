package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/handiism/httphelper/internal/api"
	"github.com/handiism/httphelper/internal/config"
	"github.com/handiism/httphelper/internal/download"
	"github.com/handiism/httphelper/internal/helper"
	"github.com/handiism/httphelper/internal/http"
	"github.com/handiism/httphelper/internal/log"
	"github.com/handiism/httphelper/internal/metrics"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath  string
	dynamic     string
	globalURL   string
	metricsAddr string
	logLevel    string
	logFormat   string
	logHTTP     bool
	verbose     bool
}

// app is the wiring built from options for one command run.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	helper   *helper.Helper
	client   *http.Client
	manager  *download.Manager
	out      io.Writer
}

// syncWriter serializes writes from the manager and progress goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// NewRootCommand creates the root Cobra command for httphelper.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "httphelper",
		Short: "httphelper - switch API origins at runtime",
		Long: `httphelper sends the demo endpoints through the helper client, which
rewrites each request's origin from its alias, applies per-endpoint
timeouts and reports transfer progress.

Run 'httphelper domains' to see the registered aliases.
Run 'httphelper get all --dynamic https://example.com' to send every demo request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config file (JSON, or YAML by .yaml/.yml extension)")
	pf.StringVar(&opts.dynamic, "dynamic", "", "Origin registered for the '"+api.DomainDynamic+"' alias")
	pf.StringVar(&opts.globalURL, "base-url", "", "Global base URL for endpoints without an alias")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")
	pf.BoolVar(&opts.logHTTP, "log-http", false, "Log requests and responses")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Show verbose output")

	cmd.AddCommand(
		newGetCommand(opts),
		newDownloadCommand(opts),
		newDomainsCommand(opts),
		newVersionCommand(),
	)

	return cmd
}

// newApp loads settings, applies flag overrides and builds the client.
func (o *options) newApp(cmd *cobra.Command) (*app, error) {
	settings := config.DefaultSettings()
	if o.configPath != "" {
		var err error
		settings, err = config.Load(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if o.dynamic != "" {
		if settings.Domains == nil {
			settings.Domains = make(map[string]string)
		}
		settings.Domains[api.DomainDynamic] = o.dynamic
	}
	if o.globalURL != "" {
		settings.GlobalBaseURL = o.globalURL
	}

	logCfg := log.FromEnv()
	if o.logLevel != "" {
		logCfg.Level = o.logLevel
	}
	if o.logFormat != "" {
		logCfg.Format = log.Format(o.logFormat)
	}
	logCfg.Output = cmd.ErrOrStderr()
	logger := log.New(logCfg)

	var collector *metrics.Collector
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector = metrics.New(reg)
		go serveMetrics(cmd.Context(), o.metricsAddr, reg, logger)
	}

	h := helper.New(
		helper.WithLogger(log.WithComponent(logger, "helper")),
		helper.WithMetrics(collector),
	)
	if err := settings.Apply(h); err != nil {
		return nil, err
	}

	builder := settings.Builder(h)
	if o.logHTTP {
		builder.Use(http.LogMiddleware(log.WithComponent(logger, "http"), settings.LogBodyLimit))
	}
	hc, err := builder.Build()
	if err != nil {
		return nil, err
	}

	a := &app{
		settings: settings,
		logger:   logger,
		helper:   h,
		client:   http.NewClient(hc),
		out:      &syncWriter{w: cmd.OutOrStdout()},
	}
	a.manager = download.NewManager(settings, h, a.client, printEvent(a.out, o.verbose))
	return a, nil
}

// printEvent writes manager events to out with a level prefix.
func printEvent(out io.Writer, verbose bool) func(download.ProgressEvent) {
	return func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}

		fmt.Fprintln(out, prefix+event.Message)
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		logger.Error("metrics server stopped", log.Error(err))
	}
}
