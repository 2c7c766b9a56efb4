package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/product-search/pkg/client"
	"github.com/Sternrassler/product-search/pkg/logging"
	"github.com/Sternrassler/product-search/pkg/metrics"
)

const defaultConfigFile = "product-search.yaml"

// app carries the state shared by all subcommands.
type app struct {
	lookupEnv func(string) (string, bool)

	configPath  string
	baseURL     string
	logLevel    string
	logPretty   bool
	metricsAddr string

	settings settings
	logger   zerolog.Logger

	metricsServer *http.Server
}

// newRootCmd creates the product-search command tree.
func newRootCmd(lookupEnv func(string) (string, bool)) *cobra.Command {
	a := &app{lookupEnv: lookupEnv, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "product-search",
		Short:         "Search and page through the product catalogue",
		Long:          "product-search queries the product search endpoint and renders the results as an interactive listing, a single page or an HTML export.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Browse interactively
  product-search browse --base-url http://localhost:8080

  # Print the second page of results for "bolt"
  product-search page --query bolt --page 1

  # Export every matching product as table rows
  product-search export --query bolt > rows.html`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.resolve(cmd); err != nil {
				return err
			}
			return a.startMetrics()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.stopMetrics()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigFile, "path to YAML config file")
	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "server base URL (overrides config and "+envBaseURL+")")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&a.logPretty, "log-pretty", false, "human-readable log output")
	cmd.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	cmd.AddCommand(newBrowseCmd(a), newPageCmd(a), newExportCmd(a))
	return cmd
}

// resolve layers defaults, the config file, the environment and flags, then
// configures logging.
func (a *app) resolve(cmd *cobra.Command) error {
	s := defaultSettings()

	explicit := cmd.Flags().Changed("config")
	if err := loadFile(&s, a.configPath, explicit); err != nil {
		return err
	}
	if err := applyEnv(&s, a.lookupEnv); err != nil {
		return err
	}

	if cmd.Flags().Changed("base-url") {
		s.BaseURL = a.baseURL
	}
	if cmd.Flags().Changed("log-level") {
		level, err := logging.ParseLevel(a.logLevel)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		s.Log.Level = level
	}
	if cmd.Flags().Changed("log-pretty") {
		s.Log.Pretty = a.logPretty
	}
	s.Log.Output = cmd.ErrOrStderr()

	a.settings = s
	a.logger = logging.Setup(s.Log).With().Str("component", "cli").Logger()
	a.logger.Debug().
		Str("base_url", s.BaseURL).
		Str("config", a.configPath).
		Str("level", string(s.Log.Level)).
		Msg("Configuration resolved")
	return nil
}

func (a *app) newClient() (*client.Client, error) {
	c, err := client.New(a.settings.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}
	return c, nil
}

func (a *app) startMetrics() error {
	if a.metricsAddr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", a.metricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	srv := &http.Server{
		Handler:           metricsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.metricsServer = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	a.logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return nil
}

func (a *app) stopMetrics() error {
	if a.metricsServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := a.metricsServer.Shutdown(ctx)
	a.metricsServer = nil
	return err
}

func metricsRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}
