package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"falak/internal/catalog"
	"falak/internal/config"
	"falak/internal/graph"
	"falak/internal/infrastructure"
	"falak/internal/layout"
	"falak/internal/services"
	transporthttp "falak/internal/transport/http"
	"falak/internal/websocket"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Application holds the assembled server components.
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Hub      *websocket.Hub
	Service  *services.GraphService
	Server   *http.Server
}

// New assembles an application from the config file at configPath. An empty
// path uses defaults plus environment overrides.
func New(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	source, err := instrumentSource(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := infrastructure.NewMetrics(registry)

	hub := websocket.NewHub(logger)

	builder := graph.NewBuilder(logger,
		graph.WithThreshold(cfg.Graph.Threshold),
		graph.WithMarketProxy(cfg.Graph.MarketProxyKey),
		graph.WithLayoutOptions(layout.Options{
			MinNodeDistance: cfg.Layout.MinNodeDistance,
			RelaxPasses:     cfg.Layout.RelaxPasses,
			CategoryGapDeg:  cfg.Layout.CategoryGapDeg,
			HubRadius:       cfg.Layout.HubRadius,
		}),
	)

	serviceOpts := []services.GraphServiceOption{
		services.WithMetrics(metrics),
		services.WithNotifier(hub),
	}
	if cfg.Catalog.HistoryDir != "" {
		serviceOpts = append(serviceOpts,
			services.WithHistoryProvider(&catalog.DirHistory{Dir: cfg.Catalog.HistoryDir}))
	}

	service := services.NewGraphService(source, builder, logger, serviceOpts...)

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Logger:           logger,
		Service:          service,
		Source:           source,
		Hub:              hub,
		Registry:         registry,
		Version:          Version,
		RateLimitEnabled: cfg.Server.RateLimit.Enabled,
		RateLimitRPS:     cfg.Server.RateLimit.RPS,
		RateLimitBurst:   cfg.Server.RateLimit.Burst,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Hub:      hub,
		Service:  service,
		Server:   server,
	}, nil
}

// Run starts the hub, the refresh loop and the HTTP server, then blocks
// until SIGINT/SIGTERM or a fatal server error. Shutdown is graceful within
// the configured timeout.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.InfoContext(ctx, "starting server",
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("log_level", a.Config.Logging.Level),
		slog.Duration("refresh_interval", a.Config.Graph.RefreshInterval.Std()))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := a.Service.Run(ctx, a.Config.Graph.RefreshInterval.Std()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout.Std())
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}

func instrumentSource(cfg config.CatalogConfig) (catalog.Source, error) {
	if cfg.File == "" {
		return catalog.FallbackSource(), nil
	}
	// Validate the catalog file up front so a broken file fails at startup
	// instead of on the first refresh.
	if _, err := catalog.LoadFile(cfg.File); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.File, err)
	}
	return &catalog.FileSource{Path: cfg.File}, nil
}
