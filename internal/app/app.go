// Package app wires the catalog service together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/catalog-view/internal/domain/card"
	"github.com/xenking/catalog-view/internal/domain/catalog"
	"github.com/xenking/catalog-view/internal/handler"
	"github.com/xenking/catalog-view/internal/session"
	"github.com/xenking/catalog-view/internal/storage/feed"
	"github.com/xenking/catalog-view/internal/storage/postgres"
	"github.com/xenking/catalog-view/pkg/health"
	"github.com/xenking/catalog-view/pkg/httpmiddleware"
)

// source is a configured catalog source with its optional extras.
type source struct {
	catalog.Source
	// watch is set for file sources that are reloaded on change.
	watch string
	// poll is the reload interval for remote sources.
	poll  time.Duration
	check health.CheckFunc
	close func()
}

func openSource(ctx context.Context, cfg SourceConfig) (*source, error) {
	switch {
	case cfg.File != "":
		s := &source{Source: feed.NewFileSource(cfg.File), close: func() {}}
		if cfg.Watch {
			s.watch = cfg.File
		}
		return s, nil
	case cfg.URL != "":
		return &source{
			Source: feed.NewHTTPSource(cfg.URL, cfg.Timeout),
			poll:   cfg.Refresh,
			close:  func() {},
		}, nil
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return &source{
			Source: postgres.NewProductStore(pool),
			poll:   cfg.Refresh,
			check:  health.PingCheck(pool.Ping),
			close:  pool.Close,
		}, nil
	}
}

// Run creates all dependencies, loads the catalog, serves HTTP and handles
// graceful shutdown.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	src, err := openSource(ctx, cfg.Source)
	if err != nil {
		return errors.Wrap(err, "open catalog source")
	}
	defer src.close()

	store := catalog.NewStore()
	loader, err := catalog.NewLoader(store, src, catalog.LoaderConfig{
		Logger:         lg.Named("loader"),
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create loader")
	}
	reload := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.Source.Timeout)
		defer cancel()
		return loader.Reload(ctx)
	}
	// A failed initial load leaves the service unready until a reload
	// succeeds.
	if err := reload(ctx); err != nil {
		lg.Error("Initial catalog load failed", zap.Error(err))
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", health.LoadedCheck(store.Generation), health.CheckOptions{
		FailureThreshold: 1,
		StartUnhealthy:   store.Generation() == 0,
	})
	if src.check != nil {
		healthSvc.AddReadinessCheck("postgres", src.check, health.CheckOptions{Timeout: 5 * time.Second})
	}
	healthSvc.AddLivenessCheck("goroutines", health.GoroutineCountCheck(10000), health.CheckOptions{})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	sessions := session.NewRegistry(store, cfg.Session.TTL, lg.Named("session"))
	h := handler.New(handler.Config{
		Inquiry: card.Inquiry{
			BaseURL:  cfg.Inquiry.BaseURL,
			Currency: cfg.Inquiry.Currency,
		},
		CookieSecure:   cfg.Session.CookieSecure,
		CookieSameSite: cfg.Session.sameSite(),
		SessionTTL:     cfg.Session.TTL,
	}, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           24 * time.Hour,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("catalog-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.Run(ctx)
	})
	if src.watch != "" {
		w := feed.NewWatcher(src.watch, cfg.Source.Debounce, reload, lg.Named("watcher"))
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	if src.poll > 0 {
		g.Go(func() error {
			return poll(ctx, src.poll, reload, lg)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		defer healthSvc.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

// poll reloads the catalog every interval until ctx is done.
func poll(ctx context.Context, interval time.Duration, reload func(context.Context) error, lg *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := reload(ctx); err != nil {
				lg.Warn("Periodic catalog reload failed", zap.Error(err))
			}
		}
	}
}
