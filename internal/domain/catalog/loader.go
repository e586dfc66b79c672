package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/catalog-view/internal/domain/product"
)

// Source fetches the full product catalog in one request.
type Source interface {
	Fetch(ctx context.Context) ([]product.Product, error)
}

// LoaderConfig holds optional telemetry providers for the Loader.
type LoaderConfig struct {
	Logger         *zap.Logger
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Loader fetches the catalog from a Source, validates it and installs it
// into a Store.
type Loader struct {
	store  *Store
	src    Source
	lg     *zap.Logger
	tracer trace.Tracer

	loads    metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Gauge
}

// NewLoader creates a Loader for store and src.
func NewLoader(store *Store, src Source, cfg LoaderConfig) (*Loader, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}

	meter := cfg.MeterProvider.Meter("catalog")
	loads, err := meter.Int64Counter("catalog.loads",
		metric.WithDescription("Catalog load attempts by result"))
	if err != nil {
		return nil, errors.Wrap(err, "create loads counter")
	}
	duration, err := meter.Float64Histogram("catalog.load.duration",
		metric.WithDescription("Catalog fetch and validation time"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, errors.Wrap(err, "create load duration histogram")
	}
	size, err := meter.Int64Gauge("catalog.products",
		metric.WithDescription("Products in the committed catalog"))
	if err != nil {
		return nil, errors.Wrap(err, "create products gauge")
	}

	return &Loader{
		store:    store,
		src:      src,
		lg:       cfg.Logger,
		tracer:   cfg.TracerProvider.Tracer("catalog"),
		loads:    loads,
		duration: duration,
		size:     size,
	}, nil
}

// Reload fetches and installs a fresh catalog. On failure the store keeps
// its previous catalog. A load overtaken by a newer committed load is
// discarded without error.
func (l *Loader) Reload(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "catalog.Reload")
	defer span.End()

	ticket := l.store.BeginLoad()
	start := time.Now()

	products, err := l.fetch(ctx)
	l.duration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		l.record(ctx, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.lg.Error("Catalog load failed", zap.Error(err))
		return errors.Wrap(err, "load catalog")
	}

	if !l.store.CommitLoad(ticket, products) {
		l.record(ctx, "superseded")
		l.lg.Info("Catalog load superseded by a newer load", zap.Uint64("ticket", uint64(ticket)))
		return nil
	}

	l.record(ctx, "ok")
	l.size.Record(ctx, int64(len(products)))
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	l.lg.Info("Catalog loaded",
		zap.Int("products", len(products)),
		zap.Uint64("generation", l.store.Generation()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (l *Loader) fetch(ctx context.Context) ([]product.Product, error) {
	products, err := l.src.Fetch(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}
	if err := product.ValidateCatalog(products); err != nil {
		return nil, errors.Wrap(err, "validate")
	}
	return products, nil
}

func (l *Loader) record(ctx context.Context, result string) {
	l.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
