package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/recordbay/recordbay/internal/config"
)

// SetupOTel installs OTLP trace and metric providers when an endpoint is
// configured; otherwise exporters stay disabled and the globals keep their
// no-op defaults.
func SetupOTel(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
	endpoint := cfg.Observability.OTLPEndpoint
	if endpoint == "" {
		log.Info("otlp export disabled, no endpoint configured")
		return nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.Observability.ServiceName),
	))
	if err != nil {
		return err
	}

	var (
		tp *sdktrace.TracerProvider
		mp *sdkmetric.MeterProvider
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			traceExp, err := otlptracegrpc.New(ctx,
				otlptracegrpc.WithEndpoint(endpoint),
				otlptracegrpc.WithInsecure(),
			)
			if err != nil {
				return err
			}
			tp = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(traceExp),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(tp)

			metricExp, err := otlpmetricgrpc.New(ctx,
				otlpmetricgrpc.WithEndpoint(endpoint),
				otlpmetricgrpc.WithInsecure(),
			)
			if err != nil {
				return err
			}
			mp = sdkmetric.NewMeterProvider(
				sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
				sdkmetric.WithResource(res),
			)
			otel.SetMeterProvider(mp)

			log.Info("otlp export enabled", zap.String("endpoint", endpoint))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if mp != nil {
				if err := mp.Shutdown(ctx); err != nil {
					log.Warn("meter provider shutdown", zap.Error(err))
				}
			}
			if tp != nil {
				return tp.Shutdown(ctx)
			}
			return nil
		},
	})
	return nil
}
