package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitTracer installs a jaeger backed provider as the global one.
// sampleRatio outside (0, 1) samples every root span.
func InitTracer(serviceName, collector, env string, sampleRatio float64) (*tracesdk.TracerProvider, error) {
	endpoint := normalizeJaegerCollector(collector)

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(endpoint),
	))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithSampler(sampler(sampleRatio)),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			attribute.String("deployment.environment", env),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func sampler(ratio float64) tracesdk.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return tracesdk.ParentBased(tracesdk.AlwaysSample())
	}
	return tracesdk.ParentBased(tracesdk.TraceIDRatioBased(ratio))
}

func normalizeJaegerCollector(value string) string {
	const defaultEndpoint = "http://localhost:14268/api/traces"
	endpoint := strings.TrimSpace(value)
	if endpoint == "" {
		return defaultEndpoint
	}

	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	if strings.HasSuffix(endpoint, "/api/traces") {
		return endpoint
	}

	return fmt.Sprintf("%s/api/traces", strings.TrimSuffix(endpoint, "/"))
}
