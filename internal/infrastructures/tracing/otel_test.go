package tracing

import (
	"strings"
	"testing"
)

func TestNormalizeJaegerCollector(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                                   "http://localhost:14268/api/traces",
		"  ":                                 "http://localhost:14268/api/traces",
		"jaeger:14268":                       "http://jaeger:14268/api/traces",
		"http://jaeger:14268/":               "http://jaeger:14268/api/traces",
		"https://collector.local/api/traces": "https://collector.local/api/traces",
	}
	for in, want := range cases {
		if got := normalizeJaegerCollector(in); got != want {
			t.Fatalf("normalizeJaegerCollector(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSampler(t *testing.T) {
	t.Parallel()

	if d := sampler(0).Description(); !strings.Contains(d, "AlwaysOnSampler") {
		t.Fatalf("expected always-on root sampler, got %s", d)
	}
	if d := sampler(0.25).Description(); !strings.Contains(d, "TraceIDRatioBased{0.25}") {
		t.Fatalf("expected ratio sampler, got %s", d)
	}
}
