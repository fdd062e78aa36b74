package implementation

import (
	"context"

	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	LogLevel       string
	// OTLPEndpoint is the collector address; empty disables export.
	OTLPEndpoint string
	// MetricsAddr starts a standalone /metrics server; empty disables it.
	MetricsAddr    string
	RuntimeMetrics bool
	MeterOptions   []Option
}

func NewObservability(ctx context.Context, cfg Config) (observability.Observability, error) {
	log, err := NewZapLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	meter := NewPrometheusMeter(cfg.MeterOptions...)
	if cfg.RuntimeMetrics {
		reg := PromRegisterer(meter)
		if err := reg.Register(collectors.NewGoCollector()); err != nil {
			return nil, err
		}
		if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
	}

	o := &observabilityImplementation{
		log:         log,
		meter:       meter,
		tracer:      NewNoopTracer(),
		metricsAddr: cfg.MetricsAddr,
	}

	if cfg.OTLPEndpoint != "" {
		tracer, shutdown, err := NewOtelTracer(ctx, TracerConfig{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			Environment:    cfg.Environment,
			Endpoint:       cfg.OTLPEndpoint,
		})
		if err != nil {
			return nil, err
		}
		o.tracer = tracer
		o.traceClose = shutdown
	}

	return o, nil
}
