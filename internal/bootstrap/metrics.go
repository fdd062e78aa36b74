package bootstrap

import (
	"github.com/chnu/award-monitoring-system/pkg/observability"
	obsImpl "github.com/chnu/award-monitoring-system/pkg/observability/implementation"
)

// MetricsOptions tags every series with the application and environment and
// keeps the administrative endpoints out of the request metrics.
func MetricsOptions(cfg Config) []obsImpl.Option {
	return []obsImpl.Option{
		obsImpl.WithCommonLabels(cfg.CommonLabels()...),
		obsImpl.WithMeterFilters(observability.DenyURIPrefix(cfg.AdminPathPrefix)),
	}
}

func ObservabilityConfig(cfg Config) obsImpl.Config {
	return obsImpl.Config{
		ServiceName:    cfg.ApplicationName,
		ServiceVersion: cfg.ApplicationVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		MetricsAddr:    cfg.MetricsAddr,
		RuntimeMetrics: true,
		MeterOptions:   MetricsOptions(cfg),
	}
}
