package bootstrap

import (
	"os"

	"github.com/chnu/award-monitoring-system/pkg/observability"
)

const (
	DefaultApplicationName = "award-monitoring-system"
	DefaultEnvironment     = "default"
	DefaultAdminPathPrefix = "/actuator"
)

type Config struct {
	ApplicationName    string
	ApplicationVersion string
	// Environment plays the role of the active profile.
	Environment     string
	HTTPAddr        string
	GRPCAddr        string
	MetricsAddr     string
	OTLPEndpoint    string
	LogLevel        string
	AdminPathPrefix string
}

// LoadConfig reads the configuration from the environment, falling back to
// defaults for anything unset.
func LoadConfig() Config {
	return Config{
		ApplicationName:    env("APP_NAME", DefaultApplicationName),
		ApplicationVersion: env("APP_VERSION", "0.0.1"),
		Environment:        env("APP_ENV", env("SPRING_PROFILES_ACTIVE", DefaultEnvironment)),
		HTTPAddr:           env("HTTP_ADDR", ":8080"),
		GRPCAddr:           env("GRPC_ADDR", ":50051"),
		MetricsAddr:        os.Getenv("METRICS_ADDR"),
		OTLPEndpoint:       os.Getenv("OTLP_ENDPOINT"),
		LogLevel:           env("LOG_LEVEL", "info"),
		AdminPathPrefix:    env("ADMIN_PATH_PREFIX", DefaultAdminPathPrefix),
	}
}

func (c Config) CommonLabels() []observability.Label {
	return []observability.Label{
		{Key: "application", Value: c.ApplicationName},
		{Key: "environment", Value: c.Environment},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
