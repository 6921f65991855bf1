package config

import "time"

const (
	envAPIConfig    = "API_CONFIG"
	envLogLevel     = "LOG_LEVEL"
	envLogFormat    = "LOG_FORMAT"
	envTickInterval = "TICK_INTERVAL"
	envStatusPort   = "STATUS_PORT"
	envMetricsPort  = "METRICS_PORT"
	envMetricsOn    = "METRICS_ENABLED"
	envOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService  = "OTEL_SERVICE_NAME"
	envOtelInsecure = "OTEL_EXPORTER_OTLP_INSECURE"

	// apiEnvPrefix scopes viper's env overrides for the settings file, e.g. OVERLAY_BASEURL.
	apiEnvPrefix = "OVERLAY"
	keyBaseURL   = "BaseUrl"

	defaultAPIConfigPath = "api.config"
	defaultBaseURL       = "http://localhost:4444"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultStatusPort    = "4500"
	defaultMetricsPort   = "9090"
	defaultServiceName   = "match-overlay"

	// Roughly one tick per rendered frame at 60 fps.
	defaultTickInterval = 16 * Duration(time.Millisecond)
)
