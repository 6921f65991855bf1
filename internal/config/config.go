package config

// Config holds runtime configuration for the overlay process.
type Config struct {
	API           APIConfig
	APIConfigPath string
	LogLevel      string
	LogFormat     string
	TickInterval  Duration
	StatusPort    string
	Metrics       MetricsConfig
}

// Load reads the API settings file and the process environment.
// A missing settings file is created with defaults; an unreadable one is a ConfigError.
func Load() (Config, error) {
	path := envOrDefault(envAPIConfig, defaultAPIConfigPath)
	api, err := LoadAPIConfig(path)
	if err != nil {
		return Config{}, err
	}
	return Config{
		API:           api,
		APIConfigPath: path,
		LogLevel:      envOrDefault(envLogLevel, defaultLogLevel),
		LogFormat:     envOrDefault(envLogFormat, defaultLogFormat),
		TickInterval:  durationEnvOrDefault(envTickInterval, defaultTickInterval),
		StatusPort:    envOrDefault(envStatusPort, defaultStatusPort),
		Metrics:       loadMetrics(),
	}, nil
}
