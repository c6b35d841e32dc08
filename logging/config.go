package logging

// Config is the logging section threaded into NewLoggerFromConfig.
// Environment selects console-vs-JSON output; it is set from the
// relayer's top-level Config.Mode, not owned independently.
type Config struct {
	Level       Level
	Environment string
}

// NewDefaultConfig returns the info-level, production-encoded default.
func NewDefaultConfig() Config {
	return Config{
		Level:       InfoLevel,
		Environment: "prod",
	}
}
