package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" default:"info"`
	// Format is the output encoding (json, console).
	Format string `mapstructure:"format" default:"json"`
	// Service is attached to every line so shipped logs can be told apart.
	Service string `mapstructure:"service" default:"vault-inventory"`
}
