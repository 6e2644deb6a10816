package codec

// Config holds configuration for payload encryption.
type Config struct {
	// Key is the 256-bit encryption key, base64 or hex encoded.
	Key string `mapstructure:"key" default:""`
}
