package lease

// Config holds configuration for the Redis lease backend.
type Config struct {
	// Addr is the Redis address; empty selects the in-process locker.
	Addr string `mapstructure:"addr" default:""`
	// Password is the Redis password.
	Password string `mapstructure:"password" default:""`
	// DB is the Redis database number.
	DB int `mapstructure:"db" default:"0"`
	// Prefix namespaces lease keys.
	Prefix string `mapstructure:"prefix" default:"inventory:lease:"`
}
