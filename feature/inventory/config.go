package inventory

import "time"

// Config holds inventory engine settings.
type Config struct {
	// ReservationTimeout is how long a reservation may stay open before the
	// release pass returns the item to stock.
	ReservationTimeout time.Duration `mapstructure:"reservation_timeout" default:"30m"`
	// ReserveTimeout bounds a single reservation transaction, lock wait included.
	ReserveTimeout time.Duration `mapstructure:"reserve_timeout" default:"5s"`
	// MaxBulkItems caps the size of a bulk import.
	MaxBulkItems int `mapstructure:"max_bulk_items" default:"1000"`
	// MaxPayloadBytes caps the encoded size of a single item payload.
	MaxPayloadBytes int `mapstructure:"max_payload_bytes" default:"65536"`
}

func (c Config) withDefaults() Config {
	if c.ReservationTimeout <= 0 {
		c.ReservationTimeout = 30 * time.Minute
	}
	if c.ReserveTimeout <= 0 {
		c.ReserveTimeout = 5 * time.Second
	}
	if c.MaxBulkItems <= 0 {
		c.MaxBulkItems = 1000
	}
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = 64 << 10
	}
	return c
}
