// Package loader provides the feature loading system.
//
// Each feature implements the Feature interface and registers its own routes:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager holds the registered features and loads the enabled ones in
// registration order. The inventory and reconciliation features are wired
// through it in cmd/start.go.
package loader
