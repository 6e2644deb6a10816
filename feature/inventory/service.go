package inventory

import (
	"context"
	"time"

	"vault-inventory/core/apperr"
	"vault-inventory/core/codec"
	"vault-inventory/feature/audit"
	"vault-inventory/feature/catalog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Catalog is the subset of the product catalog the engine depends on. Every
// call receives the active transaction.
type Catalog interface {
	ProductExists(ctx context.Context, db *gorm.DB, id string) (bool, error)
	GetProduct(ctx context.Context, db *gorm.DB, id string) (*catalog.ProductInfo, error)
	LowStockConfigs(ctx context.Context, db *gorm.DB) ([]catalog.LowStockConfig, error)
	SetPublished(ctx context.Context, db *gorm.DB, id string, published bool) error
	IncrementCounters(ctx context.Context, db *gorm.DB, id string, d catalog.Delta) error
	SetCounters(ctx context.Context, db *gorm.DB, id string, c catalog.Counters) error
	LockCounters(ctx context.Context, db *gorm.DB, id string) (catalog.Counters, error)
	ListCounters(ctx context.Context, db *gorm.DB) (map[string]catalog.Counters, error)
}

// Service implements intake, reservation, delivery, queries and the
// reconciliation passes.
type Service struct {
	db      *gorm.DB
	items   *Store
	catalog Catalog
	codec   *codec.Codec
	audit   audit.Sink
	alerts  Alerter
	logger  *zap.Logger
	cfg     Config
	now     func() time.Time
}

// NewService creates the inventory service. A nil codec leaves the service
// usable for reservation and queries while intake and delivery fail with a
// configuration error.
func NewService(db *gorm.DB, cat Catalog, c *codec.Codec, sink audit.Sink, alerts Alerter, logger *zap.Logger, cfg Config) *Service {
	if sink == nil {
		sink = audit.NewLoggerSink(logger)
	}
	if alerts == nil {
		alerts = NewLogAlerter(logger)
	}
	return &Service{
		db:      db,
		items:   NewStore(),
		catalog: cat,
		codec:   c,
		audit:   sink,
		alerts:  alerts,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) requireCodec() error {
	if s.codec == nil {
		return apperr.Configurationf("encryption key is not configured")
	}
	return nil
}

// record writes an audit entry. It runs after commit, so a failure is only
// logged.
func (s *Service) record(ctx context.Context, action, target, message string, metadata map[string]any) {
	entry := audit.Entry{
		ActorID:   audit.ActorFrom(ctx),
		Action:    action,
		TargetRef: target,
		Metadata:  metadata,
		Message:   message,
		At:        s.now(),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("Audit log failed",
			zap.String("action", action),
			zap.String("target", target),
			zap.Error(err))
	}
}

func productRef(id string) string {
	return "product:" + id
}

func orderRef(id string) string {
	return "order:" + id
}
