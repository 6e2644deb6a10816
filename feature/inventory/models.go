package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is an item's lifecycle state.
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
	StatusExpired   Status = "expired"
	StatusInvalid   Status = "invalid"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusAvailable, StatusReserved, StatusSold, StatusExpired, StatusInvalid}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Item is one sellable unit. The encrypted content and hash never leave the
// service in JSON; MaskedPreview is the display-safe form.
type Item struct {
	ID           string       `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ProductID    string       `gorm:"column:product_id;type:varchar(64);not null;index:idx_items_fifo,priority:1;index:idx_items_hash,priority:1" json:"product_id"`
	DeliveryType DeliveryType `gorm:"column:delivery_type;type:varchar(16);not null" json:"delivery_type"`

	Ciphertext    []byte `gorm:"column:encrypted_payload;not null" json:"-"`
	Nonce         []byte `gorm:"column:nonce;not null" json:"-"`
	AuthTag       []byte `gorm:"column:auth_tag;not null" json:"-"`
	ContentHash   string `gorm:"column:content_hash;type:char(64);not null;index:idx_items_hash,priority:2" json:"-"`
	MaskedPreview string `gorm:"column:masked_preview;type:varchar(255)" json:"masked_preview"`

	Status Status `gorm:"column:status;type:varchar(16);not null;index:idx_items_fifo,priority:2" json:"status"`

	ReservedForOrderID *string    `gorm:"column:reserved_for_order_id;type:varchar(64);index" json:"reserved_for_order_id,omitempty"`
	ReservedAt         *time.Time `gorm:"column:reserved_at" json:"reserved_at,omitempty"`

	SoldToOrderID *string             `gorm:"column:sold_to_order_id;type:varchar(64);index" json:"sold_to_order_id,omitempty"`
	SoldAt        *time.Time          `gorm:"column:sold_at" json:"sold_at,omitempty"`
	SoldPrice     decimal.NullDecimal `gorm:"column:sold_price;type:decimal(12,2)" json:"sold_price"`

	ExpiresAt *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`

	Supplier   string              `gorm:"column:supplier;type:varchar(128);index" json:"supplier,omitempty"`
	Cost       decimal.NullDecimal `gorm:"column:cost;type:decimal(12,2)" json:"cost"`
	Notes      string              `gorm:"column:notes;type:text" json:"notes,omitempty"`
	UploadedAt time.Time           `gorm:"column:uploaded_at;not null;index:idx_items_fifo,priority:3" json:"uploaded_at"`
	UploadedBy string              `gorm:"column:uploaded_by;type:varchar(64)" json:"uploaded_by"`

	InvalidReason *string    `gorm:"column:invalid_reason;type:varchar(255)" json:"invalid_reason,omitempty"`
	InvalidatedBy *string    `gorm:"column:invalidated_by;type:varchar(64)" json:"invalidated_by,omitempty"`
	InvalidatedAt *time.Time `gorm:"column:invalidated_at" json:"invalidated_at,omitempty"`

	WasReported bool       `gorm:"column:was_reported;not null;default:false" json:"was_reported"`
	ReportedAt  *time.Time `gorm:"column:reported_at" json:"reported_at,omitempty"`
	ReportNote  *string    `gorm:"column:report_note;type:text" json:"report_note,omitempty"`

	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (Item) TableName() string {
	return "inventory_items"
}

// Ref is the audit target reference for the item.
func (i *Item) Ref() string {
	return "item:" + i.ID
}

// ItemMeta is the provenance attached to an item at intake.
type ItemMeta struct {
	Supplier  string           `json:"supplier,omitempty" validate:"max=128"`
	Cost      *decimal.Decimal `json:"cost,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
}

// NewItem is one entry of an intake request.
type NewItem struct {
	Payload Payload `json:"payload"`
	ItemMeta
}

// ImportOptions controls bulk import behaviour.
type ImportOptions struct {
	SkipDuplicates bool `json:"skip_duplicates"`
}

// ImportError describes one rejected entry of a bulk import.
type ImportError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Errors   []ImportError `json:"errors"`
	ItemIDs  []string      `json:"item_ids"`
}

// LowStockAlert is published for every product at or below its threshold.
type LowStockAlert struct {
	ProductID   string    `json:"product_id"`
	Available   int       `json:"available"`
	Threshold   int       `json:"threshold"`
	Unpublished bool      `json:"unpublished"`
	At          time.Time `json:"at"`
}
