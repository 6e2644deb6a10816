package catalog

import "time"

// Fulfillment classes. Only internally fulfilled products hold inventory items.
const (
	FulfillmentInternal = "internal"
	FulfillmentExternal = "external"
)

// Product is the catalog row as seen by the inventory.
type Product struct {
	ID                string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name              string    `gorm:"column:name;type:varchar(255)" json:"name"`
	DeliveryType      string    `gorm:"column:delivery_type;type:varchar(16);not null" json:"delivery_type"`
	Fulfillment       string    `gorm:"column:fulfillment;type:varchar(16);not null;default:internal" json:"fulfillment"`
	Published         bool      `gorm:"column:published;not null;default:false" json:"published"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:0" json:"low_stock_threshold"`
	AutoUnpublish     bool      `gorm:"column:auto_unpublish;not null;default:false" json:"auto_unpublish"`
	StockAvailable    int       `gorm:"column:stock_available;not null;default:0" json:"stock_available"`
	StockReserved     int       `gorm:"column:stock_reserved;not null;default:0" json:"stock_reserved"`
	StockSold         int       `gorm:"column:stock_sold;not null;default:0" json:"stock_sold"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (Product) TableName() string {
	return "products"
}

// Counters are the cached per-product stock aggregates.
type Counters struct {
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Sold      int `json:"sold"`
}

// Total returns the sum of all counters.
func (c Counters) Total() int {
	return c.Available + c.Reserved + c.Sold
}

// Delta is a signed adjustment applied to Counters.
type Delta struct {
	Available int
	Reserved  int
	Sold      int
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Available == 0 && d.Reserved == 0 && d.Sold == 0
}

// ProductInfo is what intake needs to know about a product.
type ProductInfo struct {
	ID           string
	DeliveryType string
	Fulfillment  string
	Published    bool
}

// LowStockConfig is a product's low-stock policy plus its visibility.
type LowStockConfig struct {
	ProductID     string
	Threshold     int
	AutoUnpublish bool
	Published     bool
}
