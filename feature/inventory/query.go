package inventory

import (
	"context"
	"fmt"

	"vault-inventory/core/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// sortColumns whitelists the columns a listing may be ordered by.
var sortColumns = map[string]string{
	"uploaded_at": "uploaded_at",
	"expires_at":  "expires_at",
	"cost":        "cost",
	"status":      "status",
	"sold_at":     "sold_at",
	"supplier":    "supplier",
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListQuery filters, sorts and pages an item listing.
type ListQuery struct {
	ProductID string `query:"-"`
	Status    Status `query:"status"`
	Supplier  string `query:"supplier"`
	Reported  *bool  `query:"reported"`
	Sort      string `query:"sort"`
	Order     string `query:"order"`
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size"`
}

// Page is one page of items.
type Page struct {
	Items    []Item `json:"items"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// Stats aggregates a product's or the whole inventory's items.
type Stats struct {
	ProductID    string           `json:"product_id,omitempty"`
	Products     int              `json:"products,omitempty"`
	Counts       map[Status]int64 `json:"counts"`
	Total        int64            `json:"total"`
	Reported     int64            `json:"reported"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	AverageCost  decimal.Decimal  `json:"average_cost"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	SoldCost     decimal.Decimal  `json:"sold_cost"`
	TotalProfit  decimal.Decimal  `json:"total_profit"`
}

// List returns a page of items. Items never include their encrypted content.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validationf("unknown status %q", q.Status)
	}
	column := "uploaded_at"
	if q.Sort != "" {
		c, ok := sortColumns[q.Sort]
		if !ok {
			return nil, apperr.Validationf("cannot sort by %q", q.Sort)
		}
		column = c
	}
	direction := "ASC"
	switch q.Order {
	case "", "asc":
	case "desc":
		direction = "DESC"
	default:
		return nil, apperr.Validationf("order must be asc or desc")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	base := s.db.WithContext(ctx).Model(&Item{})
	if q.ProductID != "" {
		base = base.Where("product_id = ?", q.ProductID)
	}
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.Supplier != "" {
		base = base.Where("supplier = ?", q.Supplier)
	}
	if q.Reported != nil {
		base = base.Where("was_reported = ?", *q.Reported)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	items := []Item{}
	err := base.Session(&gorm.Session{}).
		Omit("encrypted_payload", "nonce", "auth_tag").
		Order(fmt.Sprintf("%s %s, id %s", column, direction, direction)).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &Page{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Stats aggregates one product's items.
func (s *Service) Stats(ctx context.Context, productID string) (*Stats, error) {
	exists, err := s.catalog.ProductExists(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFoundf("product %s", productID)
	}

	stats, err := s.aggregate(ctx, s.db.WithContext(ctx).Model(&Item{}).Where("product_id = ?", productID))
	if err != nil {
		return nil, err
	}
	stats.ProductID = productID
	return stats, nil
}

// GlobalStats aggregates items across every product.
func (s *Service) GlobalStats(ctx context.Context) (*Stats, error) {
	stats, err := s.aggregate(ctx, s.db.WithContext(ctx).Model(&Item{}))
	if err != nil {
		return nil, err
	}

	var products int64
	if err := s.db.WithContext(ctx).Model(&Item{}).Distinct("product_id").Count(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	stats.Products = int(products)
	return stats, nil
}

type statusTotal struct {
	Status Status
	Count  int64
}

type moneyTotals struct {
	TotalCost decimal.Decimal
	CostCount int64
	Revenue   decimal.Decimal
	SoldCost  decimal.Decimal
	Reported  int64
}

func (s *Service) aggregate(ctx context.Context, scope *gorm.DB) (*Stats, error) {
	var rows []statusTotal
	err := scope.Session(&gorm.Session{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count items by status: %w", err)
	}

	stats := &Stats{Counts: make(map[Status]int64, len(Statuses))}
	for _, st := range Statuses {
		stats.Counts[st] = 0
	}
	for _, r := range rows {
		stats.Counts[r.Status] = r.Count
		stats.Total += r.Count
	}

	var money moneyTotals
	err = scope.Session(&gorm.Session{}).
		Select(
			"COALESCE(SUM(cost), 0) AS total_cost, "+
				"COUNT(cost) AS cost_count, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN sold_price END), 0) AS revenue, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN cost END), 0) AS sold_cost, "+
				"COALESCE(SUM(CASE WHEN was_reported THEN 1 ELSE 0 END), 0) AS reported",
			StatusSold, StatusSold,
		).
		Scan(&money).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum item values: %w", err)
	}

	stats.Reported = money.Reported
	stats.TotalCost = money.TotalCost.Round(2)
	if money.CostCount > 0 {
		stats.AverageCost = money.TotalCost.Div(decimal.NewFromInt(money.CostCount)).Round(2)
	}
	stats.TotalRevenue = money.Revenue.Round(2)
	stats.SoldCost = money.SoldCost.Round(2)
	stats.TotalProfit = stats.TotalRevenue.Sub(stats.SoldCost)
	return stats, nil
}
