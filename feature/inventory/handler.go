package inventory

import (
	"context"
	"errors"

	"vault-inventory/core/apperr"
	"vault-inventory/core/logger"
	"vault-inventory/feature/audit"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ActorHeader carries the id of the admin or service making the request.
const ActorHeader = "X-Actor-ID"

// Handler handles HTTP requests for the inventory.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the admin and fulfillment routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/inventory")

	group.Get("/stats", h.HandleGlobalStats)

	products := group.Group("/products/:productId")
	products.Post("/items", h.HandleAddItem)
	products.Post("/items/bulk", h.HandleBulkImport)
	products.Get("/items", h.HandleList)
	products.Get("/stats", h.HandleStats)
	products.Post("/reserve", h.HandleReserve)

	group.Delete("/items/:itemId", h.HandleDelete)
	items := group.Group("/items/:itemId")
	items.Patch("/status", h.HandleUpdateStatus)
	items.Post("/report", h.HandleReportIssue)
	items.Post("/sell", h.HandleMarkSold)
	items.Post("/release", h.HandleRelease)
	items.Get("/payload", h.HandleDeliveryPayload)

	group.Get("/orders/:orderId/items", h.HandleItemsByOrder)
}

// BulkImportRequest is the body of a bulk import.
type BulkImportRequest struct {
	Items          []NewItem `json:"items" validate:"required,min=1"`
	SkipDuplicates bool      `json:"skip_duplicates"`
}

// ReserveRequest is the body of a reservation.
type ReserveRequest struct {
	OrderID string `json:"order_id" validate:"required,max=64"`
}

// SellRequest is the body of a sale.
type SellRequest struct {
	OrderID   string          `json:"order_id" validate:"required,max=64"`
	SoldPrice decimal.Decimal `json:"sold_price"`
}

// StatusRequest is the body of a status change.
type StatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=available invalid"`
	Reason string `json:"reason" validate:"max=255"`
}

// ReportRequest is the body of a customer issue report.
type ReportRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

// HandleAddItem adds one item to a product.
// @Summary Add Item
// @Description Validates, encrypts and stores one item for the product.
// @Tags inventory
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param item body NewItem true "Item"
// @Success 201 {object} Item "Created item (masked)"
// @Failure 400 {object} map[string]string "Validation Error"
// @Failure 404 {object} map[string]string "Unknown Product"
// @Failure 409 {object} map[string]string "Duplicate Content"
// @Router /inventory/products/{productId}/items [post]
func (h *Handler) HandleAddItem(c *fiber.Ctx) error {
	var req NewItem
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperr.Validationf("invalid body: %v", err))
	}

	item, err := h.service.AddItem(h.ctx(c), c.Params("productId"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleBulkImport imports up to the configured maximum of items.
// @Summary Bulk Import
// @Description Imports items independently; failures are reported per index.
// @Tags inventory
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body BulkImportRequest true "Items"
// @Success 200 {object} ImportResult "Import result"
// @Failure 400 {object} map[string]string "Validation Error"
// @Failure 404 {object} map[string]string "Unknown Product"
// @Router /inventory/products/{productId}/items/bulk [post]
func (h *Handler) HandleBulkImport(c *fiber.Ctx) error {
	var req BulkImportRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	res, err := h.service.BulkImport(h.ctx(c), c.Params("productId"), req.Items, ImportOptions{SkipDuplicates: req.SkipDuplicates})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleList lists a product's items.
// @Summary List Items
// @Tags inventory
// @Produce json
// @Param productId path string true "Product ID"
// @Param status query string false "Status filter"
// @Param supplier query string false "Supplier filter"
// @Param sort query string false "uploaded_at, expires_at, cost, status, sold_at or supplier"
// @Param order query string false "asc or desc"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} Page "Items"
// @Router /inventory/products/{productId}/items [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	var q ListQuery
	if err := c.QueryParser(&q); err != nil {
		return h.fail(c, apperr.Validationf("invalid query: %v", err))
	}
	q.ProductID = c.Params("productId")

	page, err := h.service.List(c.Context(), q)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

// HandleStats returns a product's aggregate statistics.
// @Summary Product Stats
// @Tags inventory
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} Stats "Statistics"
// @Router /inventory/products/{productId}/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context(), c.Params("productId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stats)
}

// HandleGlobalStats returns statistics across all products.
// @Summary Global Stats
// @Tags inventory
// @Produce json
// @Success 200 {object} Stats "Statistics"
// @Router /inventory/stats [get]
func (h *Handler) HandleGlobalStats(c *fiber.Ctx) error {
	stats, err := h.service.GlobalStats(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stats)
}

// HandleReserve claims the oldest available item for an order.
// @Summary Reserve Item
// @Description Returns reserved=false when the product has no eligible item.
// @Tags fulfillment
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body ReserveRequest true "Order"
// @Success 200 {object} map[string]interface{} "Reservation"
// @Failure 503 {object} map[string]string "Contended, retry"
// @Router /inventory/products/{productId}/reserve [post]
func (h *Handler) HandleReserve(c *fiber.Ctx) error {
	var req ReserveRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	item, err := h.service.Reserve(h.ctx(c), c.Params("productId"), req.OrderID)
	if err != nil {
		if IsRetryable(err) {
			c.Set(fiber.HeaderRetryAfter, "1")
		}
		return h.fail(c, err)
	}
	if item == nil {
		return c.JSON(fiber.Map{"reserved": false})
	}
	return c.JSON(fiber.Map{"reserved": true, "item": item})
}

// HandleMarkSold finalises a sale.
// @Summary Mark Sold
// @Tags fulfillment
// @Accept json
// @Produce json
// @Param itemId path string true "Item ID"
// @Param request body SellRequest true "Sale"
// @Success 200 {object} Item "Sold item"
// @Failure 400 {object} map[string]string "Not reserved for this order"
// @Router /inventory/items/{itemId}/sell [post]
func (h *Handler) HandleMarkSold(c *fiber.Ctx) error {
	var req SellRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	item, err := h.service.MarkSold(h.ctx(c), c.Params("itemId"), req.OrderID, req.SoldPrice)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// HandleRelease returns a reserved item to stock.
// @Summary Release Reservation
// @Tags fulfillment
// @Produce json
// @Param itemId path string true "Item ID"
// @Success 200 {object} Item "Released item"
// @Router /inventory/items/{itemId}/release [post]
func (h *Handler) HandleRelease(c *fiber.Ctx) error {
	item, err := h.service.Release(h.ctx(c), c.Params("itemId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// HandleUpdateStatus toggles an item between available and invalid.
// @Summary Update Status
// @Tags inventory
// @Accept json
// @Produce json
// @Param itemId path string true "Item ID"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} Item "Updated item"
// @Router /inventory/items/{itemId}/status [patch]
func (h *Handler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	item, err := h.service.UpdateStatus(h.ctx(c), c.Params("itemId"), req.Status, req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// HandleDelete deletes an available item.
// @Summary Delete Item
// @Tags inventory
// @Param itemId path string true "Item ID"
// @Success 204 "Deleted"
// @Router /inventory/items/{itemId} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteItem(h.ctx(c), c.Params("itemId")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleReportIssue flags an item as reported by a customer.
// @Summary Report Issue
// @Tags inventory
// @Accept json
// @Produce json
// @Param itemId path string true "Item ID"
// @Param request body ReportRequest true "Note"
// @Success 200 {object} Item "Reported item"
// @Router /inventory/items/{itemId}/report [post]
func (h *Handler) HandleReportIssue(c *fiber.Ctx) error {
	var req ReportRequest
	if err := h.parse(c, &req); err != nil {
		return h.fail(c, err)
	}

	item, err := h.service.ReportIssue(h.ctx(c), c.Params("itemId"), req.Note)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(item)
}

// HandleDeliveryPayload decrypts a reserved or sold item for delivery.
// @Summary Delivery Payload
// @Tags fulfillment
// @Produce json
// @Param itemId path string true "Item ID"
// @Success 200 {object} Payload "Decrypted content"
// @Failure 422 {object} map[string]string "Item failed authentication"
// @Router /inventory/items/{itemId}/payload [get]
func (h *Handler) HandleDeliveryPayload(c *fiber.Ctx) error {
	p, err := h.service.DecryptForDelivery(h.ctx(c), c.Params("itemId"))
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(p)
}

// HandleItemsByOrder lists the items of an order.
// @Summary Items By Order
// @Tags fulfillment
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {array} Item "Items"
// @Router /inventory/orders/{orderId}/items [get]
func (h *Handler) HandleItemsByOrder(c *fiber.Ctx) error {
	items, err := h.service.GetItemsByOrder(c.Context(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(items)
}

// ctx carries the request's actor into the service for audit entries.
func (h *Handler) ctx(c *fiber.Ctx) context.Context {
	return audit.WithActor(c.UserContext(), c.Get(ActorHeader))
}

func (h *Handler) parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validationf("invalid body: %v", err)
	}
	if err := validate.Struct(out); err != nil {
		return apperr.Validationf("%v", err)
	}
	return nil
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := apperr.HTTPStatus(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError && !errors.Is(err, apperr.ErrRetryable) {
		l.Error("Inventory request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		l.Debug("Inventory request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
