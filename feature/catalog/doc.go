// Package catalog is the inventory's view of the product catalog.
//
// The catalog owns products; this package maps only the columns the inventory
// reads or writes: delivery type, fulfillment class, published flag, low-stock
// configuration and the cached stock counters (available, reserved, sold).
//
// Every Store method takes the caller's *gorm.DB so counter updates run inside
// the same transaction as the item change that caused them.
package catalog
