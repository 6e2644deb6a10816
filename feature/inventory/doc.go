// Package inventory is the digital-inventory reservation engine.
//
// It stores sellable items (keys, accounts, codes, licenses, bundles and
// free-form content) encrypted at rest, hands each one to exactly one order
// and keeps the catalog's cached stock counters equal to the item records.
//
// Lifecycle:
//
//	available -> reserved -> sold
//	available -> expired
//	available <-> invalid
//	reserved  -> available   (release)
//
// Every mutation updates the item and the product counters in one gorm
// transaction. Reservation takes the oldest eligible row with
// SELECT ... FOR UPDATE SKIP LOCKED, so concurrent reservations across
// processes never claim the same item. Single-item mutations rely on
// conditional updates (WHERE status = ...) instead of locks.
//
// The reconciliation passes (expire, release, low-stock, resync) are exposed
// as reconcile.Pass values through Passes and scheduled by core/reconcile.
package inventory
