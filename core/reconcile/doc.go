// Package reconcile runs periodic reconciliation passes.
//
// A pass is a named unit of self-healing work (expire stale items, release
// abandoned reservations, resync counters, ...). The Scheduler runs each
// registered pass on its own ticker and on demand, with three guarantees:
//
//  1. A pass never overlaps itself. Concurrent triggers inside one process are
//     coalesced with singleflight and share the running pass's Report; across
//     processes a lease.Locker lease makes the loser skip with ErrPassBusy.
//  2. Passes are independent. A failing or panicking pass is logged and reported
//     but never stops other passes or its own next tick.
//  3. Every run yields a Report, kept as the pass's last report and handed to
//     registered observers (e.g. the storage archive).
//
// # Usage
//
//	s := reconcile.NewScheduler(logger, locker, time.Minute)
//	s.Register(expirePass, 5*time.Minute)
//	s.Register(resyncPass, time.Hour)
//	s.Start(ctx)
//	defer s.Wait()
//
//	report, err := s.RunPass(ctx, "expire")
//	reports := s.RunAll(ctx)
package reconcile
