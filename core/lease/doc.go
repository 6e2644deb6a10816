// Package lease provides named, time-bounded exclusive leases.
//
// Reconciliation passes use a lease so the same pass never runs twice at once,
// even when several server processes share one database. The Redis locker uses
// SET NX PX and releases with a compare-and-delete script so a process can only
// release a lease it still owns. The local locker covers single-process runs.
//
// # Usage
//
//	release, ok, err := locker.TryAcquire(ctx, "expire", time.Minute)
//	if err != nil || !ok {
//	    return
//	}
//	defer release()
package lease
