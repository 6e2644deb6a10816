// Package audit records who changed what in the inventory.
//
// Entries are written after the transaction that caused them commits. A sink
// failure is logged by the caller and never rolls back the state change.
//
// Sinks:
//   - LoggerSink writes entries to zap.
//   - PublisherSink publishes entries to the audit topic through core/events.
//   - Multi fans out to several sinks and joins their errors.
package audit
