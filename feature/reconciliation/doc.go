// Package reconciliation exposes the reconciliation scheduler over HTTP.
//
// Routes:
//
//	GET  /reconciliation/passes            registered pass names
//	POST /reconciliation/passes/:name/run  run one pass now
//	POST /reconciliation/run               run every pass
//	GET  /reconciliation/reports           last report of each pass
//	GET  /reconciliation/archive           archived reports in object storage
//
// When object storage is enabled, the Archiver stores every completed report
// as JSON under reports/<pass>/.
package reconciliation
