// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. The inventory uses object storage for two
// things: reading bulk import files uploaded by suppliers, and archiving JSON
// reports produced by reconciliation passes.
//
// # Client Interface
//
// The Client interface abstracts the underlying provider so tests can use the
// testify mock in core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	data, err := storage.ReadObject(ctx, client, cfg.Storage.Bucket, "imports/batch.json", 8<<20)
package storage
