package reconciliation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"vault-inventory/core/reconcile"
	"vault-inventory/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const (
	reportPrefix     = "reports/"
	maxReportSize    = 1 << 20
	archiveTimeout   = 10 * time.Second
	defaultListLimit = 50
)

// ArchivedReport describes a stored report object.
type ArchivedReport struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archiver stores reconciliation reports in object storage.
type Archiver struct {
	client storage.Client
	bucket string
	logger *zap.Logger
	retain int
}

// NewArchiver creates an archiver writing to bucket.
func NewArchiver(client storage.Client, bucket string, logger *zap.Logger) *Archiver {
	return &Archiver{client: client, bucket: bucket, logger: logger}
}

// SetRetention keeps at most n reports per pass after each archive; n <= 0
// keeps everything.
func (a *Archiver) SetRetention(n int) {
	a.retain = n
}

// Observe archives r. It matches the scheduler's OnReport callback; skipped
// runs are not stored.
func (a *Archiver) Observe(r reconcile.Report) {
	if r.Skipped {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if _, err := a.Archive(ctx, r); err != nil {
		a.logger.Warn("Failed to archive reconciliation report", zap.String("pass", r.Pass), zap.Error(err))
		return
	}
	if a.retain > 0 {
		if _, err := a.Prune(ctx, r.Pass, a.retain); err != nil {
			a.logger.Warn("Failed to prune archived reports", zap.String("pass", r.Pass), zap.Error(err))
		}
	}
}

// Archive uploads r and returns its object key.
func (a *Archiver) Archive(ctx context.Context, r reconcile.Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := reportKey(r)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return key, nil
}

// List returns the newest archived reports, optionally for one pass.
func (a *Archiver) List(ctx context.Context, pass string, limit int) ([]ArchivedReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	out, err := a.listAll(ctx, pass)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prune deletes all but the newest keep reports of pass and returns how many
// were removed.
func (a *Archiver) Prune(ctx context.Context, pass string, keep int) (int, error) {
	if pass == "" {
		return 0, fmt.Errorf("pass is required")
	}
	all, err := a.listAll(ctx, pass)
	if err != nil {
		return 0, err
	}
	if len(all) <= keep {
		return 0, nil
	}

	removed := 0
	for _, old := range all[keep:] {
		if err := a.client.RemoveObject(ctx, a.bucket, old.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("failed to remove report %s: %w", old.Key, err)
		}
		removed++
	}
	return removed, nil
}

// listAll returns every archived report of pass, newest first.
func (a *Archiver) listAll(ctx context.Context, pass string) ([]ArchivedReport, error) {
	prefix := reportPrefix
	if pass != "" {
		prefix = reportPrefix + pass + "/"
	}

	var out []ArchivedReport
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		out = append(out, ArchivedReport{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}

	// Keys embed a sortable timestamp.
	sort.Slice(out, func(i, j int) bool { return path.Base(out[i].Key) > path.Base(out[j].Key) })
	return out, nil
}

// Get loads one archived report.
func (a *Archiver) Get(ctx context.Context, key string) (*reconcile.Report, error) {
	if !strings.HasPrefix(key, reportPrefix) {
		return nil, fmt.Errorf("not a report key: %s", key)
	}
	data, err := storage.ReadObject(ctx, a.client, a.bucket, key, maxReportSize)
	if err != nil {
		return nil, err
	}
	var r reconcile.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", key, err)
	}
	return &r, nil
}

func reportKey(r reconcile.Report) string {
	at := r.StartedAt
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("%s%s/%s.json", reportPrefix, r.Pass, at.UTC().Format("20060102T150405.000000000Z"))
}
