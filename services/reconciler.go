package services

import (
	"context"
	"fmt"
	"time"

	"filevault/logger"
	"filevault/scheduler"
	"filevault/storage"
)

// ReconcileReport summarises one pass over the blob store.
type ReconcileReport struct {
	BlobsScanned   int
	OrphansRemoved int
	OrphansKept    int
	MissingBlobs   []string // file ids whose blob is gone
}

// Reconciler brings the blob store and the files table back in line after
// partial failures: unreferenced blobs are deleted, rows without bytes are
// reported.
type Reconciler struct {
	db    SQLExecutor
	blobs storage.BlobStore
	grace time.Duration
	now   func() time.Time
}

// NewReconciler builds a Reconciler. Blobs younger than grace are never
// removed, since an upload writes its blob before inserting the row.
func NewReconciler(db SQLExecutor, blobs storage.BlobStore, grace time.Duration) *Reconciler {
	return &Reconciler{db: db, blobs: blobs, grace: grace, now: time.Now}
}

type blobRef struct {
	ID   string `db:"id"`
	Path string `db:"path"`
}

// Reconcile runs a single pass.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	// Rows are read before blobs: an upload writes its blob before its row,
	// so every row seen here already has its blob on disk.
	var refs []blobRef
	if err := r.db.SelectContext(ctx, &refs, `SELECT id, path FROM files`); err != nil {
		return report, fmt.Errorf("list file paths: %w", err)
	}

	blobs, err := r.blobs.List()
	if err != nil {
		return report, fmt.Errorf("list blobs: %w", err)
	}
	report.BlobsScanned = len(blobs)

	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[ref.Path] = struct{}{}
	}

	present := make(map[string]struct{}, len(blobs))
	cutoff := r.now().Add(-r.grace)
	for _, blob := range blobs {
		present[blob.Name] = struct{}{}
		if _, ok := referenced[blob.Name]; ok {
			continue
		}
		if blob.ModTime.After(cutoff) {
			report.OrphansKept++
			continue
		}
		if err := r.blobs.Remove(blob.Name); err != nil {
			logger.WithFields(map[string]interface{}{
				"path":  blob.Name,
				"error": err.Error(),
			}).Warn("Failed to remove orphaned blob")
			continue
		}
		report.OrphansRemoved++
	}

	for _, ref := range refs {
		if _, ok := present[ref.Path]; !ok {
			report.MissingBlobs = append(report.MissingBlobs, ref.ID)
			logger.WithFields(map[string]interface{}{
				"file_id": ref.ID,
				"path":    ref.Path,
			}).Warn("File row references a missing blob")
		}
	}

	logger.WithFields(map[string]interface{}{
		"scanned":         report.BlobsScanned,
		"orphans_removed": report.OrphansRemoved,
		"orphans_kept":    report.OrphansKept,
		"missing_blobs":   len(report.MissingBlobs),
	}).Info("Blob reconciliation finished")

	return report, nil
}

// StartReconciler runs Reconcile once now and then every interval until ctx
// is cancelled or the returned scheduler is stopped.
func (r *Reconciler) StartReconciler(ctx context.Context, interval time.Duration) *scheduler.Scheduler {
	s := scheduler.New("blob-reconcile", interval, func(ctx context.Context) error {
		_, err := r.Reconcile(ctx)
		return err
	})
	s.Start(ctx)
	return s
}
