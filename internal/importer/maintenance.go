package importer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FailInterrupted closes out jobs left unfinished by a previous process.
func (p *Pipeline) FailInterrupted(ctx context.Context) error {
	n, err := p.jobs.FailUnfinished(ctx, "interrupted by restart", p.now())
	if err != nil {
		return err
	}
	if n > 0 {
		zap.S().Warnf("marked %d interrupted import jobs as failed", n)
	}
	return nil
}

// PurgeJobs deletes finished job records older than retention.
func (p *Pipeline) PurgeJobs(ctx context.Context, retention time.Duration) (int64, error) {
	return p.jobs.PurgeFinished(ctx, p.now().Add(-retention))
}

// SweepUploads removes files in dir untouched for longer than maxAge. Only
// files abandoned by a crashed process can be that old.
func SweepUploads(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "read upload dir %s", dir)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			zap.S().Warnf("sweep upload %s: %s", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
