// Package importer turns uploaded CSV files into catalog products in the background.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/greenshelf/catalog/internal/catalog"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/pkg/common"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrBusy is returned by Submit when every worker is occupied.
var ErrBusy = errors.New("import queue is full")

// Upload is a file already saved to disk, waiting to be imported.
type Upload struct {
	Path     string
	Filename string
	UserID   int64
}

type Pipeline struct {
	repo      catalog.Repository
	jobs      JobStore
	pool      *ants.Pool
	batchSize int
	now       func() time.Time
}

func NewPipeline(repo catalog.Repository, jobs JobStore, workers, batchSize int) (*Pipeline, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true), ants.WithPanicHandler(func(v interface{}) {
		zap.S().Errorf("import worker panic: %v", v)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "create import pool")
	}
	return &Pipeline{
		repo:      repo,
		jobs:      jobs,
		pool:      pool,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

// Submit records a received job and queues it. It does not wait for parsing.
// The file at up.Path belongs to the pipeline from here on.
func (p *Pipeline) Submit(ctx context.Context, up Upload) (*domain.ImportJob, error) {
	job := &domain.ImportJob{
		ID:        common.UUIDint64(),
		Filename:  filepath.Base(up.Filename),
		Status:    domain.ImportReceived,
		CreatedBy: up.UserID,
		CreatedAt: p.now(),
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		removeFile(up.Path)
		return nil, err
	}

	work := *job
	err := p.pool.Submit(func() {
		p.Process(context.Background(), &work, up.Path)
	})
	if err != nil {
		removeFile(up.Path)
		p.finish(context.Background(), job, domain.ImportFailed, "import queue is full")
		if errors.Is(err, ants.ErrPoolOverload) || errors.Is(err, ants.ErrPoolClosed) {
			return job, ErrBusy
		}
		return job, errors.Wrap(err, "queue import job")
	}
	zap.S().Infof("import job %d queued for %s", job.ID, job.Filename)
	return job, nil
}

// Process streams the file at path into the catalog and records the outcome on job.
// The file is removed before Process returns.
func (p *Pipeline) Process(ctx context.Context, job *domain.ImportJob, path string) {
	defer removeFile(path)

	started := p.now()
	job.Status = domain.ImportStreaming
	job.StartedAt = &started
	if err := p.jobs.Save(ctx, job); err != nil {
		zap.S().Errorf("import job %d: %s", job.ID, err)
	}

	known, err := p.repo.CategoryIDs(ctx)
	if err != nil {
		p.fail(ctx, job, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		p.fail(ctx, job, errors.Wrap(err, "open upload"))
		return
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		p.finish(ctx, job, domain.ImportCompleted, "empty file")
		return
	}

	accepted := make([]domain.Product, 0, 64)
	err = gocsv.UnmarshalDecoderToCallback(newRowDecoder(f), func(row domain.ImportRow) {
		job.TotalRows++
		product, err := ParseRow(row, known)
		if err != nil {
			job.Rejected++
			zap.S().Debugf("import job %d: row %d rejected: %s", job.ID, job.TotalRows+1, err)
			return
		}
		accepted = append(accepted, *product)
	})
	if err != nil && !errors.Is(err, io.EOF) {
		p.fail(ctx, job, errors.Wrap(err, "parse csv"))
		return
	}

	if err := p.repo.BulkCreateProducts(ctx, accepted, p.batchSize); err != nil {
		p.fail(ctx, job, err)
		return
	}
	job.Accepted = len(accepted)
	zap.S().Infof("import job %d: %d rows accepted, %d rejected", job.ID, job.Accepted, job.Rejected)
	p.finish(ctx, job, domain.ImportCompleted, "")
}

func (p *Pipeline) fail(ctx context.Context, job *domain.ImportJob, err error) {
	zap.S().Errorf("import job %d failed: %s", job.ID, err)
	job.Accepted = 0
	p.finish(ctx, job, domain.ImportFailed, err.Error())
}

func (p *Pipeline) finish(ctx context.Context, job *domain.ImportJob, status, message string) {
	finished := p.now()
	job.Status = status
	job.Message = message
	job.FinishedAt = &finished
	if err := p.jobs.Save(ctx, job); err != nil {
		zap.S().Errorf("import job %d: %s", job.ID, err)
	}
}

// Job returns the status record of an import.
func (p *Pipeline) Job(ctx context.Context, id int64) (*domain.ImportJob, error) {
	return p.jobs.Get(ctx, id)
}

// Running reports how many imports are being processed right now.
func (p *Pipeline) Running() int {
	return p.pool.Running()
}

// Release stops accepting work and waits up to timeout for running imports.
func (p *Pipeline) Release(timeout time.Duration) error {
	return p.pool.ReleaseTimeout(timeout)
}

// newRowDecoder accepts rows shorter than the header; missing trailing
// columns decode as blank fields.
func newRowDecoder(r io.Reader) gocsv.SimpleDecoder {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	return gocsv.NewSimpleDecoderFromCSVReader(reader)
}

func removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		zap.S().Warnf("remove upload %s: %s", path, err)
	}
}
