package importer

import (
	"context"
	"time"

	"github.com/greenshelf/catalog/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// JobStore persists import job status records.
type JobStore interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	Save(ctx context.Context, job *domain.ImportJob) error
	Get(ctx context.Context, id int64) (*domain.ImportJob, error)
	// FailUnfinished marks every job still received or streaming as failed
	FailUnfinished(ctx context.Context, message string, at time.Time) (int64, error)
	// PurgeFinished deletes finished jobs created before the cutoff
	PurgeFinished(ctx context.Context, before time.Time) (int64, error)
}

// GormJobStore is the GORM implementation of JobStore
type GormJobStore struct {
	db *gorm.DB
}

func NewGormJobStore(db *gorm.DB) *GormJobStore {
	return &GormJobStore{db: db}
}

func (s *GormJobStore) Create(ctx context.Context, job *domain.ImportJob) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(job).Error, "create import job")
}

func (s *GormJobStore) Save(ctx context.Context, job *domain.ImportJob) error {
	return errors.Wrapf(s.db.WithContext(ctx).Save(job).Error, "save import job %d", job.ID)
}

func (s *GormJobStore) Get(ctx context.Context, id int64) (*domain.ImportJob, error) {
	var job domain.ImportJob
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(domain.ErrNotFound, "import job %d", id)
	} else if err != nil {
		return nil, errors.Wrapf(err, "query import job %d", id)
	}
	return &job, nil
}

func (s *GormJobStore) FailUnfinished(ctx context.Context, message string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&domain.ImportJob{}).
		Where("status IN ?", []string{domain.ImportReceived, domain.ImportStreaming}).
		Updates(map[string]interface{}{
			"status":      domain.ImportFailed,
			"message":     message,
			"finished_at": at,
		})
	return res.RowsAffected, errors.Wrap(res.Error, "fail unfinished import jobs")
}

func (s *GormJobStore) PurgeFinished(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []string{domain.ImportCompleted, domain.ImportFailed}, before).
		Delete(&domain.ImportJob{})
	return res.RowsAffected, errors.Wrap(res.Error, "purge import jobs")
}
