package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/greenshelf/catalog/internal/catalog"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/internal/testkit"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	repo     *catalog.GormRepository
	jobs     *GormJobStore
	pipeline *Pipeline
	dir      string
}

func newFixture(t *testing.T, workers int) *fixture {
	t.Helper()
	db := testkit.NewDB(t)
	testkit.SeedCategories(t, db, "Electronics", "Garden")
	repo := catalog.NewGormRepository(db)
	jobs := NewGormJobStore(db)
	pipeline, err := NewPipeline(repo, jobs, workers, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pipeline.Release(5 * time.Second) })
	return &fixture{db: db, repo: repo, jobs: jobs, pipeline: pipeline, dir: t.TempDir()}
}

func (f *fixture) writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (f *fixture) productCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.Product{}).Count(&n).Error)
	return n
}

// runSync creates a job record and processes it on the calling goroutine.
func (f *fixture) runSync(t *testing.T, path string) *domain.ImportJob {
	t.Helper()
	ctx := context.Background()
	job := &domain.ImportJob{ID: time.Now().UnixNano(), Filename: filepath.Base(path), Status: domain.ImportReceived, CreatedAt: time.Now()}
	require.NoError(t, f.jobs.Create(ctx, job))
	f.pipeline.Process(ctx, job, path)
	stored, err := f.jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	return stored
}

func assertRemoved(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "upload %s should be removed", path)
}

func TestProcess_MixedRows(t *testing.T) {
	f := newFixture(t, 2)
	path := f.writeCSV(t, "mixed.csv", "name,categoryId,price,description,imageUrl\n"+
		"Phone,1,199.99,Smart phone,https://img/phone.png\n"+
		"Hose,2,22.00,,\n"+
		"Rake,2,12.50,Steel,\n"+
		",1,5.00,,\n"+
		"Widget,1,notanumber,,\n"+
		"Ghost,99,1.00,,\n")

	job := f.runSync(t, path)
	assert.Equal(t, domain.ImportCompleted, job.Status)
	assert.Equal(t, 6, job.TotalRows)
	assert.Equal(t, 3, job.Accepted)
	assert.Equal(t, 3, job.Rejected)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.FinishedAt)
	assert.Equal(t, int64(3), f.productCount(t))
	assertRemoved(t, path)

	rows, _, err := f.repo.ListProducts(context.Background(), domain.ProductQuery{Page: 1, Limit: 10, Search: "phone"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Smart phone", rows[0].Description)
	assert.True(t, decimal.RequireFromString("199.99").Equal(rows[0].Price))
}

func TestProcess_NonNumericPriceInsertsNothing(t *testing.T) {
	f := newFixture(t, 1)
	path := f.writeCSV(t, "widget.csv", "name,categoryId,price\nWidget,1,notanumber\n")

	job := f.runSync(t, path)
	assert.Equal(t, domain.ImportCompleted, job.Status)
	assert.Equal(t, 0, job.Accepted)
	assert.Equal(t, 1, job.Rejected)
	assert.Zero(t, f.productCount(t))
	assertRemoved(t, path)
}

func TestProcess_ShortRowsGetBlankOptionalColumns(t *testing.T) {
	f := newFixture(t, 1)
	path := f.writeCSV(t, "short.csv", "name,categoryId,price,description,imageUrl\n"+
		"Widget,1,9.99\n"+
		"Gadget,1,5.00,desc,url\n"+
		"Nameless,1\n")

	job := f.runSync(t, path)
	assert.Equal(t, domain.ImportCompleted, job.Status)
	assert.Equal(t, 3, job.TotalRows)
	assert.Equal(t, 2, job.Accepted)
	assert.Equal(t, 1, job.Rejected)

	rows, _, err := f.repo.ListProducts(context.Background(), domain.ProductQuery{Page: 1, Limit: 10, SortBy: "name"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Gadget", rows[0].Name)
	assert.Equal(t, "desc", rows[0].Description)
	assert.Equal(t, "Widget", rows[1].Name)
	assert.Empty(t, rows[1].Description)
	assert.Empty(t, rows[1].ImageURL)
}

func TestProcess_OutOfRangePriceRejectsOnlyThatRow(t *testing.T) {
	f := newFixture(t, 1)
	path := f.writeCSV(t, "prices.csv", "name,categoryId,price\n"+
		"Yacht,1,99999999999\n"+
		"Fraction,1,1.005\n"+
		"Top,1,9999999999.99\n")

	job := f.runSync(t, path)
	assert.Equal(t, domain.ImportCompleted, job.Status)
	assert.Equal(t, 1, job.Accepted)
	assert.Equal(t, 2, job.Rejected)
	assert.Equal(t, int64(1), f.productCount(t))
}

func TestProcess_ParseErrorFailsJob(t *testing.T) {
	f := newFixture(t, 1)
	path := f.writeCSV(t, "broken.csv", "name,categoryId,price\nGood,1,1.00\n\"Unclosed,1,2.00\n")

	job := f.runSync(t, path)
	assert.Equal(t, domain.ImportFailed, job.Status)
	assert.NotEmpty(t, job.Message)
	assert.Equal(t, 0, job.Accepted)
	assert.Zero(t, f.productCount(t))
	assertRemoved(t, path)
}

func TestProcess_MissingFileFailsJob(t *testing.T) {
	f := newFixture(t, 1)
	job := f.runSync(t, filepath.Join(f.dir, "missing.csv"))
	assert.Equal(t, domain.ImportFailed, job.Status)
	assert.Contains(t, job.Message, "open upload")
}

func TestProcess_EmptyFile(t *testing.T) {
	f := newFixture(t, 1)
	path := f.writeCSV(t, "empty.csv", "")

	job := f.runSync(t, path)
	assert.Equal(t, domain.ImportCompleted, job.Status)
	assert.Zero(t, job.TotalRows)
	assert.Equal(t, "empty file", job.Message)
	assertRemoved(t, path)
}

func TestSubmit_ProcessesInBackground(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	path := f.writeCSV(t, "bg.csv", "name,categoryId,price\nLamp,1,10\nChair,2,45.5\nBad,x,1\n")

	job, err := f.pipeline.Submit(ctx, Upload{Path: path, Filename: "../../bg.csv", UserID: 9})
	require.NoError(t, err)
	assert.Equal(t, domain.ImportReceived, job.Status)
	assert.Equal(t, "bg.csv", job.Filename)
	assert.Equal(t, int64(9), job.CreatedBy)

	require.Eventually(t, func() bool {
		got, err := f.pipeline.Job(ctx, job.ID)
		return err == nil && got.Done()
	}, 5*time.Second, 20*time.Millisecond)

	got, err := f.pipeline.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportCompleted, got.Status)
	assert.Equal(t, 2, got.Accepted)
	assert.Equal(t, 1, got.Rejected)
	assert.Equal(t, int64(2), f.productCount(t))
	assertRemoved(t, path)
}

func TestSubmit_ConcurrentImportsAreIndependent(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	ids := make([]int64, 0, 3)
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		path := f.writeCSV(t, name, "name,categoryId,price\nItem,1,1\nItem,1,1\n")
		job, err := f.pipeline.Submit(ctx, Upload{Path: path, Filename: name})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			got, err := f.pipeline.Job(ctx, id)
			if err != nil || !got.Done() {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(6), f.productCount(t))
}

func TestSubmit_AfterReleaseRemovesFile(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	require.NoError(t, f.pipeline.Release(time.Second))

	path := f.writeCSV(t, "late.csv", "name,categoryId,price\nLamp,1,10\n")
	job, err := f.pipeline.Submit(ctx, Upload{Path: path, Filename: "late.csv"})
	assert.True(t, errors.Is(err, ErrBusy))
	require.NotNil(t, job)
	assertRemoved(t, path)

	got, err := f.pipeline.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportFailed, got.Status)
}

func TestJob_NotFound(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.pipeline.Job(context.Background(), 12345)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFailInterruptedAndPurge(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, f.jobs.Create(ctx, &domain.ImportJob{ID: 1, Status: domain.ImportStreaming, CreatedAt: old}))
	require.NoError(t, f.jobs.Create(ctx, &domain.ImportJob{ID: 2, Status: domain.ImportCompleted, CreatedAt: old}))
	require.NoError(t, f.jobs.Create(ctx, &domain.ImportJob{ID: 3, Status: domain.ImportCompleted, CreatedAt: time.Now()}))

	require.NoError(t, f.pipeline.FailInterrupted(ctx))
	got, err := f.jobs.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportFailed, got.Status)
	assert.Equal(t, "interrupted by restart", got.Message)

	n, err := f.pipeline.PurgeJobs(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, err = f.jobs.Get(ctx, 3)
	assert.NoError(t, err)
}

func TestSweepUploads(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.csv")
	fresh := filepath.Join(dir, "fresh.csv")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))
	past := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	n, err := SweepUploads(dir, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assertRemoved(t, stale)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	n, err = SweepUploads(filepath.Join(dir, "nope"), time.Hour)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
