package app

import (
	"context"
	"time"

	"github.com/greenshelf/catalog/internal/importer"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleUploadAge is how long an upload file may sit on disk before the
// sweep treats it as abandoned.
const StaleUploadAge = 6 * time.Hour

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	a.sched = cron.New(cron.WithLocation(a.cronLocation()), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@hourly", a.SchedSweepUploads)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", a.SchedPurgeImportJobs)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// cronLocation falls back to the process local zone when system.location
// does not name a known zone.
func (a *Application) cronLocation() *time.Location {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		zap.S().Warnf("unknown location %q, scheduling in %s", a.appConfig.System.Location, time.Local)
		return time.Local
	}
	return loc
}

// SchedSweepUploads removes upload files left behind by a crashed process
func (a *Application) SchedSweepUploads() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	n, err := importer.SweepUploads(a.appConfig.GetUploadDir(), StaleUploadAge)
	if err != nil {
		zap.S().Errorf("sweep uploads: %s", err)
		return
	}
	if n > 0 {
		zap.S().Infof("removed %d stale upload files", n)
	}
}

// SchedPurgeImportJobs drops finished import records past retention
func (a *Application) SchedPurgeImportJobs() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	days := a.appConfig.Importer.RetentionDays
	if days <= 0 {
		return
	}
	n, err := a.importer.PurgeJobs(context.Background(), time.Duration(days)*24*time.Hour)
	if err != nil {
		zap.S().Errorf("purge import jobs: %s", err)
		return
	}
	if n > 0 {
		zap.S().Infof("purged %d import job records", n)
	}
}
