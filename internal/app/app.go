package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/greenshelf/catalog/config"
	"github.com/greenshelf/catalog/internal/auth"
	"github.com/greenshelf/catalog/internal/catalog"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/internal/importer"
	"github.com/greenshelf/catalog/internal/report"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// ReleaseTimeout bounds how long shutdown waits for running imports.
const ReleaseTimeout = 30 * time.Second

type Application struct {
	appConfig   *config.AppConfig
	gormDB      *gorm.DB
	sched       *cron.Cron
	credentials *auth.CredentialStore
	catalog     catalog.Repository
	importer    *importer.Pipeline
	reporter    *report.Exporter
}

// Ensure Application implements all interfaces
var (
	_ DBProvider         = (*Application)(nil)
	_ ConfigProvider     = (*Application)(nil)
	_ SchedulerProvider  = (*Application)(nil)
	_ CredentialProvider = (*Application)(nil)
	_ CatalogProvider    = (*Application)(nil)
	_ ImportProvider     = (*Application)(nil)
	_ ReportProvider     = (*Application)(nil)
	_ AppContext         = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Credentials() *auth.CredentialStore {
	return a.credentials
}

func (a *Application) Catalog() catalog.Repository {
	return a.catalog
}

func (a *Application) Importer() *importer.Pipeline {
	return a.importer
}

func (a *Application) Reporter() *report.Exporter {
	return a.reporter
}

// OverrideDB replaces the application's database handle and rebuilds the
// services on top of it (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) error {
	if a.importer != nil {
		_ = a.importer.Release(time.Second)
	}
	a.gormDB = db
	return a.buildServices()
}

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Errorf("timezone config error: %s", err)
	} else {
		time.Local = loc
	}

	initLogger(cfg.Logger)

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB, err = getDatabase(cfg.Database, cfg.System.Workdir)
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		return errors.Wrap(err, "database migration")
	}
	if err := a.buildServices(); err != nil {
		return err
	}

	a.checkCategories()
	if err := a.importer.FailInterrupted(context.Background()); err != nil {
		zap.S().Errorf("close interrupted imports: %s", err)
	}

	a.initJob()
	return nil
}

func initLogger(cfg config.LogConfig) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

func (a *Application) buildServices() error {
	cfg := a.appConfig
	a.catalog = catalog.NewGormRepository(a.gormDB)
	a.credentials = auth.NewCredentialStore(
		auth.NewGormUserRepository(a.gormDB),
		cfg.Auth.Secret,
		cfg.TokenTTL(),
		cfg.Auth.BcryptCost,
	)
	pipeline, err := importer.NewPipeline(
		a.catalog,
		importer.NewGormJobStore(a.gormDB),
		cfg.Importer.Workers,
		cfg.Importer.BatchSize,
	)
	if err != nil {
		return err
	}
	a.importer = pipeline
	a.reporter = report.NewExporter(a.catalog)
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.importer != nil {
		if err := a.importer.Release(ReleaseTimeout); err != nil {
			zap.S().Warnf("import workers still running at shutdown: %s", err)
		}
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
