package app

import (
	"github.com/greenshelf/catalog/config"
	"github.com/greenshelf/catalog/internal/auth"
	"github.com/greenshelf/catalog/internal/catalog"
	"github.com/greenshelf/catalog/internal/importer"
	"github.com/greenshelf/catalog/internal/report"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// CredentialProvider provides user registration, login and token checks
type CredentialProvider interface {
	Credentials() *auth.CredentialStore
}

// CatalogProvider provides the product and category repository
type CatalogProvider interface {
	Catalog() catalog.Repository
}

// ImportProvider provides the bulk import pipeline
type ImportProvider interface {
	Importer() *importer.Pipeline
}

// ReportProvider provides the spreadsheet exporter
type ReportProvider interface {
	Reporter() *report.Exporter
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	CredentialProvider
	CatalogProvider
	ImportProvider
	ReportProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
