package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig database config
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig system config
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server config
type WebConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	MaxUploadMB int      `yaml:"max_upload_mb"`
	CorsOrigins []string `yaml:"cors_origins"`
}

// AuthConfig credential store config
type AuthConfig struct {
	Secret     string `yaml:"secret"`
	TokenTTL   int    `yaml:"token_ttl"` // seconds
	BcryptCost int    `yaml:"bcrypt_cost"`
}

// ImporterConfig bulk import config
type ImporterConfig struct {
	Workers       int `yaml:"workers"`
	BatchSize     int `yaml:"batch_size"`
	RetentionDays int `yaml:"retention_days"`
}

// CatalogConfig catalog defaults
type CatalogConfig struct {
	DefaultCategories []string `yaml:"default_categories"`
}

// LogConfig logging config
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system"`
	Web      WebConfig      `yaml:"web"`
	Database DBConfig       `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Importer ImporterConfig `yaml:"importer"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Logger   LogConfig      `yaml:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// GetUploadDir is where bulk-import files wait until their job finishes.
func (c *AppConfig) GetUploadDir() string {
	return path.Join(c.System.Workdir, "uploads")
}

func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Second
}

func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Web.MaxUploadMB) << 20
}

func (c *AppConfig) initDirs() error {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir(), c.GetUploadDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create dir %s", dir)
		}
	}
	return nil
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "GreenShelf",
		Location: "UTC",
		Workdir:  "/var/greenshelf",
		Debug:    false,
	},
	Web: WebConfig{
		Host:        "0.0.0.0",
		Port:        3001,
		MaxUploadMB: 32,
		CorsOrigins: []string{"*"},
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "catalog",
		User:     "postgres",
		Passwd:   "postgres",
		SSLMode:  "disable",
		MaxConn:  50,
		IdleConn: 10,
		Debug:    false,
	},
	Auth: AuthConfig{
		TokenTTL:   3600,
		BcryptCost: 10,
	},
	Importer: ImporterConfig{
		Workers:       4,
		BatchSize:     500,
		RetentionDays: 30,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/greenshelf/logs/catalog.log",
	},
}

// LoadConfig reads the yaml file (if any), then applies .env and CATALOG_*
// environment overrides. An empty cfile yields the defaults.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	cfg.Web.CorsOrigins = append([]string(nil), DefaultAppConfig.Web.CorsOrigins...)

	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	applyEnv(&cfg)

	if cfg.Auth.Secret == "" {
		return nil, errors.New("auth.secret (CATALOG_AUTH_SECRET) is required")
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = DefaultAppConfig.Auth.TokenTTL
	}
	if cfg.Importer.Workers <= 0 {
		cfg.Importer.Workers = DefaultAppConfig.Importer.Workers
	}
	if cfg.Importer.BatchSize <= 0 {
		cfg.Importer.BatchSize = DefaultAppConfig.Importer.BatchSize
	}
	if err := cfg.initDirs(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(name); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("CATALOG_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("CATALOG_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("CATALOG_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("CATALOG_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("CATALOG_WEB_PORT", &cfg.Web.Port)
	setEnvIntValue("CATALOG_WEB_MAX_UPLOAD_MB", &cfg.Web.MaxUploadMB)
	if v := os.Getenv("CATALOG_WEB_CORS_ORIGINS"); v != "" {
		cfg.Web.CorsOrigins = strings.Split(v, ",")
	}

	setEnvValue("CATALOG_DB_TYPE", &cfg.Database.Type)
	setEnvValue("CATALOG_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("CATALOG_DB_PORT", &cfg.Database.Port)
	setEnvValue("CATALOG_DB_NAME", &cfg.Database.Name)
	setEnvValue("CATALOG_DB_USER", &cfg.Database.User)
	setEnvValue("CATALOG_DB_PWD", &cfg.Database.Passwd)
	setEnvValue("CATALOG_DB_SSL_MODE", &cfg.Database.SSLMode)
	setEnvBoolValue("CATALOG_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("CATALOG_AUTH_SECRET", &cfg.Auth.Secret)
	setEnvIntValue("CATALOG_AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	setEnvIntValue("CATALOG_AUTH_BCRYPT_COST", &cfg.Auth.BcryptCost)

	setEnvIntValue("CATALOG_IMPORT_WORKERS", &cfg.Importer.Workers)
	setEnvIntValue("CATALOG_IMPORT_BATCH_SIZE", &cfg.Importer.BatchSize)

	setEnvValue("CATALOG_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("CATALOG_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("CATALOG_LOGGER_FILENAME", &cfg.Logger.Filename)
}
