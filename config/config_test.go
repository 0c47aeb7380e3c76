package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	workdir := t.TempDir()
	t.Setenv("CATALOG_SYSTEM_WORKER_DIR", workdir)
	t.Setenv("CATALOG_AUTH_SECRET", "unit-test-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Web.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 3600, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
	assert.DirExists(t, cfg.GetUploadDir())
	assert.DirExists(t, cfg.GetDataDir())
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	workdir := t.TempDir()
	cfile := filepath.Join(workdir, "catalog.yml")
	content := `
system:
  workdir: ` + workdir + `
web:
  port: 8080
database:
  type: sqlite
auth:
  secret: from-file
importer:
  workers: 2
  batch_size: 50
catalog:
  default_categories: [Energy, Water]
`
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))

	t.Setenv("CATALOG_WEB_PORT", "9090")
	t.Setenv("CATALOG_DB_DEBUG", "true")

	cfg, err := LoadConfig(cfile)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, "from-file", cfg.Auth.Secret)
	assert.Equal(t, 2, cfg.Importer.Workers)
	assert.Equal(t, 50, cfg.Importer.BatchSize)
	assert.Equal(t, []string{"Energy", "Water"}, cfg.Catalog.DefaultCategories)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("CATALOG_SYSTEM_WORKER_DIR", t.TempDir())
	t.Setenv("CATALOG_AUTH_SECRET", "")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_IgnoresBadIntOverride(t *testing.T) {
	t.Setenv("CATALOG_SYSTEM_WORKER_DIR", t.TempDir())
	t.Setenv("CATALOG_AUTH_SECRET", "s")
	t.Setenv("CATALOG_WEB_PORT", "not-a-port")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig.Web.Port, cfg.Web.Port)
}
