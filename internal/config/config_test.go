package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_USER", "postgres")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("DATABASE_NAME", "coffees")
	t.Setenv("DATABASE_SYNCHRONIZE", "false")
	t.Setenv("API_KEY", "k3y")
	t.Setenv("ENVIRONMENT", "development")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.False(t, cfg.DBSynchronize)
	assert.Equal(t, "k3y", cfg.APIKey)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_KEY", "")
	t.Setenv("DATABASE_HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingValue)
	assert.Contains(t, err.Error(), "API_KEY")
	assert.Contains(t, err.Error(), "DATABASE_HOST")
}

func TestLoadKeepsAPIKeyVerbatim(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_KEY", " open sesame ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, " open sesame ", cfg.APIKey)

	t.Setenv("API_KEY", "   ")
	_, err = Load()
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestLoadSynchronizeIsRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_SYNCHRONIZE", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestLoadMalformedValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_PORT", "five")
	t.Setenv("DATABASE_SYNCHRONIZE", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "DATABASE_PORT")
	assert.Contains(t, err.Error(), "DATABASE_SYNCHRONIZE")
}

func TestLoadRejectsSynchronizeInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_SYNCHRONIZE", "true")

	_, err := Load()
	assert.ErrorIs(t, err, ErrSyncInProduction)
}

func TestValidateSQLiteSkipsNetworkCredentials(t *testing.T) {
	cfg := Config{
		DBType: "sqlite",
		DBName: "coffee.db",
		APIKey: "k",
		Port:   3000,
		DBPort: 5432,
	}
	assert.NoError(t, cfg.Validate())
}

func TestCatalogConfigDefaultsWithoutFile(t *testing.T) {
	holder, err := NewCatalogConfigHolder(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalogConfig(), holder.Get())
}

func TestValidateCatalogConfig(t *testing.T) {
	assert.Error(t, validateCatalogConfig(CatalogConfig{DefaultLimit: 0, MaxLimit: 10}))
	assert.Error(t, validateCatalogConfig(CatalogConfig{DefaultLimit: 20, MaxLimit: 10}))
	assert.NoError(t, validateCatalogConfig(CatalogConfig{DefaultLimit: 10, MaxLimit: 10}))
}
