package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TestEnvironment(t *testing.T) {
	os.Setenv("GO_ENV", "test")
	os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("GO_ENV")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8081", cfg.CatalogBaseURL)
}

func TestLoad_RequiresDatabaseURLOutsideTests(t *testing.T) {
	os.Setenv("GO_ENV", "production")
	os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("GO_ENV")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ReadsEnvironmentVariables(t *testing.T) {
	os.Setenv("GO_ENV", "test")
	os.Setenv("PORT", "9090")
	os.Setenv("CATALOG_BASE_URL", "http://catalog.internal:8000")
	defer func() {
		os.Unsetenv("GO_ENV")
		os.Unsetenv("PORT")
		os.Unsetenv("CATALOG_BASE_URL")
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://catalog.internal:8000", cfg.CatalogBaseURL)
}

func TestGetEnv(t *testing.T) {
	os.Setenv("SOME_TEST_KEY", "value")
	defer os.Unsetenv("SOME_TEST_KEY")

	assert.Equal(t, "value", getEnv("SOME_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("SOME_MISSING_KEY", "fallback"))
}
