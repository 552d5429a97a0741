package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate snapshots the loaded values and restores them after the test.
func isolate(t *testing.T) string {
	t.Helper()
	require.NoError(t, Load())

	mu.RLock()
	saved := make(map[string]string, len(values))
	for k, v := range values {
		saved[k] = v
	}
	mu.RUnlock()
	t.Cleanup(func() {
		mu.Lock()
		values = saved
		mu.Unlock()
	})

	for key := range defaultValues() {
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	return t.TempDir()
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLaterSourcesWin(t *testing.T) {
	dir := isolate(t)
	jsonPath := filepath.Join(dir, "app.json")
	yamlPath := filepath.Join(dir, "app.yaml")
	envPath := filepath.Join(dir, ".env")

	write(t, jsonPath, `{"app_port": 8080, "db_driver": "postgres", "realtime_workers": 3}`)
	write(t, yamlPath, "APP_PORT: \"9000\"\nJWT_TTL: 1h\nnested:\n  key: ignored\n")
	write(t, envPath, "# local\nJWT_SECRET=\"s3cret\"\nRATE_LIMIT_PER_MINUTE=50\nbroken line\n")
	t.Setenv("REALTIME_DRIVER", "REDIS")

	require.NoError(t, loadFromFiles(jsonPath, yamlPath, envPath))

	assert.Equal(t, "9000", AppPort())
	assert.Equal(t, "postgres", DatabaseDriver())
	assert.Equal(t, defaultPostgresDSN, DatabaseDSN())
	assert.Equal(t, time.Hour, JWTTTL())
	assert.Equal(t, "s3cret", JWTSecret())
	assert.Equal(t, 50, RateLimitPerMinute())
	assert.Equal(t, 3, RealtimeWorkers())
	assert.Equal(t, "redis", RealtimeDriver())
	assert.Empty(t, Get("NESTED", ""))
}

func TestMissingFilesUseDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, loadFromFiles(
		filepath.Join(dir, "none.json"), filepath.Join(dir, "none.yaml"), filepath.Join(dir, ".env"),
	))

	assert.Equal(t, defaultAppPort, AppPort())
	assert.Equal(t, "sqlite", DatabaseDriver())
	assert.Equal(t, defaultSQLiteDSN, DatabaseDSN())
	assert.Equal(t, defaultJWTTTL, JWTTTL())
	assert.Equal(t, "memory", RealtimeDriver())
	assert.Equal(t, []string{"*"}, CORSOrigins())
	assert.Empty(t, AMQPURL())
}

func TestMalformedJSONFails(t *testing.T) {
	dir := isolate(t)
	jsonPath := filepath.Join(dir, "app.json")
	write(t, jsonPath, `{"app_port":`)

	err := loadFromFiles(jsonPath, filepath.Join(dir, "none.yaml"), filepath.Join(dir, ".env"))
	assert.ErrorContains(t, err, "decode")
}

func TestSetAndFallbacks(t *testing.T) {
	isolate(t)

	Set("db_driver", "oracle")
	assert.Equal(t, "sqlite", DatabaseDriver())

	Set("JWT_TTL", "-5m")
	assert.Equal(t, defaultJWTTTL, JWTTTL())

	Set("REALTIME_WORKERS", "zero")
	assert.Equal(t, 8, RealtimeWorkers())

	Set("CORS_ORIGINS", " https://a.test , ,https://b.test")
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, CORSOrigins())

	Set("DATABASE_DSN", "file::memory:")
	assert.Equal(t, "file::memory:", DatabaseDSN())
}

func TestProductionRefusesDefaultSecret(t *testing.T) {
	isolate(t)

	require.NoError(t, Validate())

	Set("APP_ENV", "production")
	assert.ErrorIs(t, Validate(), ErrDefaultSecret)

	Set("JWT_SECRET", "a-real-secret")
	assert.NoError(t, Validate())
}

func TestTrustedProxiesList(t *testing.T) {
	isolate(t)
	assert.Empty(t, TrustedProxies())

	Set("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, TrustedProxies())
}
