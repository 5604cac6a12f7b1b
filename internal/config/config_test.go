package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestDefault_IsInMemory(t *testing.T) {
	cfg := Default()

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, FilesMemory, cfg.Files.Backend)
	assert.Equal(t, LocalMemory, cfg.Local.Backend)
	assert.Equal(t, 3, cfg.Orders.SaveAttempts)
	assert.Equal(t, 5*time.Second, cfg.Orders.SaveTimeout)
	assert.False(t, cfg.NeedsFirebase())
}

func TestValidateAuth_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.ErrorIs(t, cfg.ValidateAuth(), ErrJWTSecretMissing)
}

func TestValidateAuth_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.ErrorIs(t, cfg.ValidateAuth(), ErrJWTSecretTooShort)
}

func TestValidateAuth_AcceptsLongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.NoError(t, cfg.ValidateAuth())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.yaml")
	yamlDoc := `
http:
  addr: ":9090"
  shutdown_timeout: 10s
store:
  backend: postgres
kafka:
  brokers: ["kafka-1:9092"]
cart:
  mirror_workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("STOREFRONT_STORE", "")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8, cfg.Cart.MirrorWorkers)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STOREFRONT_STORE", "cassandra")

	_, err := Load("")

	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestLoad_BadIntEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("REDIS_DB", "first")

	_, err := Load("")

	assert.ErrorIs(t, err, ErrIncorrectEnvVariable)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNeedsFirebase(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   bool
	}{
		{"firestore store", func(c *Config) { c.Store.Backend = StoreFirestore }, true},
		{"gcs files", func(c *Config) { c.Files.Backend = FilesGCS }, true},
		{"sso", func(c *Config) { c.Firebase.EnableSSO = true }, true},
		{"postgres and minio", func(c *Config) {
			c.Store.Backend = StorePostgres
			c.Files.Backend = FilesMinIO
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Equal(t, tt.want, cfg.NeedsFirebase())
		})
	}
}
