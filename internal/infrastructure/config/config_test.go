package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 9094, cfg.GRPCPort)
	assert.Equal(t, ":8094", cfg.HTTPAddr())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "collections:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Empty(t, cfg.Ledger.Addr)
	assert.Equal(t, float64(1), cfg.Telemetry.SampleRatio)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GRPC_PORT", "7000")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("REDIS_LOCK_TTL", "45s")
	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://ops.example.org")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")

	cfg := Load()
	assert.Equal(t, ":7000", cfg.GRPCAddr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 45*time.Second, cfg.Redis.LockTTL)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Equal(t, []string{"https://ops.example.org"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.Outbox.BatchSize, "malformed values keep the default")
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
}

func validConfig() Config {
	cfg := Load()
	cfg.DB.Password = "pw"
	cfg.Auth.JWTSecret = "secret"
	cfg.Storage.AccessKey = "minio"
	cfg.Storage.SecretKey = "minio-secret"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"db password", func(c *Config) { c.DB.Password = "" }, "DB_PASSWORD"},
		{"jwt key", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"brokers", func(c *Config) { c.Kafka.Brokers = nil }, "KAFKA_BROKERS"},
		{"sasl credentials", func(c *Config) { c.Kafka.SASLMechanism = "PLAIN" }, "KAFKA_SASL_USERNAME"},
		{"storage keys", func(c *Config) { c.Storage.SecretKey = "" }, "S3_SECRET_KEY"},
		{"half tls", func(c *Config) { c.GRPCTLS.CertFile = "cert.pem" }, "GRPC_TLS_KEY_FILE"},
		{"port clash", func(c *Config) { c.HTTPPort = c.GRPCPort }, "must differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	t.Run("public key replaces secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Auth.JWTSecret = ""
		cfg.Auth.PublicKeyFile = "/keys/jwt.pub"
		assert.NoError(t, cfg.Validate())
	})
}
