// Package config loads collectionsd settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	// OutboxTopic receives the service's domain events.
	OutboxTopic string
	// LedgerTopic carries the lending service's loan events.
	LedgerTopic   string
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	TLS           bool
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	LockTTL   time.Duration
	KeyPrefix string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

type LedgerConfig struct {
	// Addr of the lending service's ledger API. Empty selects the
	// in-process stub.
	Addr     string
	Timeout  time.Duration
	CAFile   string
	CertFile string
	KeyFile  string
}

type AuthConfig struct {
	JWTSecret     string
	PublicKeyFile string
	Issuer        string
}

type TLSConfig struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

type OutboxConfig struct {
	Interval  time.Duration
	BatchSize int
}

type TelemetryConfig struct {
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRatio  float64
}

type Config struct {
	ServiceName    string
	GRPCPort       int
	HTTPPort       int
	GRPCReflection bool
	GRPCTLS        TLSConfig
	CORSOrigins    []string
	DB             DatabaseConfig
	Kafka          KafkaConfig
	Redis          RedisConfig
	Storage        StorageConfig
	Ledger         LedgerConfig
	Auth           AuthConfig
	Outbox         OutboxConfig
	Telemetry      TelemetryConfig
	ShutdownGrace  time.Duration
}

// Load reads the configuration. Unset or malformed values fall back to
// their defaults.
func Load() Config {
	return Config{
		ServiceName:    getEnv("SERVICE_NAME", "collections-service"),
		GRPCPort:       getEnvInt("GRPC_PORT", 9094),
		HTTPPort:       getEnvInt("HTTP_PORT", 8094),
		GRPCReflection: getEnvBool("GRPC_REFLECTION", false),
		GRPCTLS: TLSConfig{
			CertFile:     getEnv("GRPC_TLS_CERT_FILE", ""),
			KeyFile:      getEnv("GRPC_TLS_KEY_FILE", ""),
			ClientCAFile: getEnv("GRPC_TLS_CLIENT_CA_FILE", ""),
		},
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "bib"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "bib_collections"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 20),
			MinConns: getEnvInt("DB_MIN_CONNS", 2),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "collections-service"),
			OutboxTopic:   getEnv("KAFKA_OUTBOX_TOPIC", "bib.collections.events"),
			LedgerTopic:   getEnv("KAFKA_LEDGER_TOPIC", "bib.lending.events"),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			TLS:           getEnvBool("KAFKA_TLS", false),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			LockTTL:   getEnvDuration("REDIS_LOCK_TTL", 30*time.Second),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "collections:"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "bib-reports"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Prefix:    getEnv("S3_PREFIX", "collections/"),
			UseSSL:    getEnvBool("S3_USE_SSL", true),
		},
		Ledger: LedgerConfig{
			Addr:     getEnv("LEDGER_GRPC_ADDR", ""),
			Timeout:  getEnvDuration("LEDGER_TIMEOUT", 5*time.Second),
			CAFile:   getEnv("LEDGER_TLS_CA_FILE", ""),
			CertFile: getEnv("LEDGER_TLS_CERT_FILE", ""),
			KeyFile:  getEnv("LEDGER_TLS_KEY_FILE", ""),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			PublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:        getEnv("JWT_ISSUER", "bib-auth"),
		},
		Outbox: OutboxConfig{
			Interval:  getEnvDuration("OUTBOX_INTERVAL", time.Second),
			BatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 100),
		},
		Telemetry: TelemetryConfig{
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "json"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio:  getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
		ShutdownGrace: getEnvDuration("SHUTDOWN_GRACE", 15*time.Second),
	}
}

// Validate reports every missing secret or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.Auth.JWTSecret == "" && c.Auth.PublicKeyFile == "" {
		errs = append(errs, errors.New("JWT_SECRET or JWT_PUBLIC_KEY_FILE is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if c.Kafka.SASLMechanism != "" && (c.Kafka.SASLUsername == "" || c.Kafka.SASLPassword == "") {
		errs = append(errs, errors.New("KAFKA_SASL_USERNAME and KAFKA_SASL_PASSWORD are required with KAFKA_SASL_MECHANISM"))
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		errs = append(errs, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY are required"))
	}
	if (c.GRPCTLS.CertFile == "") != (c.GRPCTLS.KeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	if c.GRPCPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("GRPC_PORT and HTTP_PORT must differ (both %d)", c.GRPCPort))
	}
	return errors.Join(errs...)
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
