// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for the model
// hyper-parameters and every service the vectorizer can be wired into
// (HTTP server, PostgreSQL corpus source, Kafka pipeline, Redis cache).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ModelConfig holds the phrase-table and projection hyper-parameters.
//
// MinPhraseOccurrence is a fraction of the training documents when below 1
// and an absolute count otherwise. MaxNumPhrases and DownsampleTo use 0 for
// "no cap". Seed 0 seeds the sampler from the clock; Workers 0 uses
// GOMAXPROCS for Transform.
type ModelConfig struct {
	SmallestNgram       int     `yaml:"smallestNgram"`
	LargestNgram        int     `yaml:"largestNgram"`
	MinPhraseOccurrence float32 `yaml:"minPhraseOccurrence"`
	NumFeatures         int     `yaml:"numFeatures"`
	MaxNumPhrases       int     `yaml:"maxNumPhrases"`
	DownsampleTo        int     `yaml:"downsampleTo"`
	LiveEvaluationStep  int     `yaml:"liveEvaluationStep"`
	Seed                int64   `yaml:"seed"`
	Workers             int     `yaml:"workers"`
}

// DefaultModelConfig returns the stock hyper-parameters.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		SmallestNgram:       1,
		LargestNgram:        3,
		MinPhraseOccurrence: 1e-3,
		NumFeatures:         1000,
		MaxNumPhrases:       1_000_000,
		DownsampleTo:        100_000,
		LiveEvaluationStep:  10_000,
	}
}

// Validate reports the first hyper-parameter that cannot be fitted with.
func (m ModelConfig) Validate() error {
	switch {
	case m.SmallestNgram < 1:
		return fmt.Errorf("smallestNgram must be at least 1, got %d", m.SmallestNgram)
	case m.LargestNgram < m.SmallestNgram:
		return fmt.Errorf("largestNgram (%d) must not be below smallestNgram (%d)", m.LargestNgram, m.SmallestNgram)
	case m.MinPhraseOccurrence < 0:
		return fmt.Errorf("minPhraseOccurrence must not be negative, got %g", m.MinPhraseOccurrence)
	case m.NumFeatures < 1:
		return fmt.Errorf("numFeatures must be at least 1, got %d", m.NumFeatures)
	case m.MaxNumPhrases < 0:
		return fmt.Errorf("maxNumPhrases must not be negative, got %d", m.MaxNumPhrases)
	case m.DownsampleTo < 0:
		return fmt.Errorf("downsampleTo must not be negative, got %d", m.DownsampleTo)
	case m.LiveEvaluationStep < 1:
		return fmt.Errorf("liveEvaluationStep must be at least 1, got %d", m.LiveEvaluationStep)
	}
	return nil
}

// CorpusConfig describes where the labeled training corpus comes from.
type CorpusConfig struct {
	Path  string `yaml:"path"`
	Query string `yaml:"query"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxDocuments    int           `yaml:"maxDocuments"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Documents string `yaml:"documents"`
	Vectors   string `yaml:"vectors"`
}

// RedisConfig holds Redis connection and vector-cache parameters. An empty
// Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Model: DefaultModelConfig(),
		Corpus: CorpusConfig{
			Query: "SELECT text, label FROM training_documents",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxDocuments:    512,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vhash",
			User:            "vhash",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vhash-group",
			Topics: KafkaTopics{
				Documents: "vhash-documents",
				Vectors:   "vhash-vectors",
			},
		},
		Redis: RedisConfig{
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads VH_* environment variables and overrides the
// corresponding config fields. Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	setInt("VH_MODEL_SMALLEST_NGRAM", &cfg.Model.SmallestNgram)
	setInt("VH_MODEL_LARGEST_NGRAM", &cfg.Model.LargestNgram)
	if v := os.Getenv("VH_MODEL_MIN_PHRASE_OCCURRENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Model.MinPhraseOccurrence = float32(f)
		}
	}
	setInt("VH_MODEL_NUM_FEATURES", &cfg.Model.NumFeatures)
	setInt("VH_MODEL_MAX_NUM_PHRASES", &cfg.Model.MaxNumPhrases)
	setInt("VH_MODEL_DOWNSAMPLE_TO", &cfg.Model.DownsampleTo)
	setInt("VH_MODEL_LIVE_EVALUATION_STEP", &cfg.Model.LiveEvaluationStep)
	setInt("VH_MODEL_WORKERS", &cfg.Model.Workers)
	if v := os.Getenv("VH_MODEL_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Model.Seed = seed
		}
	}
	if v := os.Getenv("VH_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("VH_CORPUS_QUERY"); v != "" {
		cfg.Corpus.Query = v
	}
	setInt("VH_SERVER_PORT", &cfg.Server.Port)
	if v := os.Getenv("VH_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	setInt("VH_POSTGRES_PORT", &cfg.Postgres.Port)
	if v := os.Getenv("VH_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("VH_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("VH_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VH_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("VH_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	setInt("VH_METRICS_PORT", &cfg.Metrics.Port)
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
