package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load("")
	req.NoError(err)
	req.Equal(DefaultModelConfig(), cfg.Model)
	req.Equal(1, cfg.Model.SmallestNgram)
	req.Equal(3, cfg.Model.LargestNgram)
	req.Equal(float32(1e-3), cfg.Model.MinPhraseOccurrence)
	req.Equal(1000, cfg.Model.NumFeatures)
	req.Equal(1_000_000, cfg.Model.MaxNumPhrases)
	req.Equal(100_000, cfg.Model.DownsampleTo)
	req.Equal(10_000, cfg.Model.LiveEvaluationStep)
	req.Empty(cfg.Redis.Addr)
}

func TestLoad_YAMLFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "vhash.yaml")
	body := `
model:
  largestNgram: 2
  minPhraseOccurrence: 2
  numFeatures: 64
server:
  port: 9000
  requestTimeout: 3s
redis:
  addr: "cache:6379"
`
	req.NoError(os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	req.NoError(err)
	req.Equal(2, cfg.Model.LargestNgram)
	req.Equal(float32(2), cfg.Model.MinPhraseOccurrence)
	req.Equal(64, cfg.Model.NumFeatures)
	// untouched keys keep their defaults
	req.Equal(1, cfg.Model.SmallestNgram)
	req.Equal(10_000, cfg.Model.LiveEvaluationStep)
	req.Equal(9000, cfg.Server.Port)
	req.Equal(3*time.Second, cfg.Server.RequestTimeout)
	req.Equal("cache:6379", cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("VH_MODEL_LARGEST_NGRAM", "5")
	t.Setenv("VH_MODEL_MIN_PHRASE_OCCURRENCE", "0.25")
	t.Setenv("VH_MODEL_SEED", "42")
	t.Setenv("VH_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("VH_LOGGING_LEVEL", "debug")
	t.Setenv("VH_SERVER_PORT", "not-a-number")

	cfg, err := Load("")
	req.NoError(err)
	req.Equal(5, cfg.Model.LargestNgram)
	req.Equal(float32(0.25), cfg.Model.MinPhraseOccurrence)
	req.Equal(int64(42), cfg.Model.Seed)
	req.Equal([]string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	req.Equal("debug", cfg.Logging.Level)
	req.Equal(8080, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "absent.yaml")
}

func TestLoad_InvalidModel(t *testing.T) {
	t.Setenv("VH_MODEL_LARGEST_NGRAM", "0")
	_, err := Load("")
	require.ErrorContains(t, err, "largestNgram")
}

func TestModelConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelConfig)
		ok     bool
	}{
		{"defaults", func(*ModelConfig) {}, true},
		{"unbounded caps", func(m *ModelConfig) { m.MaxNumPhrases = 0; m.DownsampleTo = 0 }, true},
		{"zero smallest", func(m *ModelConfig) { m.SmallestNgram = 0 }, false},
		{"inverted range", func(m *ModelConfig) { m.SmallestNgram = 3; m.LargestNgram = 2 }, false},
		{"negative occurrence", func(m *ModelConfig) { m.MinPhraseOccurrence = -1 }, false},
		{"no features", func(m *ModelConfig) { m.NumFeatures = 0 }, false},
		{"zero step", func(m *ModelConfig) { m.LiveEvaluationStep = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultModelConfig()
			tt.mutate(&m)
			err := m.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
