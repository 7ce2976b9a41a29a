package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swanjin/go2/pkg/cdr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	storageDir := filepath.Join(t.TempDir(), "samples")
	t.Setenv("GO2_STORAGE_FILE_PATH", storageDir)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, TransportKafka, cfg.Transport)
	assert.Equal(t, "HelloWorldData_Msg", cfg.Topic.Name)
	assert.Equal(t, "dds.HelloWorldData_Msg", cfg.KafkaTopic())
	assert.Equal(t, cdr.EncodingCDRLE, cfg.Encoding())
	assert.DirExists(t, storageDir)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
transport: nats
topic:
  name: Chatter
  encoding: xcdr2
nats:
  url: nats://broker:4222
  timeout: 3s
storage:
  type: badger
  badgerPath: /tmp/ignored
logging:
  level: debug
`)
	badgerDir := filepath.Join(t.TempDir(), "badger")
	t.Setenv("GO2_STORAGE_BADGER_PATH", badgerDir)
	t.Setenv("GO2_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("GO2_LOGGING_DEV_MODE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportNATS, cfg.Transport)
	assert.Equal(t, "Chatter", cfg.Topic.Name)
	assert.Equal(t, "HelloWorldData::Msg", cfg.Topic.TypeName, "unset keys keep defaults")
	assert.Equal(t, cdr.EncodingCDR2LE, cfg.Encoding())
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, 3*time.Second, cfg.NATS.Timeout)
	assert.Equal(t, StorageBadger, cfg.Storage.Type)
	assert.Equal(t, badgerDir, cfg.Storage.BadgerPath)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.DevMode)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "kafka:\n  topic: explicit-topic\nstorage:\n  filePath: "+t.TempDir()+"\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "explicit-topic", cfg.KafkaTopic())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "transport: [kafka")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown transport", func(c *Config) { c.Transport = "mqtt" }},
		{"no brokers", func(c *Config) { c.Kafka.Brokers = nil }},
		{"no consumer group", func(c *Config) { c.Kafka.ConsumerGroup = "" }},
		{"no nats url", func(c *Config) { c.Transport = TransportNATS; c.NATS.URL = "" }},
		{"no topic", func(c *Config) { c.Topic.Name = "" }},
		{"no type name", func(c *Config) { c.Topic.TypeName = "" }},
		{"bad encoding", func(c *Config) { c.Topic.Encoding = "json" }},
		{"bad storage", func(c *Config) { c.Storage.Type = "postgres" }},
		{"no file path", func(c *Config) { c.Storage.FilePath = "" }},
		{"no badger path", func(c *Config) { c.Storage.Type = StorageBadger }},
		{"bad broker address", func(c *Config) { c.Kafka.Brokers = []string{"localhost"} }},
		{"negative retries", func(c *Config) { c.Kafka.MaxRetries = -1 }},
		{"negative list limit", func(c *Config) { c.Storage.ListLimit = -5 }},
		{"bad metrics address", func(c *Config) { c.Metrics.Address = "metrics" }},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var verrs validator.ValidationErrors
			assert.True(t, errors.As(err, &verrs))
		})
	}
}

func TestValidate_TransportSpecificFields(t *testing.T) {
	cfg := Default()
	cfg.Transport = TransportNATS
	cfg.Kafka.Brokers = nil
	cfg.Kafka.ConsumerGroup = ""
	assert.NoError(t, cfg.Validate(), "kafka settings are not needed for nats")

	cfg = Default()
	cfg.Metrics.Address = ":9090"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ReportsField(t *testing.T) {
	cfg := Default()
	cfg.Kafka.Brokers = nil

	var verrs validator.ValidationErrors
	require.True(t, errors.As(cfg.Validate(), &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "Brokers", verrs[0].StructField())
	assert.Equal(t, "required_for_kafka", verrs[0].Tag())
}
