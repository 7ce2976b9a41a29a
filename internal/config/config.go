package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/pkg/cdr"
)

// EnvPrefix prefixes every environment override, e.g. GO2_KAFKA_BROKERS
const EnvPrefix = "GO2"

const (
	TransportKafka = "kafka"
	TransportNATS  = "nats"

	StorageFile   = "file"
	StorageBadger = "badger"
)

// Config holds all configuration for the application
type Config struct {
	Transport string         `yaml:"transport" validate:"oneof=kafka nats"`
	Topic     TopicConfig    `yaml:"topic"`
	Kafka     KafkaConfig    `yaml:"kafka"`
	NATS      NATSConfig     `yaml:"nats"`
	Storage   StorageConfig  `yaml:"storage"`
	Logging   logging.Config `yaml:"logging"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}

// TopicConfig names the DDS topic and how its samples are encoded
type TopicConfig struct {
	Name     string `yaml:"name" validate:"required,max=249"`
	TypeName string `yaml:"typeName" split_words:"true" validate:"required"`
	Encoding string `yaml:"encoding" validate:"cdr_encoding"`
}

// KafkaConfig holds Kafka-related configuration
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers" validate:"dive,hostname_port"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumerGroup" split_words:"true"`
	MaxRetries    int      `yaml:"maxRetries" split_words:"true" validate:"gte=0"`
}

// NATSConfig holds NATS connection configuration
type NATSConfig struct {
	URL           string        `yaml:"url"`
	Token         string        `yaml:"token,omitempty"`
	Creds         string        `yaml:"creds,omitempty"`
	SubjectPrefix string        `yaml:"subjectPrefix" split_words:"true"`
	Timeout       time.Duration `yaml:"timeout"`
}

// StorageConfig selects where received samples are kept
type StorageConfig struct {
	Type       string `yaml:"type" validate:"oneof=file badger"`
	FilePath   string `yaml:"filePath,omitempty" split_words:"true" validate:"required_if=Type file"`
	BadgerPath string `yaml:"badgerPath,omitempty" split_words:"true" validate:"required_if=Type badger"`
	ListLimit  int    `yaml:"listLimit,omitempty" split_words:"true" validate:"gte=0"`
}

// MetricsConfig holds the Prometheus endpoint; an empty address disables it
type MetricsConfig struct {
	Address string `yaml:"address" validate:"omitempty,hostname_port"`
	Path    string `yaml:"path" validate:"omitempty,startswith=/"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Transport: TransportKafka,
		Topic: TopicConfig{
			Name:     "HelloWorldData_Msg",
			TypeName: "HelloWorldData::Msg",
			Encoding: "xcdr1",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "go2-helloworld",
			MaxRetries:    3,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "dds",
			Timeout:       10 * time.Second,
		},
		Storage: StorageConfig{
			Type:      StorageFile,
			FilePath:  "data/samples",
			ListLimit: 100,
		},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}

// Load reads configuration from a YAML file, an optional .env file and
// GO2_* environment variables, in increasing order of precedence.
// An empty path falls back to CONFIG_PATH, then config.yaml.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == StorageFile {
		if err := os.MkdirAll(cfg.Storage.FilePath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cdr_encoding", func(fl validator.FieldLevel) bool {
		_, err := cdr.ParseEncoding(fl.Field().String())
		return err == nil
	})
	v.RegisterStructValidation(validateTransport, Config{})
	return v
}

// validateTransport checks the settings only the selected transport needs
func validateTransport(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	switch c.Transport {
	case TransportKafka:
		if len(c.Kafka.Brokers) == 0 {
			sl.ReportError(c.Kafka.Brokers, "Kafka.Brokers", "Brokers", "required_for_kafka", "")
		}
		if c.Kafka.ConsumerGroup == "" {
			sl.ReportError(c.Kafka.ConsumerGroup, "Kafka.ConsumerGroup", "ConsumerGroup", "required_for_kafka", "")
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			sl.ReportError(c.NATS.URL, "NATS.URL", "URL", "required_for_nats", "")
		}
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// KafkaTopic returns the Kafka topic carrying the DDS topic's samples
func (c *Config) KafkaTopic() string {
	if c.Kafka.Topic != "" {
		return c.Kafka.Topic
	}
	return "dds." + c.Topic.Name
}

// Encoding returns the parsed topic encoding
func (c *Config) Encoding() cdr.Encoding {
	enc, err := cdr.ParseEncoding(c.Topic.Encoding)
	if err != nil {
		return cdr.EncodingCDRLE
	}
	return enc
}
