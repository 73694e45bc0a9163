package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	OrderTrack OrderTrackConfig `yaml:"ordertrack"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	FactsLearnedTopicName string `yaml:"facts_learned_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type OrderTrackConfig struct {
	GRPCAddr           string `yaml:"grpc_addr"`
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	StoreTimeoutMs    int `yaml:"store_timeout_ms"`
	ProviderTimeoutMs int `yaml:"provider_timeout_ms"`

	DefaultDeliveryFee float64 `yaml:"default_delivery_fee"`

	// "direct" writes learned facts straight to postgres, "kafka" publishes them
	// for writeback-worker.
	WritebackMode             string `yaml:"writeback_mode"`
	WritebackTimeoutSeconds   int    `yaml:"writeback_timeout_seconds"`
	WritebackDedupeTTLSeconds int    `yaml:"writeback_dedupe_ttl_seconds"`

	WorkerHTTPAddr string `yaml:"worker_http_addr"`

	DispatchMode               string `yaml:"dispatch_mode"` // "shipday" | "fake"
	DispatchBaseURL            string `yaml:"dispatch_base_url"`
	DispatchAPIKey             string `yaml:"dispatch_api_key"`
	DispatchMaxRetries         *int   `yaml:"dispatch_max_retries"` // nil = default, 0 = no retries
	DispatchRateLimitPerMinute int    `yaml:"dispatch_rate_limit_per_minute"`
}

// LoadConfig reads the YAML file and then applies secrets from the environment
// (an optional .env next to the process is loaded first).
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	_ = godotenv.Load()
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DISPATCH_API_KEY"); v != "" {
		c.OrderTrack.DispatchAPIKey = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

// PostgresDSN builds a pgx connection string.
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.DBName, sslMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) KafkaBrokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Kafka.Host, c.Kafka.Port)}
}
