package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Identity IdentityConfig `yaml:"identity"`
	Backend  BackendConfig  `yaml:"backend"`
	Payments PaymentsConfig `yaml:"payments"`
	Chat     ChatConfig     `yaml:"chat"`
	Maps     MapsConfig     `yaml:"maps"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type IdentityConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
}

type PaymentsConfig struct {
	BaseURL        string `yaml:"base_url"`
	PublishableKey string `yaml:"publishable_key"`
	SecretKey      string `yaml:"secret_key"`
}

type ChatConfig struct {
	HTTPEndpoint     string `yaml:"http_endpoint"`
	RealtimeEndpoint string `yaml:"realtime_endpoint"`
}

type MapsConfig struct {
	APIKey string `yaml:"api_key"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	PollTimeoutSeconds  int `yaml:"poll_timeout_seconds"`
	GuidesCacheTTL      int `yaml:"guides_cache_ttl_seconds"`
	SubmitLockSeconds   int `yaml:"submit_lock_seconds"`
}

// LoadConfig reads the yaml file at path, then applies env overrides
// for deployment secrets. A .env file is honored when present.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if cfg.Booking.PollIntervalSeconds <= 0 {
		cfg.Booking.PollIntervalSeconds = 3
	}
	if cfg.Booking.PollTimeoutSeconds <= 0 {
		cfg.Booking.PollTimeoutSeconds = 900
	}
	if cfg.Booking.SubmitLockSeconds <= 0 {
		cfg.Booking.SubmitLockSeconds = 30
	}

	return &cfg, nil
}

// Secrets never live in the yaml file checked into a deployment; they
// arrive through the environment.
func applyEnv(cfg *Config) {
	override(&cfg.Identity.URL, "IDENTITY_URL")
	override(&cfg.Identity.APIKey, "IDENTITY_API_KEY")
	override(&cfg.Backend.BaseURL, "BACKEND_BASE_URL")
	override(&cfg.Payments.PublishableKey, "PAYMENTS_PUBLISHABLE_KEY")
	override(&cfg.Payments.SecretKey, "PAYMENTS_SECRET_KEY")
	override(&cfg.Chat.HTTPEndpoint, "CHAT_HTTP_ENDPOINT")
	override(&cfg.Chat.RealtimeEndpoint, "CHAT_REALTIME_ENDPOINT")
	override(&cfg.Maps.APIKey, "MAPS_API_KEY")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
}

func override(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
