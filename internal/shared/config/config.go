package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config — полная конфигурация сервиса
type Config struct {
	Database DBConfig
	RabbitMQ MQConfig
	Redis    RedisConfig
	Services ServicesConfig
	JWT      JWTConfig
	SDK      SDKConfig
	Coverage CoverageConfig
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type MQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type ServicesConfig struct {
	CoverageServicePort int `yaml:"coverage_service"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpiryMinutes int    `yaml:"expiry_minutes"`
}

// SDKConfig — параметры внешнего SDK оценки стиля вождения
type SDKConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Key           string        `yaml:"key"`
	DetectionMode string        `yaml:"detection_mode"`
	Timeout       time.Duration `yaml:"timeout"`
}

// TriggerPolicy определяет, когда пересчитывается страховой период вне setup.
type TriggerPolicy string

const (
	TriggerSetupOnly        TriggerPolicy = "setup_only"
	TriggerOnEvent          TriggerPolicy = "on_event"
	TriggerInterval         TriggerPolicy = "interval"
	TriggerOnEventAndTicker TriggerPolicy = "on_event_and_interval"
)

func (p TriggerPolicy) ConsumesEvents() bool {
	return p == TriggerOnEvent || p == TriggerOnEventAndTicker
}

func (p TriggerPolicy) UsesInterval() bool {
	return p == TriggerInterval || p == TriggerOnEventAndTicker
}

type FlagBackend string

const (
	FlagBackendRedis    FlagBackend = "redis"
	FlagBackendSQLite   FlagBackend = "sqlite"
	FlagBackendPostgres FlagBackend = "postgres"
)

type PresenterKind string

const (
	PresenterWebSocket PresenterKind = "ws"
	PresenterFCM       PresenterKind = "fcm"
)

type CoverageConfig struct {
	TriggerPolicy         TriggerPolicy `yaml:"trigger_policy"`
	RefreshInterval       time.Duration `yaml:"refresh_interval"`
	SettingsCheckInterval time.Duration `yaml:"settings_check_interval"`
	RetrySetupInterval    time.Duration `yaml:"retry_setup_interval"`
	FlagBackend           FlagBackend   `yaml:"flag_backend"`
	SQLitePath            string        `yaml:"sqlite_path"`
	Presenter             PresenterKind `yaml:"presenter"`
	FCMCredentialsFile    string        `yaml:"fcm_credentials_file"`
}

var (
	ErrInvalidTriggerPolicy = errors.New("invalid coverage trigger policy")
	ErrInvalidFlagBackend   = errors.New("invalid flag backend")
	ErrInvalidPresenter     = errors.New("invalid notification presenter")
)

// Defaults returns the configuration used when no file or env value is set.
func Defaults() Config {
	return Config{
		Database: DBConfig{Host: "localhost", Port: 5432, User: "ridehail_user", Password: "ridehail_pass", Database: "ridehail_db", SSLMode: "disable"},
		RabbitMQ: MQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest", VHost: "/"},
		Redis:    RedisConfig{Addr: "localhost:6379", Prefix: "ridecover"},
		Services: ServicesConfig{CoverageServicePort: 3005},
		JWT:      JWTConfig{Secret: "dev_secret", ExpiryMinutes: 60},
		SDK:      SDKConfig{BaseURL: "http://localhost:8090", DetectionMode: "AUTO_ON", Timeout: 10 * time.Second},
		Coverage: CoverageConfig{
			TriggerPolicy:         TriggerOnEvent,
			RefreshInterval:       time.Minute,
			SettingsCheckInterval: 15 * time.Minute,
			RetrySetupInterval:    5 * time.Minute,
			FlagBackend:           FlagBackendRedis,
			SQLitePath:            "./ridecover.db",
			Presenter:             PresenterWebSocket,
		},
	}
}

// Load — .env (если есть), затем YAML из CONFIG_DIR (по умолчанию ./config), затем ENV перекрывает.
func Load() (Config, error) {
	_ = godotenv.Load()

	configDir := getEnv("CONFIG_DIR", "./config")
	cfg := Defaults()

	files := []struct {
		name string
		dst  any
	}{
		{"db.yaml", &cfg.Database},
		{"mq.yaml", &cfg.RabbitMQ},
		{"redis.yaml", &cfg.Redis},
		{"service.yaml", &cfg.Services},
		{"jwt.yaml", &cfg.JWT},
		{"sdk.yaml", &cfg.SDK},
		{"coverage.yaml", &cfg.Coverage},
	}
	for _, f := range files {
		if err := loadYAML(filepath.Join(configDir, f.name), f.dst); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadYAML decodes path into dst. A missing file is not an error.
func loadYAML(path string, dst any) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setStr(&cfg.Database.User, "DB_USER")
	setStr(&cfg.Database.Password, "DB_PASSWORD")
	setStr(&cfg.Database.Database, "DB_NAME")
	setStr(&cfg.Database.SSLMode, "DB_SSLMODE")

	setStr(&cfg.RabbitMQ.Host, "RABBITMQ_HOST")
	setInt(&cfg.RabbitMQ.Port, "RABBITMQ_PORT")
	setStr(&cfg.RabbitMQ.User, "RABBITMQ_USER")
	setStr(&cfg.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	setStr(&cfg.RabbitMQ.VHost, "RABBITMQ_VHOST")

	setStr(&cfg.Redis.Addr, "REDIS_ADDR")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setStr(&cfg.Redis.Prefix, "REDIS_PREFIX")

	setInt(&cfg.Services.CoverageServicePort, "COVERAGE_SERVICE_PORT")

	setStr(&cfg.JWT.Secret, "JWT_SECRET")
	setInt(&cfg.JWT.ExpiryMinutes, "JWT_EXPIRY_MINUTES")

	setStr(&cfg.SDK.BaseURL, "SDK_BASE_URL")
	setStr(&cfg.SDK.Key, "SDK_KEY")
	setStr(&cfg.SDK.DetectionMode, "SDK_DETECTION_MODE")
	setDuration(&cfg.SDK.Timeout, "SDK_TIMEOUT")

	if v := getEnv("COVERAGE_TRIGGER_POLICY", ""); v != "" {
		cfg.Coverage.TriggerPolicy = TriggerPolicy(v)
	}
	setDuration(&cfg.Coverage.RefreshInterval, "COVERAGE_REFRESH_INTERVAL")
	setDuration(&cfg.Coverage.SettingsCheckInterval, "COVERAGE_SETTINGS_CHECK_INTERVAL")
	setDuration(&cfg.Coverage.RetrySetupInterval, "COVERAGE_RETRY_SETUP_INTERVAL")
	if v := getEnv("COVERAGE_FLAG_BACKEND", ""); v != "" {
		cfg.Coverage.FlagBackend = FlagBackend(v)
	}
	setStr(&cfg.Coverage.SQLitePath, "COVERAGE_SQLITE_PATH")
	if v := getEnv("COVERAGE_PRESENTER", ""); v != "" {
		cfg.Coverage.Presenter = PresenterKind(v)
	}
	setStr(&cfg.Coverage.FCMCredentialsFile, "FCM_CREDENTIALS_FILE")
}

// Validate checks enum-like fields.
func (c Config) Validate() error {
	switch c.Coverage.TriggerPolicy {
	case TriggerSetupOnly, TriggerOnEvent, TriggerInterval, TriggerOnEventAndTicker:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTriggerPolicy, c.Coverage.TriggerPolicy)
	}
	switch c.Coverage.FlagBackend {
	case FlagBackendRedis, FlagBackendSQLite, FlagBackendPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFlagBackend, c.Coverage.FlagBackend)
	}
	switch c.Coverage.Presenter {
	case PresenterWebSocket, PresenterFCM:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPresenter, c.Coverage.Presenter)
	}
	if c.Coverage.Presenter == PresenterFCM && c.Coverage.FCMCredentialsFile == "" {
		return fmt.Errorf("%w: fcm requires fcm_credentials_file", ErrInvalidPresenter)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func setStr(dst *string, key string) {
	if v := getEnv(key, ""); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := getEnv(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := getEnv(key, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// DSN возвращает строку подключения к БД
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// AMQPURL возвращает URL подключения к RabbitMQ
func (c MQConfig) AMQPURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}
