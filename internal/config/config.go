package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config содержит настройки приложения
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Mail      MailConfig      `yaml:"mail"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port string `yaml:"port"`

	// MaxUploadMB - верхняя граница тела запроса загрузки
	MaxUploadMB int `yaml:"max_upload_mb"`
	// TrustProxy включает чтение адреса клиента из X-Forwarded-For
	TrustProxy bool `yaml:"trust_proxy"`
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// StorageConfig - хранилище файлов: local или s3
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	LocalRoot string `yaml:"local_root"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// MailConfig - SMTP и очередь писем. Пустой Host отключает отправку.
type MailConfig struct {
	Host          string  `yaml:"host"`
	Port          string  `yaml:"port"`
	Username      string  `yaml:"username"`
	Password      string  `yaml:"password"`
	From          string  `yaml:"from"`
	QueueSize     int     `yaml:"queue_size"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	AppURL        string  `yaml:"app_url"`
}

// AuthConfig - проверка JWT
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// SchedulerConfig - ежедневный запуск планировщика
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	RunHour  int           `yaml:"run_hour"`
	Timezone string        `yaml:"timezone"`
	Budget   time.Duration `yaml:"budget"`
}

// Location возвращает часовой пояс планировщика
func (c *SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			MaxUploadMB: 50,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "document_requests",
			SSLMode:  "disable",
		},
		Storage: StorageConfig{
			Driver:    "local",
			LocalRoot: "./uploads",
		},
		Mail: MailConfig{
			Port:          "587",
			From:          "no-reply@localhost",
			QueueSize:     1000,
			RatePerSecond: 5,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			RunHour:  6,
			Timezone: "UTC",
			Budget:   10 * time.Minute,
		},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML файл
// из APP_CONFIG_FILE (если задан), затем переменные окружения
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.MaxUploadMB = getEnvInt("SERVER_MAX_UPLOAD_MB", cfg.Server.MaxUploadMB)
	cfg.Server.TrustProxy = getEnvBool("SERVER_TRUST_PROXY", cfg.Server.TrustProxy)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.LocalRoot = getEnv("STORAGE_LOCAL_ROOT", cfg.Storage.LocalRoot)
	cfg.Storage.Bucket = getEnv("S3_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.Region = getEnv("S3_REGION", cfg.Storage.Region)
	cfg.Storage.Endpoint = getEnv("S3_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.AccessKey = getEnv("S3_ACCESS_KEY", cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = getEnv("S3_SECRET_KEY", cfg.Storage.SecretKey)
	cfg.Storage.Prefix = getEnv("S3_PREFIX", cfg.Storage.Prefix)

	cfg.Mail.Host = getEnv("SMTP_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnv("SMTP_PORT", cfg.Mail.Port)
	cfg.Mail.Username = getEnv("SMTP_USER", cfg.Mail.Username)
	cfg.Mail.Password = getEnv("SMTP_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = getEnv("SMTP_FROM", cfg.Mail.From)
	cfg.Mail.QueueSize = getEnvInt("MAIL_QUEUE_SIZE", cfg.Mail.QueueSize)
	cfg.Mail.RatePerSecond = getEnvFloat("MAIL_RATE_PER_SECOND", cfg.Mail.RatePerSecond)
	cfg.Mail.AppURL = getEnv("APP_URL", cfg.Mail.AppURL)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.Scheduler.Enabled = getEnvBool("SCHEDULER_ENABLED", cfg.Scheduler.Enabled)
	cfg.Scheduler.RunHour = getEnvInt("SCHEDULER_RUN_HOUR", cfg.Scheduler.RunHour)
	cfg.Scheduler.Timezone = getEnv("SCHEDULER_TIMEZONE", cfg.Scheduler.Timezone)
	cfg.Scheduler.Budget = getEnvDuration("SCHEDULER_BUDGET", cfg.Scheduler.Budget)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Scheduler.RunHour < 0 || c.Scheduler.RunHour > 23 {
		return fmt.Errorf("scheduler run hour must be within 0-23, got %d", c.Scheduler.RunHour)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
