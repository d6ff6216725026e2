package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	Port      string
	NodeID    int64
	MySQL     MySQLConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	SMTP      SMTPConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	OTel      OTelConfig
	Notify    NotifyConfig
}

type MySQLConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig 为空 Brokers 时不启用事件导出
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
}

type AuthConfig struct {
	// Required 开启后写接口必须携带 Bearer token，且请求体中的 username 必须与 token 一致
	Required bool
}

type RateLimitConfig struct {
	RPS   int
	Burst int
}

type OTelConfig struct {
	Endpoint    string
	ServiceName string
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

type NotifyConfig struct {
	// RedisChannel 为空时只在本进程内推送
	RedisChannel string
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load 从环境变量读取配置，开发环境下先加载 .env
func Load() (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:    getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),
		NodeID: int64(getEnvInt("NODE_ID", 1)),
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/qa_community?charset=utf8mb4&parseTime=True"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "qa-community-events"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.example.com"),
			Port:     port,
			Username: getEnv("SMTP_USERNAME", "no-reply@example.com"),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "NoReply <no-reply@example.com>"),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "secret-key"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "refresh-key"),
		},
		Auth: AuthConfig{
			Required: getEnvBool("AUTH_REQUIRED", false),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvInt("RATE_LIMIT_RPS", 20),
			Burst: getEnvInt("RATE_LIMIT_BURST", 40),
		},
		OTel: OTelConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "qa-community"),
		},
		Notify: NotifyConfig{
			RedisChannel: getEnv("NOTIFY_REDIS_CHANNEL", "qa-community:notify"),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
