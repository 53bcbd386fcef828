package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv  string `envconfig:"APP_ENV" default:"dev"`
	Port    int    `envconfig:"PORT" default:"8080"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"10"`
	RedisAddr  string `envconfig:"REDIS_ADDR"`
	AMQPURL    string `envconfig:"AMQP_URL"`

	JWT struct {
		AccessSecret  string        `envconfig:"JWT_ACCESS_SECRET"`
		RefreshSecret string        `envconfig:"JWT_REFRESH_SECRET"`
		AccessTTL     time.Duration `envconfig:"JWT_ACCESS_TTL" default:"24h"`
		RefreshTTL    time.Duration `envconfig:"JWT_REFRESH_TTL" default:"168h"`
	} `envconfig:""`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	TwoGIS struct {
		APIKey  string `envconfig:"TWOGIS_API_KEY"`
		BaseURL string `envconfig:"TWOGIS_BASE_URL" default:"https://catalog.api.2gis.com/3.0/items"`
	} `envconfig:""`

	Roboflow struct {
		URL    string `envconfig:"ROBOFLOW_URL"`
		APIKey string `envconfig:"ROBOFLOW_API_KEY"`
	} `envconfig:""`

	Skiniver struct {
		URL  string `envconfig:"SKINIVER_URL" default:"https://api.skiniver.com/predict"`
		Auth string `envconfig:"SKINIVER_AUTH"`
	} `envconfig:""`

	SMTP struct {
		Host string `envconfig:"SMTP_HOST"`
		Port int    `envconfig:"SMTP_PORT" default:"465"`
		User string `envconfig:"SMTP_USER"`
		Pass string `envconfig:"SMTP_PASS"`
		From string `envconfig:"SMTP_FROM"`
	} `envconfig:""`

	Queues struct {
		Reminders   string `envconfig:"REMINDER_QUEUE" default:"reminder_pushes"`
		Transcripts string `envconfig:"TRANSCRIPT_QUEUE" default:"transcript_jobs"`
	} `envconfig:""`

	UploadsDir string `envconfig:"UPLOADS_DIR" default:"uploads"`
	ReportsDir string `envconfig:"REPORTS_DIR" default:"reports"`
	FontsDir   string `envconfig:"FONTS_DIR" default:"assets/fonts"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
