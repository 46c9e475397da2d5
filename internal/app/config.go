package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/summit-backend/internal/data/db"
	"github.com/yungbote/summit-backend/internal/modules/tutor/mediacodec"
	"github.com/yungbote/summit-backend/internal/modules/tutor/steps"
	"github.com/yungbote/summit-backend/internal/platform/envutil"
)

const (
	RealtimeMemory   = "memory"
	RealtimeRedis    = "redis"
	RealtimePostgres = "postgres"
)

type Config struct {
	Environment string `yaml:"environment"`
	LogMode     string `yaml:"log_mode"`
	HTTPAddr    string `yaml:"http_addr"`

	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	Realtime RealtimeConfig `yaml:"realtime"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Media    MediaConfig    `yaml:"media"`
	Alert    AlertConfig    `yaml:"alert"`
	Auth     AuthConfig     `yaml:"auth"`
	Otel     OtelConfig     `yaml:"otel"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type LogConfig struct {
	Level            string `yaml:"level"`
	RedactionEnabled bool   `yaml:"redaction_enabled"`
	HashSalt         string `yaml:"hash_salt"`
}

type DBConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
}

type RealtimeConfig struct {
	Backend      string `yaml:"backend"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisChannel string `yaml:"redis_channel"`
	PGChannel    string `yaml:"pg_channel"`
}

type LLMConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TutorModel     string `yaml:"tutor_model"`
	AnalyzerModel  string `yaml:"analyzer_model"`
	MediaModel     string `yaml:"media_model"`
	JudgeModel     string `yaml:"judge_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

type PipelineConfig struct {
	PublishIntervalMS     int  `yaml:"publish_interval_ms"`
	MaxResponseAttempts   int  `yaml:"max_response_attempts"`
	AnalyzerParseAttempts int  `yaml:"analyzer_parse_attempts"`
	ThreadTokenCeiling    int  `yaml:"thread_token_ceiling"`
	MaxConcurrentThreads  int  `yaml:"max_concurrent_threads"`
	ScoringJudgeEnabled   bool `yaml:"scoring_judge_enabled"`
}

type MediaConfig struct {
	ImageBase int `yaml:"image_base"`
	VideoBase int `yaml:"video_base"`
	Span      int `yaml:"span"`
}

type AlertConfig struct {
	WebhookURL         string   `yaml:"webhook_url"`
	EmailTo            []string `yaml:"email_to"`
	SendGridAPIKey     string   `yaml:"sendgrid_api_key"`
	SendGridFromEmail  string   `yaml:"sendgrid_from_email"`
	MinIntervalSeconds int      `yaml:"min_interval_seconds"`
}

type AuthConfig struct {
	JWTSecret      string   `yaml:"jwt_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type MetricsConfig struct {
	Enabled                  bool `yaml:"enabled"`
	CollectorIntervalSeconds int  `yaml:"collector_interval_seconds"`
}

func DefaultConfig() Config {
	codec := mediacodec.DefaultConfig()
	return Config{
		Environment: "development",
		LogMode:     "development",
		HTTPAddr:    ":8080",
		Log:         LogConfig{Level: "info", RedactionEnabled: true},
		DB:          DBConfig{Driver: db.DriverPostgres, SQLitePath: "summit.db"},
		Realtime: RealtimeConfig{
			Backend:      RealtimeMemory,
			RedisAddr:    "localhost:6379",
			RedisChannel: "summit:sse",
			PGChannel:    "summit_sse",
		},
		LLM: LLMConfig{
			TutorModel:     "gpt-4o",
			AnalyzerModel:  "gpt-4o-mini",
			TimeoutSeconds: 120,
			MaxRetries:     2,
		},
		Pipeline: PipelineConfig{
			PublishIntervalMS:     int(steps.DefaultStreamInterval / time.Millisecond),
			MaxResponseAttempts:   steps.DefaultMaxResponseAttempts,
			AnalyzerParseAttempts: steps.DefaultAnalyzerParseAttempts,
			ThreadTokenCeiling:    steps.DefaultThreadTokenCeiling,
		},
		Media:   MediaConfig{ImageBase: codec.ImageBase, VideoBase: codec.VideoBase, Span: codec.Span},
		Alert:   AlertConfig{MinIntervalSeconds: 300},
		Otel:    OtelConfig{ServiceName: "summit-backend", SampleRatio: 1},
		Metrics: MetricsConfig{Enabled: true, CollectorIntervalSeconds: 15},
	}
}

// LoadConfig layers defaults, the optional CONFIG_FILE, then the environment.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = envutil.String("APP_ENV", c.Environment)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.HTTPAddr = envutil.String("HTTP_ADDR", c.HTTPAddr)

	c.Log.Level = envutil.String("LOG_LEVEL", c.Log.Level)
	c.Log.RedactionEnabled = envutil.Bool("LOG_REDACTION_ENABLED", c.Log.RedactionEnabled)
	c.Log.HashSalt = envutil.String("LOG_HASH_SALT", c.Log.HashSalt)

	c.DB.Driver = strings.ToLower(envutil.String("DB_DRIVER", c.DB.Driver))
	c.DB.DSN = envutil.String("DATABASE_URL", c.DB.DSN)
	if c.DB.DSN == "" && envutil.String("POSTGRES_HOST", "") != "" {
		c.DB.DSN = db.PostgresDSN(
			envutil.String("POSTGRES_HOST", ""),
			envutil.String("POSTGRES_PORT", "5432"),
			envutil.String("POSTGRES_USER", "postgres"),
			envutil.String("POSTGRES_PASSWORD", ""),
			envutil.String("POSTGRES_NAME", "summit"),
		)
	}
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)

	c.Realtime.Backend = strings.ToLower(envutil.String("REALTIME_BACKEND", c.Realtime.Backend))
	c.Realtime.RedisAddr = envutil.String("REDIS_ADDR", c.Realtime.RedisAddr)
	c.Realtime.RedisChannel = envutil.String("REDIS_CHANNEL", c.Realtime.RedisChannel)
	c.Realtime.PGChannel = envutil.String("PG_NOTIFY_CHANNEL", c.Realtime.PGChannel)

	c.LLM.APIKey = envutil.String("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = envutil.String("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.TutorModel = envutil.String("TUTOR_MODEL", c.LLM.TutorModel)
	c.LLM.AnalyzerModel = envutil.String("ANALYZER_MODEL", c.LLM.AnalyzerModel)
	c.LLM.MediaModel = envutil.String("MEDIA_MODEL", c.LLM.MediaModel)
	c.LLM.JudgeModel = envutil.String("JUDGE_MODEL", c.LLM.JudgeModel)
	c.LLM.TimeoutSeconds = envutil.Int("OPENAI_TIMEOUT_SECONDS", c.LLM.TimeoutSeconds)
	c.LLM.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", c.LLM.MaxRetries)

	c.Pipeline.PublishIntervalMS = envutil.Int("STREAM_PUBLISH_INTERVAL_MS", c.Pipeline.PublishIntervalMS)
	c.Pipeline.MaxResponseAttempts = envutil.Int("MAX_RESPONSE_ATTEMPTS", c.Pipeline.MaxResponseAttempts)
	c.Pipeline.AnalyzerParseAttempts = envutil.Int("ANALYZER_PARSE_ATTEMPTS", c.Pipeline.AnalyzerParseAttempts)
	c.Pipeline.ThreadTokenCeiling = envutil.Int("THREAD_TOKEN_CEILING", c.Pipeline.ThreadTokenCeiling)
	c.Pipeline.MaxConcurrentThreads = envutil.Int("MAX_CONCURRENT_THREADS", c.Pipeline.MaxConcurrentThreads)
	c.Pipeline.ScoringJudgeEnabled = envutil.Bool("SCORING_JUDGE_ENABLED", c.Pipeline.ScoringJudgeEnabled)

	c.Media.ImageBase = envutil.Int("MEDIA_IMAGE_BASE", c.Media.ImageBase)
	c.Media.VideoBase = envutil.Int("MEDIA_VIDEO_BASE", c.Media.VideoBase)
	c.Media.Span = envutil.Int("MEDIA_SPAN", c.Media.Span)

	c.Alert.WebhookURL = envutil.String("ALERT_WEBHOOK_URL", c.Alert.WebhookURL)
	c.Alert.EmailTo = envutil.List("ALERT_EMAIL_TO", c.Alert.EmailTo)
	c.Alert.SendGridAPIKey = envutil.String("SENDGRID_API_KEY", c.Alert.SendGridAPIKey)
	c.Alert.SendGridFromEmail = envutil.String("SENDGRID_FROM_EMAIL", c.Alert.SendGridFromEmail)
	c.Alert.MinIntervalSeconds = envutil.Int("ALERT_MIN_INTERVAL_SECONDS", c.Alert.MinIntervalSeconds)

	c.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecret)
	c.Auth.AllowedOrigins = envutil.List("CORS_ALLOWED_ORIGINS", c.Auth.AllowedOrigins)

	c.Otel.Enabled = envutil.Bool("OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Otel.ServiceName)
	c.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Otel.Headers)
	c.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Otel.Insecure)
	c.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", c.Otel.SampleRatio)

	c.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.CollectorIntervalSeconds = envutil.Int("METRICS_COLLECTOR_INTERVAL_SECONDS", c.Metrics.CollectorIntervalSeconds)
}

func (c Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case db.DriverPostgres:
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db: postgres needs DATABASE_URL or POSTGRES_HOST"))
		}
	case db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("db: unknown driver %q", c.DB.Driver))
	}

	switch c.Realtime.Backend {
	case RealtimeMemory:
	case RealtimeRedis:
		if c.Realtime.RedisAddr == "" {
			errs = append(errs, errors.New("realtime: redis backend needs REDIS_ADDR"))
		}
	case RealtimePostgres:
		if c.DB.Driver != db.DriverPostgres {
			errs = append(errs, errors.New("realtime: postgres backend needs the postgres db driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("realtime: unknown backend %q", c.Realtime.Backend))
	}

	if c.Pipeline.PublishIntervalMS <= 0 {
		errs = append(errs, errors.New("pipeline: publish interval must be positive"))
	}
	if c.Pipeline.MaxResponseAttempts <= 0 {
		errs = append(errs, errors.New("pipeline: max response attempts must be positive"))
	}
	if c.Pipeline.AnalyzerParseAttempts <= 0 {
		errs = append(errs, errors.New("pipeline: analyzer parse attempts must be positive"))
	}
	if c.Pipeline.ThreadTokenCeiling <= 0 {
		errs = append(errs, errors.New("pipeline: thread token ceiling must be positive"))
	}
	if c.Pipeline.MaxConcurrentThreads < 0 {
		errs = append(errs, errors.New("pipeline: max concurrent threads cannot be negative"))
	}
	if _, err := mediacodec.New(c.codecConfig()); err != nil {
		errs = append(errs, fmt.Errorf("media: %w", err))
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("otel: sample ratio %v outside [0,1]", c.Otel.SampleRatio))
	}
	return errors.Join(errs...)
}

func (c Config) codecConfig() mediacodec.Config {
	return mediacodec.Config{ImageBase: c.Media.ImageBase, VideoBase: c.Media.VideoBase, Span: c.Media.Span}
}

func (c Config) pipelineConfig() steps.Config {
	return steps.Config{
		TutorModel:            c.LLM.TutorModel,
		AnalyzerModel:         c.LLM.AnalyzerModel,
		MediaModel:            c.LLM.MediaModel,
		StreamInterval:        time.Duration(c.Pipeline.PublishIntervalMS) * time.Millisecond,
		MaxResponseAttempts:   c.Pipeline.MaxResponseAttempts,
		AnalyzerParseAttempts: c.Pipeline.AnalyzerParseAttempts,
		ThreadTokenCeiling:    c.Pipeline.ThreadTokenCeiling,
	}
}

func (c Config) judgeModel() string {
	if c.LLM.JudgeModel != "" {
		return c.LLM.JudgeModel
	}
	return c.LLM.AnalyzerModel
}
