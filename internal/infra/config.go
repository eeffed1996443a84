package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - корневая структура конфигурации дашборда.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Data       DataConfig       `mapstructure:"data"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	Recorder   RecorderConfig   `mapstructure:"recorder"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AllowedOrigin уходит в Access-Control-Allow-Origin
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// Addr собирает адрес для net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GRPCConfig - порт для gRPC health-проб (k8s).
type GRPCConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

// DataConfig описывает, где лежат артефакты прогонов, фикстуры и сборка фронтенда.
type DataConfig struct {
	Dir         string `mapstructure:"dir"`          // data/ с longevity_plan_* каталогами
	EvalsDir    string `mapstructure:"evals_dir"`    // data/evals
	TestsDir    string `mapstructure:"tests_dir"`    // data/tests (parallel_test_*, chaos_*)
	MocksDir    string `mapstructure:"mocks_dir"`    // если пусто - встроенные фикстуры
	FrontendDir string `mapstructure:"frontend_dir"` // SPA сборка, опционально
	Watch       bool   `mapstructure:"watch"`        // fsnotify инвалидация кэша
}

// DatabaseConfig описывает хранилище батчей: PostgreSQL на сервере или SQLite локально.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | sqlite
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub, кэш и настройки темы).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// AuthConfig содержит пути к RSA ключам и список операторов.
// Пустой PublicKey выключает защиту мутирующих эндпоинтов (демо-режим).
type AuthConfig struct {
	PublicKeyPath  string         `mapstructure:"public_key_path"`
	PrivateKeyPath string         `mapstructure:"private_key_path"`
	TokenTTL       time.Duration  `mapstructure:"token_ttl"`
	Users          []OperatorUser `mapstructure:"users"`
	PublicKey      []byte
	PrivateKey     []byte
}

// OperatorUser - учетка оператора, которому разрешено запускать батчи.
type OperatorUser struct {
	Username     string   `mapstructure:"username"`
	PasswordHash string   `mapstructure:"password_hash"` // bcrypt
	Scopes       []string `mapstructure:"scopes"`
}

// BatchConfig ограничивает нагрузочные и chaos прогоны.
type BatchConfig struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	MaxRuns        int           `mapstructure:"max_runs"`
	TurnLimit      int           `mapstructure:"turn_limit"`
	Model          string        `mapstructure:"model"`
	Schedule       string        `mapstructure:"schedule"` // cron, пусто - выключено
	RunTimeout     time.Duration `mapstructure:"run_timeout"`
	// Задержка имитации одного разговора
	MockLatencyMin time.Duration `mapstructure:"mock_latency_min"`
	MockLatencyMax time.Duration `mapstructure:"mock_latency_max"`

	ChaosJitterMinMs   int     `mapstructure:"chaos_jitter_min_ms"`
	ChaosJitterMaxMs   int     `mapstructure:"chaos_jitter_max_ms"`
	ChaosNetFailProb   float64 `mapstructure:"chaos_net_fail_prob"`
	ChaosToolFailProb  float64 `mapstructure:"chaos_tool_fail_prob"`
	ChaosBadOutputProb float64 `mapstructure:"chaos_llm_bad_output_prob"`
}

// SimulationConfig задает темп сценария симуляции.
type SimulationConfig struct {
	StepInterval  time.Duration `mapstructure:"step_interval"`
	StageInterval time.Duration `mapstructure:"stage_interval"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

// VoiceConfig - мост к ElevenLabs. Пустой APIKey выключает мост.
type VoiceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	DefaultVoiceID string        `mapstructure:"default_voice_id"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	CBMaxRequests  uint32        `mapstructure:"cb_max_requests"`
	CBInterval     time.Duration `mapstructure:"cb_interval"`
	CBTimeout      time.Duration `mapstructure:"cb_timeout"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
}

// RecorderConfig управляет буферизацией записей о прогонах.
type RecorderConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет - работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ловит конфигурации, с которыми сервис заведомо не поднимется.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for postgres driver")
		}
	case "sqlite":
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	if c.Batch.MaxConcurrency <= 0 || c.Batch.MaxRuns <= 0 {
		return errors.New("config: batch limits must be positive")
	}
	if c.Batch.MockLatencyMin > c.Batch.MockLatencyMax {
		return errors.New("config: batch mock latency min exceeds max")
	}
	if c.Batch.ChaosJitterMinMs > c.Batch.ChaosJitterMaxMs {
		return errors.New("config: chaos jitter min exceeds max")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5174)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute) // parallel батч отвечает синхронно
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("grpc.port", 50052)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.evals_dir", "data/evals")
	v.SetDefault("data.tests_dir", "data/tests")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "data/dashboard.db")
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 2)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("cache.ttl", time.Minute)

	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("batch.max_concurrency", 32)
	v.SetDefault("batch.max_runs", 200)
	v.SetDefault("batch.turn_limit", 10)
	v.SetDefault("batch.model", "gpt-4o-mini")
	v.SetDefault("batch.run_timeout", 2*time.Minute)
	v.SetDefault("batch.mock_latency_min", 150*time.Millisecond)
	v.SetDefault("batch.mock_latency_max", 900*time.Millisecond)
	v.SetDefault("batch.chaos_jitter_min_ms", 200)
	v.SetDefault("batch.chaos_jitter_max_ms", 1000)

	v.SetDefault("simulation.step_interval", 2500*time.Millisecond)
	v.SetDefault("simulation.stage_interval", 1800*time.Millisecond)
	v.SetDefault("simulation.session_ttl", 15*time.Minute)

	v.SetDefault("voice.base_url", "https://api.elevenlabs.io")
	v.SetDefault("voice.default_voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("voice.rate_limit", 5)
	v.SetDefault("voice.rate_burst", 5)
	v.SetDefault("voice.cb_max_requests", 3)
	v.SetDefault("voice.cb_interval", 5*time.Second)
	v.SetDefault("voice.cb_timeout", 30*time.Second)
	v.SetDefault("voice.call_timeout", 20*time.Second)

	v.SetDefault("recorder.buffer_size", 1000)
	v.SetDefault("recorder.batch_size", 100)
	v.SetDefault("recorder.flush_interval", 500*time.Millisecond)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// loadKeyResource - PEM из ENV (Docker/K8s) или из файла по пути из конфига
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
