package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Addr               string        `yaml:"addr" env:"ADDR" validate:"required"`
	ReadHeaderTimeout  time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// nil means the default cap; 0 disables it
	MaxUploadMB        *int64        `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB" validate:"omitempty,gte=0"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

const defaultMaxUploadMB = 2048

// MaxUploadBytes is the submit body cap in bytes; 0 means uncapped.
func (h HTTPConfig) MaxUploadBytes() int64 {
	if h.MaxUploadMB == nil {
		return defaultMaxUploadMB << 20
	}
	return *h.MaxUploadMB << 20
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" env:"SAMPLING"` // enable sampling in prod
}

type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND" validate:"oneof=memory redis postgres"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"URL"`
	MaxConns int32  `yaml:"max_conns" env:"MAX_CONNS"`
}

type RedisConfig struct {
	URL      string `yaml:"url" env:"URL"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
}

type StorageConfig struct {
	Backend string      `yaml:"backend" env:"BACKEND" validate:"oneof=none local minio"`
	Minio   MinioConfig `yaml:"minio" envPrefix:"MINIO_"`
	// staged uploads older than StagedTTL are swept (local and minio)
	StagedTTL     time.Duration `yaml:"staged_ttl" env:"STAGED_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

type WorkerConfig struct {
	Workers   int `yaml:"workers" env:"COUNT"`
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
}

type PipelineConfig struct {
	LockTTL time.Duration `yaml:"lock_ttl" env:"LOCK_TTL"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type Config struct {
	Env   string `yaml:"env" env:"ENV"`
	Debug bool   `yaml:"debug" env:"DEBUG"`

	APIV1Prefix string `yaml:"api_v1_prefix" env:"API_V1_PREFIX"`

	SupportedInputLanguages  []string `yaml:"supported_input_languages" env:"SUPPORTED_INPUT_LANGUAGES" envSeparator:","`
	SupportedOutputLanguages []string `yaml:"supported_output_languages" env:"SUPPORTED_OUTPUT_LANGUAGES" envSeparator:","`

	DataDir    string `yaml:"data_dir" env:"DATA_DIR"`
	SamplesDir string `yaml:"samples_dir" env:"SAMPLES_DIR"`
	TempDir    string `yaml:"temp_dir" env:"TEMP_DIR"`

	HTTP     HTTPConfig     `yaml:"http" envPrefix:"HTTP_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Store    StoreConfig    `yaml:"store" envPrefix:"STORE_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Worker   WorkerConfig   `yaml:"worker" envPrefix:"WORKER_"`
	Pipeline PipelineConfig `yaml:"pipeline" envPrefix:"PIPELINE_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
}

// Load reads configuration in layers: the YAML file at path (optional; a
// missing file is not an error), then a .env file in the working directory,
// then process environment variables. Defaults fill whatever is still unset.
func Load(path string) (*Config, error) {
	var cfg Config
	cfg.Debug = true

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.APIV1Prefix == "" {
		c.APIV1Prefix = "/api/v1"
	}
	c.APIV1Prefix = "/" + strings.Trim(c.APIV1Prefix, "/")
	if len(c.SupportedInputLanguages) == 0 {
		c.SupportedInputLanguages = []string{"en", "ko", "ja"}
	}
	if len(c.SupportedOutputLanguages) == 0 {
		c.SupportedOutputLanguages = []string{"en", "ko", "ja"}
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.SamplesDir == "" {
		c.SamplesDir = "data/samples"
	}
	if c.TempDir == "" {
		c.TempDir = "data/temp"
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8000"
	}
	if c.HTTP.ReadHeaderTimeout <= 0 {
		c.HTTP.ReadHeaderTimeout = 10 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if c.HTTP.MaxUploadMB == nil {
		mb := int64(defaultMaxUploadMB)
		c.HTTP.MaxUploadMB = &mb
	}
	if len(c.HTTP.CORSAllowedOrigins) == 0 {
		c.HTTP.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
		if c.IsDev() {
			c.Log.Format = "console"
		}
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.Minio.Bucket == "" {
		c.Storage.Minio.Bucket = "dubbing-uploads"
	}
	if c.Storage.StagedTTL <= 0 {
		c.Storage.StagedTTL = 24 * time.Hour
	}
	if c.Storage.SweepInterval <= 0 {
		c.Storage.SweepInterval = time.Hour
	}

	if c.Worker.Workers <= 0 {
		c.Worker.Workers = 4
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = c.Worker.Workers * 4
	}
	if c.Pipeline.LockTTL <= 0 {
		c.Pipeline.LockTTL = 30 * time.Minute
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
}

var validate = validator.New()

// Validate checks enumerations and the settings each selected backend needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Backend == "postgres" && c.Database.URL == "" {
		return errors.New("database.url is required for the postgres store")
	}
	if c.Store.Backend == "redis" && c.Redis.URL == "" {
		return errors.New("redis.url is required for the redis store")
	}
	if c.Storage.Backend == "minio" && c.Storage.Minio.Endpoint == "" {
		return errors.New("storage.minio.endpoint is required for the minio storage backend")
	}
	return nil
}

// IsDev reports whether the service runs in a development environment.
func (c *Config) IsDev() bool {
	e := strings.ToLower(c.Env)
	return e == "development" || e == "dev"
}

// UploadsDir is where the local media store stages uploads.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}
