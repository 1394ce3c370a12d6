// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SpeechConfig struct {
	OpenAIKey string `yaml:"openai_key"`
	Model     string `yaml:"model"`
	Voice     string `yaml:"voice"` // default when the job does not pick one
}

type MediaConfig struct {
	FFmpegPath    string        `yaml:"ffmpeg_path"`
	FFprobePath   string        `yaml:"ffprobe_path"`
	WorkDir       string        `yaml:"work_dir"`
	EncodeTimeout time.Duration `yaml:"encode_timeout"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
}

type UploadConfig struct {
	BaseURL     string        `yaml:"base_url"` // override for tests; empty = Google
	ChunkSize   int64         `yaml:"chunk_size"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	RedirectURL string        `yaml:"redirect_url"` // OAuth callback registered with the console
}

type TranscriptConfig struct {
	GeminiKey string `yaml:"gemini_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type WorkerConfig struct {
	Workers          int           `yaml:"workers"`
	QueueSize        int           `yaml:"queue_size"`
	RecoveryInterval time.Duration `yaml:"recovery_interval"`
	StaleAfter       time.Duration `yaml:"stale_after"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	Speech     SpeechConfig     `yaml:"speech"`
	Media      MediaConfig      `yaml:"media"`
	Upload     UploadConfig     `yaml:"upload"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Security   SecurityConfig   `yaml:"security"`
	Worker     WorkerConfig     `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Speech.Model == "" {
		cfg.Speech.Model = "tts-1"
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = "alloy"
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.FFprobePath == "" {
		cfg.Media.FFprobePath = "ffprobe"
	}
	if cfg.Media.WorkDir == "" {
		cfg.Media.WorkDir = os.TempDir()
	}
	if cfg.Media.EncodeTimeout <= 0 {
		cfg.Media.EncodeTimeout = 5 * time.Minute
	}
	if cfg.Media.ProbeTimeout <= 0 {
		cfg.Media.ProbeTimeout = 30 * time.Second
	}
	if cfg.Upload.ChunkSize <= 0 {
		cfg.Upload.ChunkSize = 8 << 20
	}
	if cfg.Upload.RetryDelay <= 0 {
		cfg.Upload.RetryDelay = 2 * time.Second
	}
	if cfg.Transcript.Model == "" {
		cfg.Transcript.Model = "gemini-2.0-flash"
	}
	if cfg.Transcript.MaxTokens <= 0 {
		cfg.Transcript.MaxTokens = 1024
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 4
	}
	if cfg.Worker.QueueSize <= 0 {
		cfg.Worker.QueueSize = 64
	}
	if cfg.Worker.RecoveryInterval <= 0 {
		cfg.Worker.RecoveryInterval = time.Minute
	}
	if cfg.Worker.StaleAfter <= 0 {
		cfg.Worker.StaleAfter = 5 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" {
		return nil, errors.New("server.jwt_secret is required")
	}
	if cfg.Security.EncryptionKey == "" {
		return nil, errors.New("security.encryption_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
