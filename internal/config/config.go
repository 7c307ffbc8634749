package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Components receive the section
// they need; nothing outside this package reads the environment.
type Config struct {
	Env      string         `yaml:"env"`
	NodeID   int64          `yaml:"node_id"`
	Repo     RepoConfig     `yaml:"repo"`
	Storage  StorageConfig  `yaml:"storage"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	LLM      LLMConfig      `yaml:"llm"`
	Reports  ReportsConfig  `yaml:"reports"`
	Queue    QueueConfig    `yaml:"queue"`
	OTel     OTelConfig     `yaml:"otel"`
}

type RepoConfig struct {
	Root  string `yaml:"root"`
	Owner string `yaml:"owner"`
	Name  string `yaml:"name"`
	// Profile selects files: generic, spring, fastapi or django.
	Profile      string `yaml:"profile"`
	UserContext  string `yaml:"user_context"`
	CommitsFile  string `yaml:"commits_file"`
	MaxFileBytes int64  `yaml:"max_file_bytes"`
}

type StorageConfig struct {
	// Backend is "disk" or "s3".
	Backend  string        `yaml:"backend"`
	Dir      string        `yaml:"dir"`
	S3       S3Config      `yaml:"s3"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// CacheSize <= 0 disables the read cache.
	CacheSize int `yaml:"cache_size"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type PipelineConfig struct {
	BatchSize         int  `yaml:"batch_size"`
	Concurrency       int  `yaml:"concurrency"`
	// SnippetHead and SnippetTail of 0 use the selection profile's window.
	SnippetHead       int  `yaml:"snippet_head"`
	SnippetTail       int  `yaml:"snippet_tail"`
	MinFeatures       int  `yaml:"min_features"`
	MaxFeatures       int  `yaml:"max_features"`
	MaxCommitMessages int  `yaml:"max_commit_messages"`
	Resume            bool `yaml:"resume"`
	// StrictCodePaths drops related_code_paths not present in the inputs.
	StrictCodePaths   bool `yaml:"strict_code_paths"`
	RecordTranscripts bool `yaml:"record_transcripts"`
	// OutputLanguage is the language of free-text fields; empty leaves it to the model.
	OutputLanguage string `yaml:"output_language"`
}

type LLMConfig struct {
	// Provider is "gemini", "openai" or "fake".
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	RPM         float64       `yaml:"rpm"`
	Burst       int           `yaml:"burst"`
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffMax  time.Duration `yaml:"backoff_max"`
}

type ReportsConfig struct {
	DSN string `yaml:"dsn"`
}

type QueueConfig struct {
	RedisURL    string        `yaml:"redis_url"`
	Stream      string        `yaml:"stream"`
	Group       string        `yaml:"group"`
	Consumer    string        `yaml:"consumer"`
	DLQStream   string        `yaml:"dlq_stream"`
	MaxAttempts int           `yaml:"max_attempts"`
	Block       time.Duration `yaml:"block"`
}

type OTelConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Headers        string `yaml:"headers"`
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Env:     "development",
		Repo:    RepoConfig{Root: ".", Profile: "generic", MaxFileBytes: 1 << 20},
		Storage: StorageConfig{Backend: "disk", Dir: "output", CacheSize: 512, CacheTTL: 10 * time.Minute},
		Pipeline: PipelineConfig{
			BatchSize:         10,
			Concurrency:       1,
			MinFeatures:       2,
			MaxFeatures:       5,
			MaxCommitMessages: 15,
			StrictCodePaths:   true,
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Temperature: 0.2,
			RPM:         40,
			Burst:       1,
			MaxAttempts: 3,
			BackoffBase: time.Second,
			BackoffMax:  10 * time.Second,
		},
		Queue: QueueConfig{
			Stream:      "repodigest_jobs",
			Group:       "repodigest_workers",
			Consumer:    "worker-1",
			DLQStream:   "repodigest_jobs_dlq",
			MaxAttempts: 3,
			Block:       5 * time.Second,
		},
		OTel: OTelConfig{ServiceName: "repodigest", ServiceVersion: "dev"},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and environment variables, in that order of increasing priority.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c ReportsConfig) Enabled() bool {
	return c.DSN != ""
}

func (c QueueConfig) Enabled() bool {
	return c.RedisURL != ""
}

// RepoAnalysisID is the "{owner}_{repo}" identifier of the configured repo.
func (c RepoConfig) RepoAnalysisID() string {
	return c.Owner + "_" + c.Name
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Repo.Root) == "" {
		errs = append(errs, errors.New("repo.root is required"))
	}
	if strings.TrimSpace(c.Repo.Owner) == "" || strings.TrimSpace(c.Repo.Name) == "" {
		errs = append(errs, errors.New("repo.owner and repo.name are required"))
	}
	p := c.Pipeline
	if p.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("pipeline.batch_size must be >= 1, got %d", p.BatchSize))
	}
	if p.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("pipeline.concurrency must be >= 1, got %d", p.Concurrency))
	}
	if p.SnippetHead < 0 || p.SnippetTail < 0 {
		errs = append(errs, errors.New("pipeline.snippet_head and snippet_tail must be >= 0"))
	}
	if p.MinFeatures < 1 || p.MaxFeatures < p.MinFeatures {
		errs = append(errs, fmt.Errorf("pipeline feature bound [%d,%d] is invalid", p.MinFeatures, p.MaxFeatures))
	}
	if p.MaxCommitMessages < 1 {
		errs = append(errs, errors.New("pipeline.max_commit_messages must be >= 1"))
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider))
		}
	case "fake":
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of gemini, openai, fake", c.LLM.Provider))
	}
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, errors.New("llm.max_attempts must be >= 1"))
	}
	switch c.Storage.Backend {
	case "disk":
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for the disk backend"))
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.endpoint and storage.s3.bucket are required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of disk, s3", c.Storage.Backend))
	}
	return errors.Join(errs...)
}
