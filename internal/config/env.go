package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides cfg with REPODIGEST_* variables. Provider keys fall back
// to GEMINI_API_KEY / OPENAI_API_KEY.
func applyEnv(cfg *Config) {
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.NodeID = int64(getEnvInt("REPODIGEST_NODE_ID", int(cfg.NodeID)))

	cfg.Repo.Root = getEnv("REPODIGEST_REPO_ROOT", cfg.Repo.Root)
	cfg.Repo.Owner = getEnv("REPODIGEST_REPO_OWNER", cfg.Repo.Owner)
	cfg.Repo.Name = getEnv("REPODIGEST_REPO_NAME", cfg.Repo.Name)
	cfg.Repo.Profile = getEnv("REPODIGEST_PROFILE", cfg.Repo.Profile)
	cfg.Repo.UserContext = getEnv("REPODIGEST_USER_CONTEXT", cfg.Repo.UserContext)
	cfg.Repo.CommitsFile = getEnv("REPODIGEST_COMMITS_FILE", cfg.Repo.CommitsFile)

	cfg.Storage.Backend = getEnv("REPODIGEST_STORAGE", cfg.Storage.Backend)
	cfg.Storage.Dir = getEnv("REPODIGEST_OUTPUT_DIR", cfg.Storage.Dir)
	cfg.Storage.S3.Endpoint = getEnv("ARTIFACT_S3_ENDPOINT", cfg.Storage.S3.Endpoint)
	cfg.Storage.S3.Region = getEnv("ARTIFACT_S3_REGION", cfg.Storage.S3.Region)
	cfg.Storage.S3.AccessKey = firstNonEmpty(os.Getenv("ARTIFACT_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER"), cfg.Storage.S3.AccessKey)
	cfg.Storage.S3.SecretKey = firstNonEmpty(os.Getenv("ARTIFACT_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD"), cfg.Storage.S3.SecretKey)
	cfg.Storage.S3.Bucket = getEnv("ARTIFACT_S3_BUCKET", cfg.Storage.S3.Bucket)
	cfg.Storage.S3.UseSSL = getEnvBool("ARTIFACT_S3_USE_SSL", cfg.Storage.S3.UseSSL)

	cfg.Pipeline.BatchSize = getEnvInt("REPODIGEST_BATCH_SIZE", cfg.Pipeline.BatchSize)
	cfg.Pipeline.Concurrency = getEnvInt("REPODIGEST_CONCURRENCY", cfg.Pipeline.Concurrency)
	cfg.Pipeline.Resume = getEnvBool("REPODIGEST_RESUME", cfg.Pipeline.Resume)
	cfg.Pipeline.OutputLanguage = getEnv("REPODIGEST_OUTPUT_LANGUAGE", cfg.Pipeline.OutputLanguage)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.RPM = getEnvFloat("LLM_RPM", cfg.LLM.RPM)
	cfg.LLM.Burst = getEnvInt("LLM_BURST", cfg.LLM.Burst)
	cfg.LLM.MaxAttempts = getEnvInt("LLM_MAX_ATTEMPTS", cfg.LLM.MaxAttempts)
	cfg.LLM.BackoffBase = getEnvDuration("LLM_BACKOFF_BASE", cfg.LLM.BackoffBase)
	cfg.LLM.BackoffMax = getEnvDuration("LLM_BACKOFF_MAX", cfg.LLM.BackoffMax)
	providerKey := ""
	switch cfg.LLM.Provider {
	case "gemini":
		providerKey = os.Getenv("GEMINI_API_KEY")
	case "openai":
		providerKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.LLM.APIKey = firstNonEmpty(os.Getenv("LLM_API_KEY"), providerKey, cfg.LLM.APIKey)

	cfg.Reports.DSN = getEnv("REPORTS_PG_DSN", cfg.Reports.DSN)

	cfg.Queue.RedisURL = getEnv("REDIS_URL", cfg.Queue.RedisURL)
	cfg.Queue.Stream = getEnv("REDIS_STREAM", cfg.Queue.Stream)
	cfg.Queue.Group = getEnv("REDIS_GROUP", cfg.Queue.Group)
	cfg.Queue.Consumer = getEnv("REDIS_CONSUMER", cfg.Queue.Consumer)
	cfg.Queue.DLQStream = getEnv("REDIS_DLQ_STREAM", cfg.Queue.DLQStream)

	cfg.OTel.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTel.Endpoint)
	cfg.OTel.Headers = getEnv("OTEL_EXPORTER_OTLP_HEADERS", cfg.OTel.Headers)
	cfg.OTel.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.OTel.ServiceName)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
