package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Load reads the full configuration from the environment, applies defaults
// and validates it. This is the primary entry point; call it exactly once at
// startup.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "nexora"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "nexora"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 15),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},

		Auth: AuthConfig{
			Algorithm:       getEnv("JWT_ALGORITHM", "HS256"),
			SecretKey:       getEnv("JWT_SECRET_KEY", ""),
			PrivateKey:      getEnv("JWT_PRIVATE_KEY", ""),
			PublicKey:       getEnv("JWT_PUBLIC_KEY", ""),
			AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 20*time.Minute),
			RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 100*time.Hour),
			SecureCookie:    getEnvBool("SECURE_COOKIE", true),
		},

		OAuth: OAuthConfig{
			Google: OAuthProvider{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
			},
			GitHub: OAuthProvider{
				ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
				ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("GITHUB_REDIRECT_URI", ""),
			},
			Discord: OAuthProvider{
				ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
				ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
			},
		},

		Password: PasswordPolicy{
			MinLength:        getEnvInt("PASSWORD_MIN_LENGTH", 3),
			RequireUppercase: getEnvBool("PASSWORD_REQUIRE_UPPERCASE", false),
			RequireLowercase: getEnvBool("PASSWORD_REQUIRE_LOWERCASE", false),
			RequireDigit:     getEnvBool("PASSWORD_REQUIRE_DIGIT", false),
			RequireSpecial:   getEnvBool("PASSWORD_REQUIRE_SPECIAL", false),
		},

		Quota: QuotaConfig{
			MaxCourseCreations: getEnvInt("MAX_COURSE_CREATIONS", 999999),
			MaxPresentCourses:  getEnvInt("MAX_PRESENT_COURSES", 999999),
			MaxChatUsage:       getEnvInt("MAX_CHAT_USAGE", 999999),
		},

		LLM: LLMConfig{
			APIKey:           getEnv("LLM_API_KEY", ""),
			BaseURL:          getEnv("LLM_BASE_URL", ""),
			Model:            getEnv("LLM_MODEL", "gpt-4.1"),
			FastModel:        getEnv("LLM_FAST_MODEL", "gpt-4.1-mini"),
			MaxRetries:       getEnvInt("LLM_MAX_RETRIES", 1),
			RetryDelay:       getEnvDuration("LLM_RETRY_DELAY", 2*time.Second),
			ImageFallbackURL: getEnv("IMAGE_FALLBACK_URL", defaultImageFallbackURL),

			ImageSearchAPIKey: getEnv("UNSPLASH_ACCESS_KEY", ""),
		},

		Vector: VectorConfig{
			Path:             getEnv("VECTOR_DB_PATH", "./nexora_vectors.db"),
			CollectionPrefix: getEnv("VECTOR_COLLECTION_PREFIX", "course_"),
			Dimensions:       getEnvInt("VECTOR_DIMENSIONS", 384),
			EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:  getEnv("EMBEDDING_API_KEY", ""),
			EmbeddingModel:   getEnv("EMBEDDING_MODEL", "all-minilm-l6-v2"),
		},

		Validator: ValidatorConfig{
			Command:   getEnv("ESLINT_COMMAND", "npx"),
			ConfigDir: getEnv("ESLINT_CONFIG_DIR", "./deploy/eslint"),
			Timeout:   getEnvDuration("ESLINT_TIMEOUT", 30*time.Second),
		},

		Queue: QueueConfig{
			WorkerCount:             getEnvInt("QUEUE_WORKER_COUNT", 4),
			QueueSize:               getEnvInt("QUEUE_SIZE", 64),
			TaskTimeout:             getEnvDuration("TASK_TIMEOUT", 90*time.Minute),
			GracefulShutdownTimeout: getEnvDuration("GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			ChapterConcurrency:      getEnvInt("CHAPTER_CONCURRENCY", 8),
			QuestionConcurrency:     getEnvInt("QUESTION_CONCURRENCY", 4),
		},

		Upload: UploadConfig{
			MaxDocumentBytes: getEnvInt64("MAX_DOCUMENT_BYTES", 30<<20),
			MaxImageBytes:    getEnvInt64("MAX_IMAGE_BYTES", 5<<20),
		},

		Sweep: SweepConfig{
			Interval:       getEnvDuration("SWEEP_INTERVAL", time.Hour),
			StuckThreshold: getEnvDuration("SWEEP_STUCK_THRESHOLD", 2*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Info("Configuration loaded",
		"http_port", cfg.HTTPPort,
		"db_host", cfg.Database.Host,
		"llm_model", cfg.LLM.Model,
		"workers", cfg.Queue.WorkerCount)

	return cfg, nil
}

// defaultImageFallbackURL is substituted when the image agent yields no
// https URL.
const defaultImageFallbackURL = "https://images.unsplash.com/photo-1456513080510-7bf3a84b82f8"

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		slog.Warn("Invalid boolean in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}
