// Package config loads and validates the process-wide configuration.
// Configuration is read once at startup from the environment (optionally
// seeded from a .env file) and then frozen; subsystems receive the
// sub-structs they need at construction time.
package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Config is the root configuration object.
type Config struct {
	HTTPPort        string
	FrontendBaseURL string

	Database  DatabaseConfig
	Auth      AuthConfig
	OAuth     OAuthConfig
	Password  PasswordPolicy
	Quota     QuotaConfig
	LLM       LLMConfig
	Vector    VectorConfig
	Validator ValidatorConfig
	Queue     QueueConfig
	Upload    UploadConfig
	Sweep     SweepConfig
}

// DatabaseConfig holds PostgreSQL connection and pool tuning.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN returns the pgx-compatible connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// AuthConfig holds JWT and cookie settings.
type AuthConfig struct {
	// Algorithm is "HS256" or "RS256". HS256 requires SecretKey; RS256
	// requires the PEM-encoded PrivateKey/PublicKey pair.
	Algorithm  string
	SecretKey  string
	PrivateKey string
	PublicKey  string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookie    bool
}

// OAuthProvider holds the client credentials for one external provider.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Enabled reports whether the provider is configured.
func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// OAuthConfig holds the credentials for all supported providers.
type OAuthConfig struct {
	Google  OAuthProvider
	GitHub  OAuthProvider
	Discord OAuthProvider
}

// PasswordPolicy configures signup/change-password validation.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool
}

// QuotaConfig holds the per-user free-tier limits.
type QuotaConfig struct {
	MaxCourseCreations int
	MaxPresentCourses  int
	MaxChatUsage       int
}

// LLMConfig holds the remote model provider settings.
type LLMConfig struct {
	// APIKey authenticates against the OpenAI-compatible endpoint. Course
	// creation with a missing key fails at the first agent call.
	APIKey  string
	BaseURL string

	Model      string // heavyweight model for explainer/planner
	FastModel  string // lightweight model for info/image/tester/grader/chat
	MaxRetries int
	RetryDelay time.Duration

	// ImageFallbackURL replaces the cover image when the image agent yields
	// no usable URL.
	ImageFallbackURL string

	// ImageSearchAPIKey is the Unsplash access key backing the image agent's
	// photo search tool. Empty disables the tool; the agent then answers
	// from its own knowledge.
	ImageSearchAPIKey string
}

// VectorConfig holds the vector index settings.
type VectorConfig struct {
	// Path is the sqlite database file backing the index.
	Path             string
	CollectionPrefix string
	Dimensions       int

	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string
}

// ValidatorConfig holds the out-of-process syntax checker settings.
type ValidatorConfig struct {
	// Command is the executable invoked per check (typically npx or a
	// wrapper script around eslint).
	Command   string
	ConfigDir string
	Timeout   time.Duration
}

// QueueConfig tunes the background task workers.
type QueueConfig struct {
	WorkerCount             int
	QueueSize               int
	TaskTimeout             time.Duration
	GracefulShutdownTimeout time.Duration

	// ChapterConcurrency bounds the per-course chapter fan-out;
	// QuestionConcurrency bounds the per-chapter question repair fan-out.
	ChapterConcurrency  int
	QuestionConcurrency int
}

// UploadConfig limits file uploads.
type UploadConfig struct {
	MaxDocumentBytes int64
	MaxImageBytes    int64
}

// SweepConfig tunes the stuck-course sweep.
type SweepConfig struct {
	Interval       time.Duration
	StuckThreshold time.Duration
}

// Validate checks cross-field constraints. It is called once by Load.
func (c *Config) Validate() error {
	switch c.Auth.Algorithm {
	case "HS256":
		if c.Auth.SecretKey == "" {
			return fmt.Errorf("JWT_SECRET_KEY is required with algorithm HS256")
		}
	case "RS256":
		if c.Auth.PrivateKey == "" || c.Auth.PublicKey == "" {
			return fmt.Errorf("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required with algorithm RS256")
		}
	default:
		return fmt.Errorf("unsupported JWT algorithm %q (want HS256 or RS256)", c.Auth.Algorithm)
	}

	if c.Database.Host == "" || c.Database.Database == "" {
		return fmt.Errorf("database host and name are required")
	}
	if c.Vector.Dimensions <= 0 {
		return fmt.Errorf("vector dimensions must be positive, got %d", c.Vector.Dimensions)
	}
	if c.Queue.WorkerCount <= 0 {
		return fmt.Errorf("queue worker count must be positive, got %d", c.Queue.WorkerCount)
	}
	if c.LLM.APIKey == "" {
		// Not fatal: the service still serves existing courses; generation
		// fails at the first agent call.
		slog.Warn("LLM_API_KEY not set, course generation will fail")
	}
	return nil
}
