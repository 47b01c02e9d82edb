// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/focusnest/webhook-service/pkg/envconfig"
)

// Datastore names accepted in DATASTORE.
const (
	DatastoreSupabase  = "supabase"
	DatastorePostgres  = "postgres"
	DatastoreSQLite    = "sqlite"
	DatastoreFirestore = "firestore"
	DatastoreMemory    = "memory"
)

// Config is the validated runtime configuration.
type Config struct {
	Port     string `validate:"required"`
	LogLevel string `validate:"omitempty,oneof=debug info warn warning error"`

	ClerkWebhookSecret string        `validate:"required"`
	WebhookTolerance   time.Duration `validate:"gt=0"`
	MaxBodyBytes       int64         `validate:"gt=0"`
	SyncDeletions      bool

	Datastore    string `validate:"required,oneof=supabase postgres sqlite firestore memory"`
	SupabaseURL  string `validate:"required_if=Datastore supabase,omitempty,url"`
	SupabaseKey  string `validate:"required_if=Datastore supabase"`
	DatabaseURL  string `validate:"required_if=Datastore postgres"`
	SQLitePath   string `validate:"required_if=Datastore sqlite"`
	AutoMigrate  bool
	GCPProjectID string `validate:"required"`

	AuthMode      string `validate:"required,oneof=clerk noop"`
	ClerkJWKSURL  string `validate:"required_if=AuthMode clerk,omitempty,url"`
	ClerkAudience string
	ClerkIssuer   string

	DedupeEnabled bool
	RedisAddr     string `validate:"required_if=DedupeEnabled true"`
	RedisPassword string
	DedupeTTL     time.Duration `validate:"gt=0"`

	ArchiveBucket string
	ArchivePrefix string
}

// Load reads every variable, applying defaults, and validates the result.
func Load() (Config, error) {
	var errs []error
	boolean := func(name string, fallback bool) bool {
		v, err := envconfig.GetBool(name, fallback)
		errs = append(errs, err)
		return v
	}
	duration := func(name string, fallback time.Duration) time.Duration {
		v, err := envconfig.GetDuration(name, fallback)
		errs = append(errs, err)
		return v
	}

	maxBody, err := envconfig.GetInt64("WEBHOOK_MAX_BODY_BYTES", 1<<20)
	errs = append(errs, err)

	cfg := Config{
		Port:     envconfig.Get("PORT", "8080"),
		LogLevel: strings.ToLower(envconfig.Get("LOG_LEVEL", "info")),

		ClerkWebhookSecret: strings.TrimSpace(envconfig.Get("CLERK_WEBHOOK_SECRET", "")),
		WebhookTolerance:   duration("WEBHOOK_TOLERANCE", 5*time.Minute),
		MaxBodyBytes:       maxBody,
		SyncDeletions:      boolean("SYNC_DELETIONS", false),

		Datastore:    strings.ToLower(envconfig.Get("DATASTORE", DatastoreSupabase)),
		SupabaseURL:  envconfig.Get("SUPABASE_URL", ""),
		SupabaseKey:  envconfig.Get("SUPABASE_KEY", envconfig.Get("SUPABASE_ANON_KEY", "")),
		DatabaseURL:  envconfig.Get("DATABASE_URL", ""),
		SQLitePath:   envconfig.Get("SQLITE_PATH", "profiles.db"),
		AutoMigrate:  boolean("DB_AUTO_MIGRATE", true),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", "focusnest-dev"),

		AuthMode:      strings.ToLower(envconfig.Get("AUTH_MODE", "clerk")),
		ClerkJWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
		ClerkAudience: envconfig.Get("CLERK_AUDIENCE", ""),
		ClerkIssuer:   envconfig.Get("CLERK_ISSUER", ""),

		DedupeEnabled: boolean("DEDUPE_ENABLED", false),
		RedisAddr:     envconfig.Get("REDIS_ADDR", ""),
		RedisPassword: envconfig.Get("REDIS_PASSWORD", ""),
		DedupeTTL:     duration("DEDUPE_TTL", 24*time.Hour),

		ArchiveBucket: envconfig.Get("ARCHIVE_BUCKET", ""),
		ArchivePrefix: envconfig.Get("ARCHIVE_PREFIX", "clerk-events"),
	}

	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, envconfig.Validate(cfg)
}

// ArchiveEnabled reports whether verified payloads should be written to Cloud Storage.
func (c Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}
