package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ecotrail/ecotrail/shared/auth"
	"github.com/ecotrail/ecotrail/shared/envconfig"
)

// Config encapsulates the runtime configuration for the ecotrail service.
type Config struct {
	Port         string `validate:"required,numeric"`
	GCPProjectID string
	DataStore    DataStore
	Auth         AuthConfig
	Firestore    FirestoreConfig
	SQLite       SQLiteConfig
	Storage      StorageConfig
	Eco          EcoConfig
	Reports      ReportsConfig
	LLM          LLMConfig
}

// DataStore enumerates supported persistence backends for eco progress.
type DataStore string

const (
	// DataStoreMemory keeps progress in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores progress in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
	// DataStoreSQLite stores progress in a local SQLite file.
	DataStoreSQLite DataStore = "sqlite"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	EmulatorHost string
	Database     string
}

// SQLiteConfig locates the SQLite database file.
type SQLiteConfig struct {
	Path string
}

// StorageConfig contains Cloud Storage settings. An empty bucket disables uploads.
type StorageConfig struct {
	Bucket   string
	Endpoint string `validate:"omitempty,url"`
}

// EcoConfig controls the action catalog and session lifecycle.
type EcoConfig struct {
	CatalogFile string
	SessionIdle time.Duration `validate:"gt=0"`
}

// ReportsConfig controls issue report submission.
type ReportsConfig struct {
	LocationsFile string
}

// LLMConfig defines how the service talks to Gemini.
type LLMConfig struct {
	APIKey          string
	Model           string `validate:"required"`
	VisionModel     string
	ImageModel      string
	MaxOutputTokens int `validate:"gt=0"`
	UseVertex       bool
	Location        string
}

// Enabled reports whether enough settings exist to build a Gemini client.
func (c LLMConfig) Enabled() bool {
	if c.UseVertex {
		return strings.TrimSpace(c.Location) != ""
	}
	return strings.TrimSpace(c.APIKey) != ""
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:    DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
			Database:     envconfig.Get("FIRESTORE_DATABASE", "(default)"),
		},
		SQLite: SQLiteConfig{
			Path: envconfig.Get("SQLITE_PATH", "data/ecotrail.db"),
		},
		Storage: StorageConfig{
			Bucket:   envconfig.Get("REPORT_STORAGE_BUCKET", ""),
			Endpoint: envconfig.Get("STORAGE_ENDPOINT", ""),
		},
		Eco: EcoConfig{
			CatalogFile: envconfig.Get("ECO_CATALOG_FILE", ""),
			SessionIdle: time.Duration(envconfig.GetInt("ECO_SESSION_IDLE_MINUTES", 120)) * time.Minute,
		},
		Reports: ReportsConfig{
			LocationsFile: envconfig.Get("TRAIL_LOCATIONS_FILE", ""),
		},
		LLM: LLMConfig{
			APIKey:          resolveAPIKey(),
			Model:           envconfig.Get("GEMINI_MODEL", "gemini-2.5-flash"),
			VisionModel:     envconfig.Get("GEMINI_VISION_MODEL", ""),
			ImageModel:      envconfig.Get("IMAGEN_MODEL", "imagen-3.0-generate-002"),
			MaxOutputTokens: envconfig.GetInt("AI_MAX_OUTPUT_TOKENS", 1024),
			UseVertex:       envconfig.GetBool("GOOGLE_GENAI_USE_VERTEXAI", false),
			Location:        envconfig.Get("GOOGLE_CLOUD_LOCATION", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	case DataStoreSQLite:
		if strings.TrimSpace(cfg.SQLite.Path) == "" {
			return fmt.Errorf("SQLITE_PATH is required when datastore=sqlite")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.Auth.Mode {
	case auth.ModeClerk:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
		}
	case auth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	if cfg.LLM.UseVertex && cfg.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required when GOOGLE_GENAI_USE_VERTEXAI=true")
	}

	return nil
}

func resolveAPIKey() string {
	if apiKey := envconfig.Get("GEMINI_API_KEY", ""); strings.TrimSpace(apiKey) != "" {
		return apiKey
	}
	return envconfig.Get("GOOGLE_API_KEY", "")
}
