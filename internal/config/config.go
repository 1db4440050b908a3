// Package config loads the service configuration from a YAML file and
// environment variables. Clients are constructed once at process start from
// this struct and passed into handlers and jobs explicitly.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Google     GoogleConfig     `yaml:"google"`
	Drive      DriveConfig      `yaml:"drive"`
	Tagger     TaggerConfig     `yaml:"tagger"`
	Sync       SyncConfig       `yaml:"sync"`
	Compliance ComplianceConfig `yaml:"compliance"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"52428800"`
}

// GoogleConfig holds the GCP project settings shared by Firestore and Vertex.
type GoogleConfig struct {
	ProjectID           string `yaml:"project_id"           env:"GOOGLE_PROJECT_ID"           env-required:"true"`
	VertexRegion        string `yaml:"vertex_region"        env:"VERTEX_AI_REGION"            env-default:"us-central1"`
	FirestoreCollection string `yaml:"firestore_collection" env:"FIRESTORE_COLLECTION"        env-default:"documents"`
}

// DriveConfig holds the Drive OAuth client and folder layout.
type DriveConfig struct {
	ClientID       string        `yaml:"client_id"        env:"DRIVE_CLIENT_ID"       env-required:"true"`
	ClientSecret   string        `yaml:"client_secret"    env:"DRIVE_CLIENT_SECRET"   env-required:"true"`
	RedirectURI    string        `yaml:"redirect_uri"     env:"DRIVE_REDIRECT_URI"`
	AccessToken    string        `yaml:"access_token"     env:"DRIVE_ACCESS_TOKEN"`
	RefreshToken   string        `yaml:"refresh_token"    env:"DRIVE_REFRESH_TOKEN"   env-required:"true"`
	SyncFolderID   string        `yaml:"sync_folder_id"   env:"DRIVE_SYNC_FOLDER_ID"  env-required:"true"`
	UploadFolderID string        `yaml:"upload_folder_id" env:"DRIVE_UPLOAD_FOLDER_ID"`
	CallTimeout    time.Duration `yaml:"call_timeout"     env:"DRIVE_CALL_TIMEOUT"    env-default:"50s"`
}

// TaggerConfig holds the generative model settings.
type TaggerConfig struct {
	Model         string        `yaml:"model"           env:"TAGGER_MODEL"           env-default:"gemini-1.5-pro"`
	CallTimeout   time.Duration `yaml:"call_timeout"    env:"TAGGER_CALL_TIMEOUT"    env-default:"60s"`
	MaxInputBytes int           `yaml:"max_input_bytes" env:"TAGGER_MAX_INPUT_BYTES" env-default:"65536"`
}

// SyncConfig controls the periodic Drive folder reconciliation.
type SyncConfig struct {
	Enabled  bool          `yaml:"enabled"  env:"SYNC_ENABLED"  env-default:"true"`
	Interval time.Duration `yaml:"interval" env:"SYNC_INTERVAL" env-default:"15m"`
}

// ComplianceConfig holds the compliance derivation knobs.
type ComplianceConfig struct {
	// ExpiryWindow is how far ahead a document counts as expiring soon.
	ExpiryWindow time.Duration `yaml:"expiry_window" env:"COMPLIANCE_EXPIRY_WINDOW" env-default:"168h"`
	// DefaultExpiry is the expiry horizon seeded on sync-ingested files.
	DefaultExpiry time.Duration `yaml:"default_expiry" env:"COMPLIANCE_DEFAULT_EXPIRY" env-default:"8760h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The file path comes from CONFIG_PATH
// (fallback "./config.yaml"); a missing default file is not an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	return &cfg, nil
}

// SlogLevel maps the configured level name onto a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
