package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment override, e.g. CAMP_STORAGE_DATA_DIR.
const EnvPrefix = "CAMP"

// Config represents the complete application configuration
type Config struct {
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Import    ImportConfig    `yaml:"import" envconfig:"IMPORT"`
	Planning  PlanningConfig  `yaml:"planning" envconfig:"PLANNING"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// StorageConfig locates the capacity store and its companions
type StorageConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	StoreFile    string `yaml:"store_file" envconfig:"STORE_FILE" validate:"required"`
	ProjectFile  string `yaml:"project_file" envconfig:"PROJECT_FILE" validate:"required"`
	ExportDir    string `yaml:"export_dir" envconfig:"EXPORT_DIR" validate:"required"`
	CreateBackup bool   `yaml:"create_backup" envconfig:"CREATE_BACKUP"`
}

// ImportConfig holds the defaults of one ingestion call
type ImportConfig struct {
	OverwriteExisting bool  `yaml:"overwrite_existing" envconfig:"OVERWRITE_EXISTING"`
	ForecastOnly      bool  `yaml:"forecast_only" envconfig:"FORECAST_ONLY"`
	SampleRows        int   `yaml:"sample_rows" envconfig:"SAMPLE_ROWS" validate:"min=1,max=1000"`
	MaxFileSize       int64 `yaml:"max_file_size" envconfig:"MAX_FILE_SIZE" validate:"gt=0"`
}

// PlanningConfig holds sprint planning constants
type PlanningConfig struct {
	StoryPointFactor float64 `yaml:"story_point_factor" envconfig:"STORY_POINT_FACTOR" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST" validate:"required"`
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig toggles tracing and the metrics textfile
type TelemetryConfig struct {
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	MetricsFile    string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load builds the configuration from defaults, an optional YAML file and
// CAMP_* environment variables, in increasing precedence. An empty path
// searches the default locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys the file omits keep
// their current value.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	err := validator.New().Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return err
}

// findConfigFile returns the first existing default config location
func findConfigFile() string {
	locations := []string{
		"camp.yaml",
		"configs/camp.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:      DefaultDataDir,
			StoreFile:    DefaultStoreFile,
			ProjectFile:  DefaultProjectFile,
			ExportDir:    DefaultExportDir,
			CreateBackup: true,
		},
		Import: ImportConfig{
			OverwriteExisting: true,
			ForecastOnly:      false,
			SampleRows:        DefaultSampleRows,
			MaxFileSize:       DefaultMaxFileSize,
		},
		Planning: PlanningConfig{
			StoryPointFactor: DefaultStoryPointFactor,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/camp.log",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  60 * time.Second,
			MaxUploadBytes:  DefaultMaxFileSize,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
		},
	}
}
