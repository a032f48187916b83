// Package config provides environment-variable-first configuration loading
// with optional YAML file and .env fallbacks for the email composer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is the optional file of KEY=value lines read from the working
// directory. Real environment variables take precedence over it.
const DotEnvFile = ".env"

// defaultImageMaxSize is 5 MiB in bytes.
const defaultImageMaxSize = 5 << 20

// Config holds the complete application configuration.
type Config struct {
	Exporter string        `yaml:"exporter"`
	File     FileConfig    `yaml:"file"`
	S3       S3Config      `yaml:"s3"`
	Graph    GraphConfig   `yaml:"graph"`
	Image    ImageConfig   `yaml:"image"`
	Logging  LoggingConfig `yaml:"logging"`
}

// FileConfig holds local directory export configuration.
type FileConfig struct {
	Dir string `yaml:"dir"`
}

// S3Config holds S3 export configuration.
type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// GraphConfig holds Microsoft Graph (OneDrive) export configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	User         string `yaml:"user"`
	Folder       string `yaml:"folder"`
}

// ImageConfig holds header image intake limits.
type ImageConfig struct {
	MaxSize int64 `yaml:"max_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables and the optional .env
// file, with sensible defaults. Environment variables always take precedence.
func Load() (*Config, error) {
	return load("", DotEnvFile)
}

// LoadFromFile loads configuration from a YAML file as the base layer, then
// overrides with the .env file and environment variables. Returns an error if
// the specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	return load(path, DotEnvFile)
}

func load(path, envFile string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	dotenv, err := readDotEnv(envFile)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvVars(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	})

	return cfg, nil
}

// readDotEnv parses envFile without touching the process environment. A
// missing file is not an error.
func readDotEnv(envFile string) (map[string]string, error) {
	if envFile == "" {
		return nil, nil
	}

	values, err := godotenv.Read(envFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	slog.Debug("loaded env file", "path", envFile, "keys", len(values))
	return values, nil
}

// S3Configured returns true if a bucket and region are set.
func (c *Config) S3Configured() bool {
	return c.S3.Bucket != "" && c.S3.Region != ""
}

// GraphConfigured returns true if all four Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.User != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.S3.Prefix = "exports"
	c.Graph.Folder = "Email Composer"
	c.Image.MaxSize = defaultImageMaxSize
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with values returned by getenv.
// Only non-empty values override existing ones.
func (c *Config) applyEnvVars(getenv func(string) string) {
	if v := getenv("EXPORTER"); v != "" {
		c.Exporter = strings.ToLower(v)
	}
	if v := getenv("EXPORT_DIR"); v != "" {
		c.File.Dir = v
	}

	if v := getenv("S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := getenv("S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
	if v := getenv("S3_PREFIX"); v != "" {
		c.S3.Prefix = v
	}
	if v := getenv("S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := getenv("S3_ACCESS_KEY_ID"); v != "" {
		c.S3.AccessKeyID = v
	}
	if v := getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		c.S3.SecretAccessKey = v
	}
	if v := getenv("S3_FORCE_PATH_STYLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.S3.ForcePathStyle = b
		}
	}

	if v := getenv("GRAPH_TENANT_ID"); v != "" {
		c.Graph.TenantID = v
	}
	if v := getenv("GRAPH_CLIENT_ID"); v != "" {
		c.Graph.ClientID = v
	}
	if v := getenv("GRAPH_CLIENT_SECRET"); v != "" {
		c.Graph.ClientSecret = v
	}
	if v := getenv("GRAPH_USER"); v != "" {
		c.Graph.User = v
	}
	if v := getenv("GRAPH_FOLDER"); v != "" {
		c.Graph.Folder = v
	}

	if v := getenv("IMAGE_MAX_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil && size > 0 {
			c.Image.MaxSize = size
		}
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
