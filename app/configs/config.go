package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Files   FilesConfig   `yaml:"files"`
	Model   ModelConfig   `yaml:"model"`
	Memory  MemoryConfig  `yaml:"memory"`
	Discord DiscordConfig `yaml:"discord,omitempty"`
}

type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port" validate:"gte=1,lte=65535"`
	CORSOrigin string `yaml:"cors_origin,omitempty"`
}

type FilesConfig struct {
	BaseDir string `yaml:"base_dir" validate:"required"`
}

type ModelConfig struct {
	BaseURL         string `yaml:"base_url" validate:"required,url"`
	ChatModel       string `yaml:"chat_model" validate:"required"`
	EmbeddingsModel string `yaml:"embeddings_model,omitempty"`
}

type MemoryConfig struct {
	QdrantHost  string `yaml:"qdrant_host"`
	QdrantPort  int    `yaml:"qdrant_port"`
	Collection  string `yaml:"collection"`
	DBPath      string `yaml:"db_path"`
	HistorySize int    `yaml:"history_size" validate:"gte=1"`
	StoreCap    int    `yaml:"store_cap" validate:"gte=1"`
}

type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token,omitempty"`
	ChannelID string `yaml:"channel_id,omitempty"`
	AdminID   string `yaml:"admin_id,omitempty"`
}

// Default builds a configuration from environment variables, falling back to
// local-development values matching an LM Studio / Ollama style endpoint.
func Default() *Config {
	baseDir := os.Getenv("FILEMIND_BASE_DIR")
	if baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			baseDir = filepath.Join(wd, "workspace")
		} else {
			baseDir = "./workspace"
		}
	}
	baseURL := os.Getenv("LLM_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:1234"
	}
	return &Config{
		Server: ServerConfig{
			Host:       envOr("FILEMIND_HOST", "0.0.0.0"),
			Port:       envOrInt("FILEMIND_PORT", 5001),
			CORSOrigin: os.Getenv("FILEMIND_CORS_ORIGIN"),
		},
		Files: FilesConfig{BaseDir: baseDir},
		Model: ModelConfig{
			BaseURL:         baseURL,
			ChatModel:       envOr("LLM_CHAT_MODEL", "gemma3:latest"),
			EmbeddingsModel: envOr("LLM_EMBEDDINGS_MODEL", "nomic-embed-text"),
		},
		Memory: MemoryConfig{
			QdrantHost:  envOr("QDRANT_URL", "localhost"),
			QdrantPort:  envOrInt("QDRANT_PORT", 6334),
			Collection:  envOr("QDRANT_COLLECTION", "filemind_memory"),
			DBPath:      os.Getenv("DB_PATH"),
			HistorySize: 10,
			StoreCap:    100,
		},
		Discord: DiscordConfig{
			Enabled:   os.Getenv("DISCORD_TOKEN") != "",
			Token:     os.Getenv("DISCORD_TOKEN"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
			AdminID:   os.Getenv("DISCORD_ADMIN"),
		},
	}
}

// Load reads a YAML config file, expanding ${VAR} references from the
// environment before parsing. Fields absent from the file keep the Default
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Discord.Enabled && c.Discord.Token == "" {
		return fmt.Errorf("invalid configuration: discord enabled without token")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
