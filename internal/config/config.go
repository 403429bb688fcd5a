// Package config loads typed configuration from a TOML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultConfigDir         = ".docpilot"
	DefaultProvider          = "openai"
	DefaultListenAddr        = ":8080"
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultMaxContextChars   = 8000
	DefaultMinContextChunks  = 2
	DefaultSimilarityCutoff  = 0.7
	DefaultGenerateMaxTokens = 1000
	DefaultGenerateTemp      = 0.1
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Provider ProviderConfig `toml:"provider"`
	Chunking ChunkingConfig `toml:"chunking"`
	Agent    AgentConfig    `toml:"agent"`
	HTTP     HTTPConfig     `toml:"http"`
	GitHub   GitHubConfig   `toml:"github"`
	GDrive   GDriveConfig   `toml:"gdrive"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	DSN string `toml:"dsn"`
}

// ProviderConfig selects and configures the AI provider.
type ProviderConfig struct {
	// Name is "openai" or "vertex".
	Name string `toml:"name"`

	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIBaseURL  string `toml:"openai_base_url"`
	EmbeddingModel string `toml:"embedding_model"`
	ChatModel      string `toml:"chat_model"`

	VertexProject  string `toml:"vertex_project"`
	VertexLocation string `toml:"vertex_location"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	MaxChars int `toml:"max_chars"`
	Overlap  int `toml:"overlap"`
}

// AgentConfig controls the answer policy.
type AgentConfig struct {
	MaxContextChars     int     `toml:"max_context_chars"`
	MinContextChunks    int     `toml:"min_context_chunks"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MaxTokens           int     `toml:"max_tokens"`
	Temperature         float64 `toml:"temperature"`
}

// HTTPConfig controls the HTTP API server.
type HTTPConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// GitHubConfig holds GitHub connector settings.
type GitHubConfig struct {
	Token string `toml:"token"`
}

// GDriveConfig holds Google Drive connector settings.
type GDriveConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	FolderID        string `toml:"folder_id"`
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:           DefaultProvider,
			VertexLocation: "us-central1",
		},
		Chunking: ChunkingConfig{
			MaxChars: DefaultChunkSize,
			Overlap:  DefaultChunkOverlap,
		},
		Agent: AgentConfig{
			MaxContextChars:     DefaultMaxContextChars,
			MinContextChunks:    DefaultMinContextChunks,
			SimilarityThreshold: DefaultSimilarityCutoff,
			MaxTokens:           DefaultGenerateMaxTokens,
			Temperature:         DefaultGenerateTemp,
		},
		HTTP: HTTPConfig{
			ListenAddr: DefaultListenAddr,
		},
	}
}

// Load reads configuration in layers: defaults, then the TOML file if
// present, then environment variables. A `.env` file in the working
// directory is loaded into the environment first. If path is empty,
// ~/.docpilot/config.toml is used.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultConfigDir, "config.toml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	envString(&c.Database.DSN, "DATABASE_URL")
	envString(&c.Provider.Name, "DOCPILOT_PROVIDER")
	envString(&c.Provider.OpenAIAPIKey, "OPENAI_API_KEY")
	envString(&c.Provider.OpenAIBaseURL, "OPENAI_BASE_URL")
	envString(&c.Provider.EmbeddingModel, "DOCPILOT_EMBEDDING_MODEL")
	envString(&c.Provider.ChatModel, "DOCPILOT_CHAT_MODEL")
	envString(&c.Provider.VertexProject, "GOOGLE_CLOUD_PROJECT")
	envString(&c.Provider.VertexLocation, "GOOGLE_CLOUD_LOCATION")
	envString(&c.HTTP.ListenAddr, "DOCPILOT_LISTEN_ADDR")
	envString(&c.GitHub.Token, "GITHUB_TOKEN")
	envString(&c.GDrive.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	envString(&c.GDrive.FolderID, "DOCPILOT_GDRIVE_FOLDER")
	envInt(&c.Agent.MinContextChunks, "DOCPILOT_MIN_CONTEXT_CHUNKS")
	envFloat(&c.Agent.SimilarityThreshold, "DOCPILOT_SIMILARITY_THRESHOLD")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate checks that required settings are present for the selected
// provider.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set database.dsn or DATABASE_URL)")
	}
	switch c.Provider.Name {
	case "openai":
		if c.Provider.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set provider.openai_api_key or OPENAI_API_KEY)")
		}
	case "vertex":
		if c.Provider.VertexProject == "" {
			return fmt.Errorf("Vertex project is required (set provider.vertex_project or GOOGLE_CLOUD_PROJECT)")
		}
	default:
		return fmt.Errorf("unknown provider %q (expected openai or vertex)", c.Provider.Name)
	}
	return nil
}
