package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig holds configuration for the OpenAI-compatible embedder.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures how material text is split into windows.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// IndexConfig selects and configures the vector index backend. Type
// "disabled" (or empty) runs without semantic retrieval; that choice is
// made once at startup, not per call.
type IndexConfig struct {
	Type        string `yaml:"type"` // "chroma", "memory", or "disabled"
	URL         string `yaml:"url"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig `yaml:"embedder"`
	Chunker   ChunkerConfig  `yaml:"chunker"`
	Index     IndexConfig    `yaml:"index"`
	Store     StoreConfig    `yaml:"store"`
	UploadDir string         `yaml:"upload_dir"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults. Environment overrides are applied last.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/lumeni/config.yaml.
// If neither exists, it writes defaults to ~/.config/lumeni/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lumeni", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Embedder: EmbedderConfig{
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "text-embedding-3-small",
			TimeoutSecs: 30,
		},
		Chunker: ChunkerConfig{Size: 1000, Overlap: 200},
		Index: IndexConfig{
			Type:        "chroma",
			URL:         "http://localhost:8000",
			Collection:  "module_materials",
			TimeoutSecs: 15,
		},
		Store:     StoreConfig{Path: "lumeni.db"},
		UploadDir: "faculty_uploads",
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = def.Embedder.BaseURL
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = def.Embedder.APIKeyEnv
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = def.Embedder.Model
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = def.Embedder.TimeoutSecs
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = def.Chunker.Size
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = def.Chunker.Overlap
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = def.Index.Type
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = def.Index.Collection
	}
	if cfg.Index.TimeoutSecs == 0 {
		cfg.Index.TimeoutSecs = def.Index.TimeoutSecs
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = def.UploadDir
	}
}

// applyEnvOverrides lets deployments point at their index, database, and
// upload directory without editing the config file.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("LUMENI_INDEX_URL"); v != "" {
		cfg.Index.URL = v
	}
	if v := os.Getenv("LUMENI_INDEX_COLLECTION"); v != "" {
		cfg.Index.Collection = v
	}
	if v := os.Getenv("LUMENI_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("LUMENI_DB"); v != "" {
		cfg.Store.Path = v
	}
}
