package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the application configuration
type Config struct {
	Ollama     OllamaConfig     `json:"ollama"`
	LlamaCpp   LlamaCppConfig   `json:"llamacpp"`
	Generative GenerativeConfig `json:"generative"`
	Baidu      BaiduConfig      `json:"baidu"`
	Pipeline   PipelineConfig   `json:"pipeline"`
}

// OllamaConfig holds connection settings for an Ollama server
type OllamaConfig struct {
	URL          string `json:"url"`
	DetectModel  string `json:"detect_model"`
	CaptionModel string `json:"caption_model"`
}

// LlamaCppConfig holds connection settings for a llama.cpp server
type LlamaCppConfig struct {
	URL          string `json:"url"`
	DetectModel  string `json:"detect_model"`
	CaptionModel string `json:"caption_model"`
}

// GenerativeConfig holds settings for the generative inpainting provider
type GenerativeConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
}

// BaiduConfig holds credentials for the Baidu inpainting provider
type BaiduConfig struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
}

// PipelineConfig holds settings for the decomposition pipeline
type PipelineConfig struct {
	Concurrency    int `json:"concurrency"`
	MaxDepth       int `json:"max_depth"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Timeout returns the per-provider timeout as a duration
func (p PipelineConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:          "http://localhost:11434",
			DetectModel:  "qwen2.5vl:7b",
			CaptionModel: "qwen2.5vl:7b",
		},
		LlamaCpp: LlamaCppConfig{
			URL:          "http://localhost:8080",
			DetectModel:  "default",
			CaptionModel: "default",
		},
		Generative: GenerativeConfig{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-image-1",
		},
		Pipeline: PipelineConfig{
			Concurrency:    4,
			MaxDepth:       1,
			TimeoutSeconds: 120,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays credentials from environment variables. Values set
// in the file win only when the environment is empty.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Generative.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Generative.BaseURL = v
	}
	if v := os.Getenv("BAIDU_API_KEY"); v != "" {
		c.Baidu.APIKey = v
	}
	if v := os.Getenv("BAIDU_SECRET_KEY"); v != "" {
		c.Baidu.SecretKey = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Ollama.URL == "" && c.LlamaCpp.URL == "" {
		return fmt.Errorf("at least one of ollama.url or llamacpp.url must be set")
	}

	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline.concurrency must be positive")
	}

	if c.Pipeline.MaxDepth < 1 {
		return fmt.Errorf("pipeline.max_depth must be positive")
	}

	if c.Pipeline.TimeoutSeconds < 1 {
		return fmt.Errorf("pipeline.timeout_seconds must be positive")
	}

	if c.Baidu.APIKey != "" && c.Baidu.SecretKey == "" {
		return fmt.Errorf("baidu.secret_key is required when baidu.api_key is set")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "slide-editor", "config.json")
}
