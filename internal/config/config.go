// Package config loads the JSON configuration file at ~/.signalhound/ and
// overlays credentials from the environment. Config-file values win over
// environment variables when both are present.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the full on-disk configuration.
type Config struct {
	LLMProvider     string   `json:"llm_provider"`
	LLMRequestDelay float64  `json:"llm_request_delay"` // seconds
	ActiveScrapers  []string `json:"active_scrapers"`
	DefaultScraper  string   `json:"default_scraper"`
	StorageProvider string   `json:"storage_provider"`
	DBPath          string   `json:"db_path"`
	Subreddits      []string `json:"subreddits"`

	GroqAPIKey          string `json:"groq_api_key"`
	GroqModel           string `json:"groq_model,omitempty"`
	OllamaHost          string `json:"ollama_host,omitempty"`
	OllamaModel         string `json:"ollama_model,omitempty"`
	RedditClientID      string `json:"reddit_client_id"`
	RedditClientSecret  string `json:"reddit_client_secret"`
	RedditUserAgent     string `json:"reddit_user_agent"`
	ApifyAPIToken       string `json:"apify_api_token"`
	ProductHuntAPIToken string `json:"producthunt_api_token"`

	// path the config was loaded from; preserved for Save.
	path string
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".signalhound"
	}
	return filepath.Join(home, ".signalhound")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.json")
}

// Load reads the config at path ("" = default location). A missing or
// unreadable file yields defaults rather than an error so first runs work
// without setup. Environment credentials fill any gaps.
func Load(path string) *Config {
	if path == "" {
		path = DefaultPath()
	}

	cfg := defaults()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err == nil {
		// Decode over defaults so absent keys keep their default values.
		if err := json.Unmarshal(data, cfg); err != nil {
			return defaultsWithPath(path)
		}
	}

	cfg.overlayEnv()
	return cfg
}

func defaults() *Config {
	return &Config{
		LLMProvider:     "groq",
		LLMRequestDelay: 2,
		ActiveScrapers:  []string{"reddit"},
		DefaultScraper:  "reddit",
		StorageProvider: "sqlite",
		DBPath:          filepath.Join(DefaultDir(), "signalhound.db"),
		Subreddits:      []string{"saas", "entrepreneur", "startups"},
		RedditUserAgent: "SignalHound/1.0",
	}
}

func defaultsWithPath(path string) *Config {
	cfg := defaults()
	cfg.path = path
	cfg.overlayEnv()
	return cfg
}

// overlayEnv fills empty credentials from the environment. File values take
// precedence: only blanks are overlaid.
func (c *Config) overlayEnv() {
	fill := func(target *string, envKey string) {
		if *target == "" {
			*target = os.Getenv(envKey)
		}
	}
	fill(&c.GroqAPIKey, "GROQ_API_KEY")
	fill(&c.RedditClientID, "REDDIT_CLIENT_ID")
	fill(&c.RedditClientSecret, "REDDIT_CLIENT_SECRET")
	fill(&c.ApifyAPIToken, "APIFY_API_TOKEN")
	fill(&c.ProductHuntAPIToken, "PRODUCTHUNT_API_TOKEN")
}

// Save writes the config back to its source path, creating the directory
// on first save.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ScraperConfig assembles the Configure map for the named adapter.
func (c *Config) ScraperConfig(name string) map[string]string {
	switch name {
	case "reddit":
		return map[string]string{
			"client_id":     c.RedditClientID,
			"client_secret": c.RedditClientSecret,
			"user_agent":    c.RedditUserAgent,
		}
	case "hackernews", "indiehackers":
		return map[string]string{
			"user_agent": c.RedditUserAgent,
		}
	case "g2", "capterra":
		return map[string]string{
			"apify_api_token": c.ApifyAPIToken,
		}
	case "producthunt":
		return map[string]string{
			"api_token": c.ProductHuntAPIToken,
		}
	}
	return map[string]string{}
}

// LLMConfig assembles the Configure map for the named completion backend.
func (c *Config) LLMConfig(name string) map[string]string {
	switch name {
	case "groq":
		return map[string]string{
			"api_key": c.GroqAPIKey,
			"model":   c.GroqModel,
		}
	case "ollama":
		return map[string]string{
			"host":  c.OllamaHost,
			"model": c.OllamaModel,
		}
	}
	return map[string]string{}
}
