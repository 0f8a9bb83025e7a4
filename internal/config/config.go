package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return NewWithFile("")
}

// NewWithFile creates a configuration instance. When path is empty the
// usual search paths are used and a missing file is not an error.
func NewWithFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/clawtools/")
		v.AddConfigPath("$HOME/.clawtools")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("CLAWTOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindLegacyEnv(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// bindLegacyEnv keeps the variable names the scripts have always read.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("homeassistant.url", "CLAWTOOLS_HOMEASSISTANT_URL", "HA_URL")
	_ = v.BindEnv("homeassistant.token", "CLAWTOOLS_HOMEASSISTANT_TOKEN", "HA_TOKEN")
	_ = v.BindEnv("openrouter.api_key", "CLAWTOOLS_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("costs.timezone", "CLAWTOOLS_COSTS_TIMEZONE", "OPENCLAW_TZ")
	_ = v.BindEnv("github.token", "CLAWTOOLS_GITHUB_TOKEN", "GH_TOKEN")
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Mail backend defaults
	v.SetDefault("mail.backend", "himalaya")
	v.SetDefault("mail.himalaya_bin", "himalaya")

	// IMAP defaults
	v.SetDefault("imap.address", "")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.tls", true)

	// Triage defaults
	v.SetDefault("triage.account", "default")
	v.SetDefault("triage.source_folder", "")
	v.SetDefault("triage.rules_path", "config/newsletter-rules.json")
	v.SetDefault("triage.state_path", "memory/newsletter-triage-state.json")
	v.SetDefault("triage.limit", 200)
	v.SetDefault("triage.max_items", 20)

	// Costs defaults
	v.SetDefault("costs.root", "/data/.clawdbot/agents")
	v.SetDefault("costs.timezone", "Europe/Berlin")
	v.SetDefault("costs.price_cache.type", "file")
	v.SetDefault("costs.price_cache.path", "openrouter-prices.json")
	v.SetDefault("costs.price_cache.sqlite_path", "data/prices.db")
	v.SetDefault("costs.price_cache.mysql_dsn", "user:password@tcp(localhost:3306)/clawtools")

	// OpenRouter defaults
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.timeout", "0s")

	// Briefing defaults
	v.SetDefault("briefing.timezone", "Europe/Berlin")
	v.SetDefault("briefing.account", "default")
	v.SetDefault("briefing.folder", "INBOX")
	v.SetDefault("briefing.page_size", 200)
	v.SetDefault("briefing.top", 5)
	v.SetDefault("briefing.memory_dir", "memory")
	v.SetDefault("briefing.mail_to", []string{})
	v.SetDefault("briefing.subject", "Daily Briefing")
	v.SetDefault("briefing.fetch_prices", true)

	// SMTP defaults
	v.SetDefault("smtp.address", "")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.security", "starttls")

	// GitHub defaults
	v.SetDefault("github.gh_bin", "gh")
	v.SetDefault("github.limit", 50)
	v.SetDefault("github.token", "")

	// Home Assistant defaults
	v.SetDefault("homeassistant.url", "")
	v.SetDefault("homeassistant.token", "")
	v.SetDefault("homeassistant.default_url", "http://homeassistant.local:8123")
	v.SetDefault("homeassistant.workspace", "/root/.openclaw/workspace")
	v.SetDefault("homeassistant.secrets_dir", "")
	v.SetDefault("homeassistant.inventory_path", "")
	v.SetDefault("homeassistant.context_dir", "")

	// Logging defaults
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// Set overrides a key, typically from a command line flag
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
