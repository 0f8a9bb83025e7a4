package config

import (
	"path/filepath"
	"strings"
	"time"
)

// MailConfig selects the mail backend
type MailConfig struct {
	Backend     string
	HimalayaBin string
}

// IMAPConfig represents the configuration for the direct IMAP backend
type IMAPConfig struct {
	Address  string
	Username string
	Password string
	TLS      bool
}

// TriageConfig represents the configuration for newsletter triage
type TriageConfig struct {
	Account      string
	SourceFolder string
	RulesPath    string
	StatePath    string
	Limit        int
	MaxItems     int
}

// CostsConfig represents the configuration for the usage report
type CostsConfig struct {
	Root     string
	Timezone string
}

// PriceCacheConfig represents the configuration for the model price cache
type PriceCacheConfig struct {
	Type       string
	Path       string
	SQLitePath string
	MySQLDSN   string
}

// OpenRouterConfig represents the configuration for the OpenRouter pricing API
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// BriefingConfig represents the configuration for the daily briefing
type BriefingConfig struct {
	Timezone  string
	Account   string
	Folder    string
	PageSize  int
	Top       int
	MemoryDir string
	MailTo    []string
	Subject   string

	// FetchPrices refreshes the OpenRouter price table before costing
	FetchPrices bool
}

// SMTPConfig represents the configuration for briefing delivery
type SMTPConfig struct {
	Address  string
	Username string
	Password string
	From     string
	// Security is starttls, tls or none
	Security string
}

// GitHubConfig represents the configuration for the gh CLI
type GitHubConfig struct {
	GhBin string
	Limit int
	Token string
}

// HomeAssistantConfig represents the configuration for the Home Assistant REST API
type HomeAssistantConfig struct {
	URL           string
	Token         string
	DefaultURL    string
	Workspace     string
	SecretsDir    string
	InventoryPath string
	ContextDir    string
}

// GetMail returns the mail backend configuration
func (c *Config) GetMail() MailConfig {
	return MailConfig{
		Backend:     c.GetString("mail.backend"),
		HimalayaBin: c.GetString("mail.himalaya_bin"),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Address:  c.GetString("imap.address"),
		Username: c.GetString("imap.username"),
		Password: c.GetString("imap.password"),
		TLS:      c.GetBool("imap.tls"),
	}
}

// GetTriage returns the triage configuration
func (c *Config) GetTriage() TriageConfig {
	return TriageConfig{
		Account:      c.GetString("triage.account"),
		SourceFolder: c.GetString("triage.source_folder"),
		RulesPath:    c.GetString("triage.rules_path"),
		StatePath:    c.GetString("triage.state_path"),
		Limit:        c.GetInt("triage.limit"),
		MaxItems:     c.GetInt("triage.max_items"),
	}
}

// GetCosts returns the usage report configuration
func (c *Config) GetCosts() CostsConfig {
	return CostsConfig{
		Root:     c.GetString("costs.root"),
		Timezone: c.GetString("costs.timezone"),
	}
}

// GetPriceCache returns the price cache configuration
func (c *Config) GetPriceCache() PriceCacheConfig {
	return PriceCacheConfig{
		Type:       c.GetString("costs.price_cache.type"),
		Path:       c.GetString("costs.price_cache.path"),
		SQLitePath: c.GetString("costs.price_cache.sqlite_path"),
		MySQLDSN:   c.GetString("costs.price_cache.mysql_dsn"),
	}
}

// GetOpenRouter returns the OpenRouter configuration. Zero or an invalid
// timeout leaves requests without a deadline.
func (c *Config) GetOpenRouter() OpenRouterConfig {
	timeout, err := c.GetDuration("openrouter.timeout")
	if err != nil || timeout < 0 {
		timeout = 0
	}
	return OpenRouterConfig{
		APIKey:  c.GetString("openrouter.api_key"),
		BaseURL: strings.TrimRight(c.GetString("openrouter.base_url"), "/"),
		Timeout: timeout,
	}
}

// GetBriefing returns the daily briefing configuration
func (c *Config) GetBriefing() BriefingConfig {
	return BriefingConfig{
		Timezone:  c.GetString("briefing.timezone"),
		Account:   c.GetString("briefing.account"),
		Folder:    c.GetString("briefing.folder"),
		PageSize:  c.GetInt("briefing.page_size"),
		Top:       c.GetInt("briefing.top"),
		MemoryDir: c.GetString("briefing.memory_dir"),
		MailTo:    c.GetStringSlice("briefing.mail_to"),
		Subject:   c.GetString("briefing.subject"),

		FetchPrices: c.GetBool("briefing.fetch_prices"),
	}
}

// GetSMTP returns the SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address:  c.GetString("smtp.address"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
		Security: c.GetString("smtp.security"),
	}
}

// GetGitHub returns the GitHub CLI configuration
func (c *Config) GetGitHub() GitHubConfig {
	return GitHubConfig{
		GhBin: c.GetString("github.gh_bin"),
		Limit: c.GetInt("github.limit"),
		Token: c.GetString("github.token"),
	}
}

// GetHomeAssistant returns the Home Assistant configuration. Paths left
// empty are derived from the workspace directory.
func (c *Config) GetHomeAssistant() HomeAssistantConfig {
	hc := HomeAssistantConfig{
		URL:           c.GetString("homeassistant.url"),
		Token:         c.GetString("homeassistant.token"),
		DefaultURL:    c.GetString("homeassistant.default_url"),
		Workspace:     c.GetString("homeassistant.workspace"),
		SecretsDir:    c.GetString("homeassistant.secrets_dir"),
		InventoryPath: c.GetString("homeassistant.inventory_path"),
		ContextDir:    c.GetString("homeassistant.context_dir"),
	}
	if hc.SecretsDir == "" {
		hc.SecretsDir = filepath.Join(hc.Workspace, "secrets")
	}
	if hc.InventoryPath == "" {
		hc.InventoryPath = filepath.Join(hc.Workspace, "memory", "homeassistant-overview.md")
	}
	if hc.ContextDir == "" {
		hc.ContextDir = filepath.Join(hc.Workspace, "skills", "homeassistant", "references")
	}
	return hc
}
