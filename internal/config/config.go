// Package config loads and validates engine configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/osintworks/trailhound/internal/extract"
)

// Config captures all engine configuration knobs loaded via Viper.
type Config struct {
	Investigation InvestigationConfig `mapstructure:"investigation"`
	Fetch         FetchConfig         `mapstructure:"fetch"`
	Search        SearchConfig        `mapstructure:"search"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
	Advisor       AdvisorConfig       `mapstructure:"advisor"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Scoring       extract.Weights     `mapstructure:"scoring"`
	Server        ServerConfig        `mapstructure:"server"`
	Journal       JournalConfig       `mapstructure:"journal"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// InvestigationConfig governs the loop itself.
type InvestigationConfig struct {
	Objective         string   `mapstructure:"objective"`
	Entity            string   `mapstructure:"entity"`
	MaxIterations     int      `mapstructure:"max_iterations"`
	MaxHours          float64  `mapstructure:"max_hours"`
	MaxIdleIterations int      `mapstructure:"max_idle_iterations"`
	FromYear          int      `mapstructure:"from_year"`
	Seed              int64    `mapstructure:"seed"`
	PriorityDomains   []string `mapstructure:"priority_domains"`
	FallbackSources   []string `mapstructure:"fallback_sources"`
}

// FetchConfig controls the page fetcher.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// SearchConfig controls the search collaborator.
type SearchConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
}

// ArchiveConfig controls the historical snapshot client.
type ArchiveConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// AdvisorConfig controls the advisory oracle.
type AdvisorConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// RateLimitConfig paces outbound fetches per domain.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// JournalConfig controls run persistence.
type JournalConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoggingConfig selects the logger profile.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads configuration from an optional file plus TRAILHOUND_* env vars
// and validates the structural fields. Objective and entity usually arrive
// from CLI flags afterwards and are validated at run start.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAILHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Advisor.APIKey == "" {
		cfg.Advisor.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("investigation.max_iterations", 50)
	v.SetDefault("investigation.max_hours", 2.0)
	v.SetDefault("investigation.max_idle_iterations", 5)
	v.SetDefault("investigation.from_year", 2013)
	v.SetDefault("investigation.seed", 0)
	v.SetDefault("investigation.priority_domains", []string{})
	v.SetDefault("investigation.fallback_sources", []string{})

	v.SetDefault("fetch.user_agent", "trailhound/0.1")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.respect_robots", false)

	v.SetDefault("search.base_url", "")
	v.SetDefault("search.max_results", 10)

	v.SetDefault("archive.base_url", "")

	v.SetDefault("advisor.model", "")
	v.SetDefault("advisor.max_tokens", 2000)

	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 1)

	w := extract.DefaultWeights()
	v.SetDefault("scoring.trusted_domain", w.TrustedDomain)
	v.SetDefault("scoring.org_domain", w.OrgDomain)
	v.SetDefault("scoring.community_domain", w.CommunityDomain)
	v.SetDefault("scoring.archival_date", w.ArchivalDate)
	v.SetDefault("scoring.warning_phrase", w.WarningPhrase)
	v.SetDefault("scoring.plausible_length", w.PlausibleLength)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)

	v.SetDefault("journal.base_dir", "results")

	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Investigation.MaxIterations <= 0 {
		return fmt.Errorf("investigation.max_iterations must be > 0")
	}
	if c.Investigation.MaxHours <= 0 {
		return fmt.Errorf("investigation.max_hours must be > 0")
	}
	if c.Investigation.MaxIdleIterations <= 0 {
		return fmt.Errorf("investigation.max_idle_iterations must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the status server is enabled")
	}
	if c.Journal.BaseDir == "" {
		return fmt.Errorf("journal.base_dir is required")
	}
	return nil
}

// ValidateRun checks the fields that must be present once a run starts.
func (c Config) ValidateRun() error {
	if strings.TrimSpace(c.Investigation.Objective) == "" {
		return fmt.Errorf("investigation.objective is required")
	}
	if strings.TrimSpace(c.Investigation.Entity) == "" {
		return fmt.Errorf("investigation.entity is required")
	}
	if c.Advisor.APIKey == "" {
		return fmt.Errorf("advisor.api_key is required (or set ANTHROPIC_API_KEY)")
	}
	return nil
}

// FetchTimeout converts the fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// MaxRuntime converts the wall-clock budget into a duration.
func (c Config) MaxRuntime() time.Duration {
	return time.Duration(c.Investigation.MaxHours * float64(time.Hour))
}
