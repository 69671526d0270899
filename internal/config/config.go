package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/harvester/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Financial FinancialConfig `mapstructure:"financial"`
	Funds     FundsConfig     `mapstructure:"funds"`
	Comments  CommentsConfig  `mapstructure:"comments"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type StorageConfig struct {
	Type       string   `mapstructure:"type"` // "s3" or "localfs"
	Path       string   `mapstructure:"path"` // For localfs
	StagingDir string   `mapstructure:"staging_dir"`
	S3         S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// RateLimitConfig pauses for Pause before every Every-th call. Every of zero disables it.
type RateLimitConfig struct {
	Every int           `mapstructure:"every"`
	Pause time.Duration `mapstructure:"pause"`
}

// SymbolConfig is one identifier the per-symbol templates expand over.
type SymbolConfig struct {
	Name   string `mapstructure:"name"`
	Symbol string `mapstructure:"symbol"`
}

// FinancialConfig drives the schedule-based financial-data harvester.
// Viper lower-cases map keys, so template names and schedule labels are
// case-insensitive; the provider sees the template's "function" value.
type FinancialConfig struct {
	BaseURL       string                       `mapstructure:"base_url"`
	APIKey        string                       `mapstructure:"api_key"`
	APIKeyParam   string                       `mapstructure:"api_key_param"`
	KeyPrefix     string                       `mapstructure:"key_prefix"`
	SharedSegment string                       `mapstructure:"shared_segment"`
	RateLimit     RateLimitConfig              `mapstructure:"rate_limit"`
	Templates     map[string]map[string]string `mapstructure:"templates"`
	Schedules     map[string][]string          `mapstructure:"schedules"`
	Symbols       []SymbolConfig               `mapstructure:"symbols"`
}

type FundsConfig struct {
	URL       string          `mapstructure:"url"`
	Key       string          `mapstructure:"key"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type CommentsConfig struct {
	BaseURL     string          `mapstructure:"base_url"`
	APIKey      string          `mapstructure:"api_key"`
	Query       string          `mapstructure:"query"`
	MaxResults  int             `mapstructure:"max_results"`
	MaxComments int             `mapstructure:"max_comments"`
	KeyPrefix   string          `mapstructure:"key_prefix"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// envOnlyKeys have no default, so viper only sees them from the
// environment once bound (e.g. STORAGE_S3_BUCKET, FINANCIAL_API_KEY).
var envOnlyKeys = []string{
	"storage.staging_dir",
	"storage.s3.bucket",
	"storage.s3.endpoint",
	"storage.s3.access_key",
	"storage.s3.secret_key",
	"storage.s3.prefix",
	"financial.api_key",
	"comments.api_key",
	"comments.query",
	"metrics.textfile",
}

// Load reads configuration from file on top of Defaults. An empty path
// skips the file and takes overrides from the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("binding %s: %w", key, err))
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("reading config: %w", err))
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("financial.base_url", d.Financial.BaseURL)
	v.SetDefault("financial.api_key_param", d.Financial.APIKeyParam)
	v.SetDefault("financial.key_prefix", d.Financial.KeyPrefix)
	v.SetDefault("financial.shared_segment", d.Financial.SharedSegment)
	v.SetDefault("financial.rate_limit.every", d.Financial.RateLimit.Every)
	v.SetDefault("financial.rate_limit.pause", d.Financial.RateLimit.Pause)
	v.SetDefault("funds.url", d.Funds.URL)
	v.SetDefault("funds.key", d.Funds.Key)
	v.SetDefault("comments.base_url", d.Comments.BaseURL)
	v.SetDefault("comments.max_results", d.Comments.MaxResults)
	v.SetDefault("comments.max_comments", d.Comments.MaxComments)
	v.SetDefault("comments.key_prefix", d.Comments.KeyPrefix)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "harvester/1.0",
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "./data",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Financial: FinancialConfig{
			BaseURL:       "https://www.alphavantage.co/query",
			APIKeyParam:   "apikey",
			KeyPrefix:     "financial_data",
			SharedSegment: "economic_indicators",
			RateLimit: RateLimitConfig{
				Every: 5,
				Pause: 60 * time.Second,
			},
		},
		Funds: FundsConfig{
			URL: "https://api.mfapi.in/mf",
			Key: "mf_list_output/mutual_fund_list.json",
		},
		Comments: CommentsConfig{
			BaseURL:     "https://www.googleapis.com/youtube/v3",
			MaxResults:  10,
			MaxComments: 100,
			KeyPrefix:   "youtube_comments",
		},
	}
}

// Validate checks the configuration shared by every harvester.
func (c *Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout))
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.path required when type is localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.s3.bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage.type must be localfs or s3, got %q", c.Storage.Type))
	}

	for name, rl := range map[string]RateLimitConfig{
		"financial": c.Financial.RateLimit,
		"funds":     c.Funds.RateLimit,
		"comments":  c.Comments.RateLimit,
	} {
		if rl.Every < 0 || rl.Pause < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s.rate_limit cannot be negative", name))
		}
	}

	return nil
}

// ValidateFinancial checks the settings the financial harvester needs.
func (c *Config) ValidateFinancial() error {
	f := c.Financial
	if f.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("financial.base_url required"))
	}
	if f.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("financial.api_key required"))
	}
	if len(f.Schedules) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("financial.schedules required"))
	}
	for i, s := range f.Symbols {
		if s.Symbol == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("financial.symbols[%d] has no symbol", i))
		}
	}
	return nil
}

// ValidateFunds checks the settings the fund-listing harvester needs.
func (c *Config) ValidateFunds() error {
	if c.Funds.URL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("funds.url required"))
	}
	if c.Funds.Key == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("funds.key required"))
	}
	return nil
}

// Upper bounds of maxResults accepted by search.list and commentThreads.list
const (
	MaxSearchResults  = 50
	MaxCommentThreads = 100
)

// ValidateComments checks the settings the comment harvester needs.
func (c *Config) ValidateComments() error {
	cc := c.Comments
	if cc.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("comments.api_key required"))
	}
	if cc.MaxResults <= 0 || cc.MaxComments <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("comments.max_results and comments.max_comments must be positive"))
	}
	if cc.MaxResults > MaxSearchResults {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("comments.max_results cannot exceed %d, got %d", MaxSearchResults, cc.MaxResults))
	}
	if cc.MaxComments > MaxCommentThreads {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("comments.max_comments cannot exceed %d, got %d", MaxCommentThreads, cc.MaxComments))
	}
	return nil
}
