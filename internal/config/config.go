package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Reddit holds upstream API credentials and identity.
type Reddit struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	// UserAgent is required by Reddit's API usage policy.
	UserAgent string `mapstructure:"user_agent"`
	// Mode selects the client implementation: "api" or "mock".
	Mode string `mapstructure:"mode"`
}

// RateLimit configures outbound request pacing.
type RateLimit struct {
	CallsPerMinute int     `mapstructure:"calls_per_minute"`
	RequestDelay   float64 `mapstructure:"request_delay_seconds"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// Search configures collection defaults and ceilings.
type Search struct {
	DefaultLimit      int      `mapstructure:"default_limit"`
	MaxLimit          int      `mapstructure:"max_limit"`
	MaxKeywords       int      `mapstructure:"max_keywords"`
	DefaultSort       string   `mapstructure:"default_sort"`
	DefaultWindow     string   `mapstructure:"default_window"`
	MaxTitleLength    int      `mapstructure:"max_title_length"`
	MaxContentLength  int      `mapstructure:"max_content_length"`
	PromoPartitions   []string `mapstructure:"promo_partitions"`
	DefaultPartitions []string `mapstructure:"default_partitions"`
}

// Detection configures the promotional content scorer.
type Detection struct {
	Keywords            []string `mapstructure:"keywords"`
	SuspiciousURLs      []string `mapstructure:"suspicious_urls"`
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold"`
	KeywordWeight       float64  `mapstructure:"keyword_weight"`
	URLWeight           float64  `mapstructure:"url_weight"`
	AuthorWeight        float64  `mapstructure:"author_weight"`
	StructureWeight     float64  `mapstructure:"structure_weight"`
	// AuthorLookup enables per-author metadata hydration (one extra API
	// call per unique author, LRU-cached).
	AuthorLookup bool `mapstructure:"author_lookup"`
}

// Storage configures the sqlite store.
type Storage struct {
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// Config is the full application configuration.
type Config struct {
	Reddit    Reddit    `mapstructure:"reddit"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
	Search    Search    `mapstructure:"search"`
	Detection Detection `mapstructure:"detection"`
	Storage   Storage   `mapstructure:"storage"`
}

// Load reads configuration from .env, config.yaml and the environment, in
// that order of increasing precedence. A missing config file is not an
// error; missing credentials surface later, when the client constructs.
func Load(path string) (*Config, error) {
	// .env is optional and only seeds process environment variables.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("reddit.mode", "api")
	v.SetDefault("reddit.user_agent", "promowatch-collector/1.0")

	// Reddit allows 60 requests per minute for OAuth clients.
	v.SetDefault("rate_limit.calls_per_minute", 60)
	v.SetDefault("rate_limit.request_delay_seconds", 1.0)
	v.SetDefault("rate_limit.timeout_seconds", 30)

	v.SetDefault("search.default_limit", 100)
	v.SetDefault("search.max_limit", 1000)
	v.SetDefault("search.max_keywords", 20)
	v.SetDefault("search.default_sort", "relevance")
	v.SetDefault("search.default_window", "week")
	v.SetDefault("search.max_title_length", 300)
	v.SetDefault("search.max_content_length", 10000)
	v.SetDefault("search.promo_partitions", []string{"deals", "sales", "coupons", "promocodes"})
	v.SetDefault("search.default_partitions", []string{"all"})

	v.SetDefault("detection.keywords", []string{
		"buy now", "click here", "limited time", "special offer", "discount",
		"promo code", "affiliate", "sponsored", "advertisement", "ad",
		"sale", "deal", "coupon", "free trial", "sign up", "register",
		"download now", "get started", "learn more", "visit our",
		"check out our", "follow us", "subscribe", "join our",
	})
	v.SetDefault("detection.suspicious_urls", []string{
		`bit\.ly`, `tinyurl`, `goo\.gl`, `t\.co`, `ow\.ly`,
		`affiliate`, `ref=`, `utm_`, `tracking`, `campaign`,
	})
	v.SetDefault("detection.confidence_threshold", 0.7)
	v.SetDefault("detection.keyword_weight", 0.4)
	v.SetDefault("detection.url_weight", 0.3)
	v.SetDefault("detection.author_weight", 0.2)
	v.SetDefault("detection.structure_weight", 0.1)
	v.SetDefault("detection.author_lookup", true)

	v.SetDefault("storage.path", "data/collector.db")
	v.SetDefault("storage.max_open_conns", 4)
}
