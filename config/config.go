package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"movequote-backend/internal/model"
)

// Config represents the overall application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Vision  VisionConfig  `yaml:"vision"`
	Routing RoutingConfig `yaml:"routing"`
	Pricing PricingConfig `yaml:"pricing"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// SessionConfig controls the in-memory wizard session store.
type SessionConfig struct {
	TTLMinutes        int           `yaml:"ttl_minutes"`
	CleanupMinutes    int           `yaml:"cleanup_minutes"`
	LoadingMillis     int           `yaml:"loading_millis"`
	TTL               time.Duration `yaml:"-"`
	CleanupInterval   time.Duration `yaml:"-"`
	MinLoadingVisible time.Duration `yaml:"-"`
}

// VisionConfig holds the external image-analysis service settings. An
// empty APIKey switches the detector to synthesized mode.
type VisionConfig struct {
	APIKey         string        `yaml:"-"` // OPENAI_API_KEY, never from file
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// Configured reports whether a usable credential is present. The
// placeholder value shipped in .env templates does not count.
func (v *VisionConfig) Configured() bool {
	return v.APIKey != "" && v.APIKey != "your_openai_api_key_here"
}

// RoutingConfig holds the external directions service settings. An
// empty APIKey switches the planner to the straight-line estimate.
type RoutingConfig struct {
	APIKey         string        `yaml:"-"` // MAPS_API_KEY, never from file
	Endpoint       string        `yaml:"endpoint"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// Configured reports whether a directions credential is present.
func (r *RoutingConfig) Configured() bool {
	return r.APIKey != ""
}

// PricingConfig holds the rate table and fee parameters.
type PricingConfig struct {
	BaseRates        map[model.ItemKey]int `yaml:"base_rates"`
	ServiceFeeBase   float64               `yaml:"service_fee_base"`
	ServiceFeeSpread float64               `yaml:"service_fee_spread"`
	TravelPerMile    float64               `yaml:"travel_per_mile"`
}

// Load reads the configuration from the given path and applies
// defaults. Credentials are taken from the environment, not the file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied, used when
// no config file is present.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 30
	}
	if cfg.Session.CleanupMinutes <= 0 {
		cfg.Session.CleanupMinutes = 10
	}
	if cfg.Session.LoadingMillis <= 0 {
		cfg.Session.LoadingMillis = 2500
	}
	cfg.Session.TTL = time.Duration(cfg.Session.TTLMinutes) * time.Minute
	cfg.Session.CleanupInterval = time.Duration(cfg.Session.CleanupMinutes) * time.Minute
	cfg.Session.MinLoadingVisible = time.Duration(cfg.Session.LoadingMillis) * time.Millisecond

	cfg.Vision.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.Vision.Endpoint == "" {
		cfg.Vision.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Vision.Model == "" {
		cfg.Vision.Model = "gpt-4o"
	}
	if cfg.Vision.TimeoutSeconds <= 0 {
		cfg.Vision.TimeoutSeconds = 60
	}
	cfg.Vision.Timeout = time.Duration(cfg.Vision.TimeoutSeconds) * time.Second

	cfg.Routing.APIKey = os.Getenv("MAPS_API_KEY")
	if cfg.Routing.Endpoint == "" {
		cfg.Routing.Endpoint = "https://maps.googleapis.com/maps/api/directions/json"
	}
	if cfg.Routing.TimeoutSeconds <= 0 {
		cfg.Routing.TimeoutSeconds = 15
	}
	cfg.Routing.Timeout = time.Duration(cfg.Routing.TimeoutSeconds) * time.Second

	if len(cfg.Pricing.BaseRates) == 0 {
		cfg.Pricing.BaseRates = map[model.ItemKey]int{
			model.ItemBedrooms:       150,
			model.ItemBathrooms:      100,
			model.ItemLargeFurniture: 80,
			model.ItemTables:         50,
			model.ItemChairs:         15,
		}
	} else {
		for k := range cfg.Pricing.BaseRates {
			if !model.ValidItemKey(k) {
				log.Printf("pricing.base_rates: unknown category %q ignored", k)
				delete(cfg.Pricing.BaseRates, k)
			}
		}
	}
	if cfg.Pricing.ServiceFeeBase <= 0 {
		cfg.Pricing.ServiceFeeBase = 50
	}
	if cfg.Pricing.ServiceFeeSpread <= 0 {
		cfg.Pricing.ServiceFeeSpread = 30
	}
	if cfg.Pricing.TravelPerMile <= 0 {
		cfg.Pricing.TravelPerMile = 0.5
	}
}
