package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/address-simplifier/internal/oracle"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env  string `mapstructure:"env" yaml:"env"`
	Port string `mapstructure:"port" yaml:"port"`
}

type OracleCfg struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	InputSelector    string        `mapstructure:"input_selector" yaml:"input_selector"`
	SubmitSelector   string        `mapstructure:"submit_selector" yaml:"submit_selector"`
	PanelSelector    string        `mapstructure:"panel_selector" yaml:"panel_selector"`
	PanelIdleClass   string        `mapstructure:"panel_idle_class" yaml:"panel_idle_class"`
	PanelMaskedClass string        `mapstructure:"panel_masked_class" yaml:"panel_masked_class"`
	ResultXPath      string        `mapstructure:"result_xpath" yaml:"result_xpath"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Headless         bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath         string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	PoolSize         int           `mapstructure:"pool_size" yaml:"pool_size"`
	RatePerSecond    float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst            int           `mapstructure:"burst" yaml:"burst"`
	WarmUp           bool          `mapstructure:"warm_up" yaml:"warm_up"`
}

type AddressCfg struct {
	CityPrefix string `mapstructure:"city_prefix" yaml:"city_prefix"`
}

type CacheCfg struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	L1Size   int           `mapstructure:"l1_size" yaml:"l1_size"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
}

type JobsCfg struct {
	MaxAddresses int           `mapstructure:"max_addresses" yaml:"max_addresses"`
	Retention    time.Duration `mapstructure:"retention" yaml:"retention"`
}

type Config struct {
	App     AppCfg     `mapstructure:"app" yaml:"app"`
	Oracle  OracleCfg  `mapstructure:"oracle" yaml:"oracle"`
	Address AddressCfg `mapstructure:"address" yaml:"address"`
	Cache   CacheCfg   `mapstructure:"cache" yaml:"cache"`
	Jobs    JobsCfg    `mapstructure:"jobs" yaml:"jobs"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	chrome := oracle.DefaultChromeConfig()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("oracle.url", chrome.URL)
	v.SetDefault("oracle.input_selector", chrome.InputSelector)
	v.SetDefault("oracle.submit_selector", chrome.SubmitSelector)
	v.SetDefault("oracle.panel_selector", chrome.PanelSelector)
	v.SetDefault("oracle.panel_idle_class", chrome.PanelIdleClass)
	v.SetDefault("oracle.panel_masked_class", chrome.PanelMaskedClass)
	v.SetDefault("oracle.result_xpath", chrome.ResultXPath)
	v.SetDefault("oracle.timeout", chrome.Timeout)
	v.SetDefault("oracle.poll_interval", chrome.PollInterval)
	v.SetDefault("oracle.headless", chrome.Headless)
	v.SetDefault("oracle.exec_path", "")
	v.SetDefault("oracle.user_agent", "")
	v.SetDefault("oracle.pool_size", 1)
	v.SetDefault("oracle.rate_per_second", 1.0)
	v.SetDefault("oracle.burst", 2)
	v.SetDefault("oracle.warm_up", true)

	v.SetDefault("address.city_prefix", "桃園市")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.l1_size", 10000)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("jobs.max_addresses", 500)
	v.SetDefault("jobs.retention", time.Hour)
}

// Load reads defaults, the optional config file and environment overrides.
// ORACLE_POOL_SIZE overrides oracle.pool_size and so on.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Oracle.URL == "":
		return errors.New("config: oracle.url is required")
	case c.Oracle.Timeout <= 0:
		return errors.New("config: oracle.timeout must be positive")
	case c.Oracle.PollInterval <= 0:
		return errors.New("config: oracle.poll_interval must be positive")
	case c.Oracle.PoolSize <= 0:
		return errors.New("config: oracle.pool_size must be positive")
	case c.Cache.Enabled && c.Cache.L1Size <= 0:
		return errors.New("config: cache.l1_size must be positive")
	case c.Jobs.MaxAddresses <= 0:
		return errors.New("config: jobs.max_addresses must be positive")
	}
	return nil
}

// IsProduction reports whether app.env is production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Chrome maps the oracle section onto the browser adapter's config
func (c *Config) Chrome() oracle.ChromeConfig {
	return oracle.ChromeConfig{
		URL:              c.Oracle.URL,
		InputSelector:    c.Oracle.InputSelector,
		SubmitSelector:   c.Oracle.SubmitSelector,
		PanelSelector:    c.Oracle.PanelSelector,
		PanelIdleClass:   c.Oracle.PanelIdleClass,
		PanelMaskedClass: c.Oracle.PanelMaskedClass,
		ResultXPath:      c.Oracle.ResultXPath,
		Timeout:          c.Oracle.Timeout,
		PollInterval:     c.Oracle.PollInterval,
		Headless:         c.Oracle.Headless,
		ExecPath:         c.Oracle.ExecPath,
		UserAgent:        c.Oracle.UserAgent,
	}
}
