// Package config loads settings from flags, CPARCHIVE_* environment
// variables and an optional cparchive.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cparchive/internal/browser"
	"cparchive/internal/fetcher"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CPARCHIVE_BROWSER_PROXY.
const EnvPrefix = "CPARCHIVE"

// Config is the resolved configuration of one run.
type Config struct {
	Browser   browser.Config
	Timeouts  fetcher.Timeouts
	HTTP      fetcher.HTTPConfig
	LogLevel  string
	LogPretty bool
	// StorePath is the sqlite database. Empty keeps records in memory.
	StorePath string
}

// New returns a viper instance with defaults, environment binding and the
// config file search path set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("cparchive")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.config/cparchive")
	}

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", os.Geteuid() == 0)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.bundled_bin", "")
	v.SetDefault("browser.constrained", constrainedEnvironment())
	v.SetDefault("browser.idle_timeout", browser.DefaultIdleTimeout)
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.user_agent", browser.DefaultUserAgent)

	v.SetDefault("timeouts.navigation", fetcher.DefaultTimeouts.Navigation)
	v.SetDefault("timeouts.content", fetcher.DefaultTimeouts.Content)
	v.SetDefault("timeouts.api", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("store.path", "")
}

// constrainedEnvironment probes for serverless runtimes, where no full
// browser can be installed and only the bundled binary runs.
func constrainedEnvironment() bool {
	for _, key := range []string{"AWS_LAMBDA_FUNCTION_NAME", "VERCEL", "NETLIFY", "K_SERVICE"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

// ReadFile reads the config file if one exists. path overrides the search.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load resolves v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Browser: browser.Config{
			Headless:    v.GetBool("browser.headless"),
			NoSandbox:   v.GetBool("browser.no_sandbox"),
			Bin:         v.GetString("browser.bin"),
			BundledBin:  v.GetString("browser.bundled_bin"),
			Constrained: v.GetBool("browser.constrained"),
			ProxyURL:    v.GetString("browser.proxy"),
			UserAgent:   v.GetString("browser.user_agent"),
			IdleTimeout: v.GetDuration("browser.idle_timeout"),
		},
		Timeouts: fetcher.Timeouts{
			Navigation: v.GetDuration("timeouts.navigation"),
			Content:    v.GetDuration("timeouts.content"),
		},
		LogLevel:  v.GetString("log.level"),
		LogPretty: v.GetBool("log.pretty"),
		StorePath: v.GetString("store.path"),
	}
	cfg.HTTP = fetcher.HTTPConfig{
		Timeout:   v.GetDuration("timeouts.api"),
		ProxyURL:  cfg.Browser.ProxyURL,
		UserAgent: cfg.Browser.UserAgent,
	}

	if cfg.Browser.Constrained && cfg.Browser.BundledBin == "" {
		return nil, errors.New("browser.constrained requires browser.bundled_bin")
	}
	for key, d := range map[string]time.Duration{
		"browser.idle_timeout": cfg.Browser.IdleTimeout,
		"timeouts.navigation":  cfg.Timeouts.Navigation,
		"timeouts.content":     cfg.Timeouts.Content,
		"timeouts.api":         cfg.HTTP.Timeout,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	return cfg, nil
}
