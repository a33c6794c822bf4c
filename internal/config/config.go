// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/formctl/internal/browser/forms"
)

// EnvPrefix namespaces environment overrides, e.g. FORMCTL_NETWORK_DRY_RUN.
const EnvPrefix = "FORMCTL"

// Interface defines the contract for accessing application configuration.
// Commands depend on it so tests can substitute their own values.
type Interface interface {
	Logger() LoggerConfig
	Document() DocumentConfig
	Forms() FormsConfig
	Network() NetworkConfig

	SetDocumentURL(string)
	SetFormsInvalidEvents(string)
	SetFormsInteractive(string)
	SetFormsScripts(bool)
	SetNetworkDryRun(bool)
	SetNetworkRateLimit(float64)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DocumentCfg DocumentConfig `mapstructure:"document" yaml:"document"`
	FormsCfg    FormsConfig    `mapstructure:"forms" yaml:"forms"`
	NetworkCfg  NetworkConfig  `mapstructure:"network" yaml:"network"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Document() DocumentConfig { return c.DocumentCfg }
func (c *Config) Forms() FormsConfig       { return c.FormsCfg }
func (c *Config) Network() NetworkConfig   { return c.NetworkCfg }

func (c *Config) SetDocumentURL(u string)        { c.DocumentCfg.URL = u }
func (c *Config) SetFormsInvalidEvents(s string) { c.FormsCfg.InvalidEvents = s }
func (c *Config) SetFormsInteractive(s string)   { c.FormsCfg.Interactive = s }
func (c *Config) SetFormsScripts(b bool)         { c.FormsCfg.Scripts = b }
func (c *Config) SetNetworkDryRun(b bool)        { c.NetworkCfg.DryRun = b }
func (c *Config) SetNetworkRateLimit(r float64)  { c.NetworkCfg.RateLimit = r }

// LoggerConfig controls the zap logger built by the observability package.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig holds ANSI color codes for console log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DocumentConfig describes the document that loaded markup is attached to.
type DocumentConfig struct {
	// URL is the document address used for action resolution when the
	// markup comes from a file.
	URL string `mapstructure:"url" yaml:"url"`
}

// FormsConfig selects the form container policies.
type FormsConfig struct {
	InvalidEvents string `mapstructure:"invalid_events" yaml:"invalid_events"`
	Interactive   string `mapstructure:"interactive" yaml:"interactive"`
	// Scripts compiles inline on* handler attributes into listeners.
	Scripts bool `mapstructure:"scripts" yaml:"scripts"`
}

// InvalidEventPolicy returns the parsed policy. Validate has already
// rejected unknown values for configs built by NewConfigFromViper.
func (f FormsConfig) InvalidEventPolicy() forms.InvalidEventPolicy {
	p, _ := forms.ParseInvalidEventPolicy(f.InvalidEvents)
	return p
}

// InteractiveMode returns the parsed interactive validation mode.
func (f FormsConfig) InteractiveMode() forms.InteractiveMode {
	m, _ := forms.ParseInteractiveMode(f.Interactive)
	return m
}

// NetworkConfig configures the HTTP form submitter.
type NetworkConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit        float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst            int           `mapstructure:"burst" yaml:"burst"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	IgnoreTLSErrors  bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Proxy            string        `mapstructure:"proxy" yaml:"proxy"`
	FollowRedirects  bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes" yaml:"max_response_bytes"`
	// DryRun records encoded submissions instead of sending them.
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every key with its default value. Keys must be
// known to viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "formctl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Document --
	v.SetDefault("document.url", "about:blank")

	// -- Forms --
	v.SetDefault("forms.invalid_events", forms.InvalidEventsExcludeCancelled.String())
	v.SetDefault("forms.interactive", forms.InteractiveFocusFirst.String())
	v.SetDefault("forms.scripts", true)

	// -- Network --
	v.SetDefault("network.timeout", "30s")
	v.SetDefault("network.rate_limit", 2.0)
	v.SetDefault("network.burst", 1)
	v.SetDefault("network.user_agent", "formctl/1.0")
	v.SetDefault("network.ignore_tls_errors", false)
	v.SetDefault("network.proxy", "")
	v.SetDefault("network.follow_redirects", true)
	v.SetDefault("network.max_response_bytes", 1<<20)
	v.SetDefault("network.dry_run", false)
}

// NewConfigFromViper builds and validates a Config from v. Environment
// variables prefixed with FORMCTL override file and default values.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.LoggerCfg.LogFile != "" {
		expanded, err := homedir.Expand(cfg.LoggerCfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("expanding logger.log_file: %w", err)
		}
		cfg.LoggerCfg.LogFile = expanded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	var errs []error
	if _, err := url.Parse(c.DocumentCfg.URL); err != nil {
		errs = append(errs, fmt.Errorf("document.url: %w", err))
	}
	if _, err := forms.ParseInvalidEventPolicy(c.FormsCfg.InvalidEvents); err != nil {
		errs = append(errs, fmt.Errorf("forms.invalid_events: %w", err))
	}
	if _, err := forms.ParseInteractiveMode(c.FormsCfg.Interactive); err != nil {
		errs = append(errs, fmt.Errorf("forms.interactive: %w", err))
	}
	if err := c.NetworkCfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the network settings.
func (n *NetworkConfig) Validate() error {
	if n.Timeout <= 0 {
		return fmt.Errorf("network.timeout must be a positive duration")
	}
	if n.RateLimit < 0 {
		return fmt.Errorf("network.rate_limit must not be negative")
	}
	if n.Burst < 1 {
		return fmt.Errorf("network.burst must be at least 1")
	}
	if n.Proxy != "" {
		if _, err := n.ProxyURL(); err != nil {
			return err
		}
	}
	return nil
}

// ProxyURL parses the proxy setting. It returns nil when no proxy is set.
func (n NetworkConfig) ProxyURL() (*url.URL, error) {
	if n.Proxy == "" {
		return nil, nil
	}
	u, err := url.Parse(n.Proxy)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("network.proxy %q is not an absolute URL", n.Proxy)
	}
	return u, nil
}
