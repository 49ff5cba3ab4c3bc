// File: internal/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Portal   PortalConfig   `mapstructure:"portal" yaml:"portal"`
	Flow     FlowConfig     `mapstructure:"flow" yaml:"flow"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
}

// LoggerConfig holds all the configuration for the logger.
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

// ColorConfig defines the console color names for each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// PortalConfig identifies the portal login entry point.
type PortalConfig struct {
	LoginURL string `mapstructure:"login_url" yaml:"login_url"`
}

// FlowConfig bounds every wait in the login flow. Each step owns exactly one
// deadline; there is no global flow timeout beyond the caller's context.
type FlowConfig struct {
	LoginFieldWait   time.Duration `mapstructure:"login_field_wait" yaml:"login_field_wait"`
	PasswordWait     time.Duration `mapstructure:"password_wait" yaml:"password_wait"`
	UserInfoWait     time.Duration `mapstructure:"user_info_wait" yaml:"user_info_wait"`
	CaptchaWait      time.Duration `mapstructure:"captcha_wait" yaml:"captcha_wait"`
	TokenPayloadWait time.Duration `mapstructure:"token_payload_wait" yaml:"token_payload_wait"`
	ActionTimeout    time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// CacheConfig locates the persisted token record.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ScheduleConfig holds settings for the downstream schedule client.
type ScheduleConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	DeviceOS       string        `mapstructure:"device_os" yaml:"device_os"`
	DeviceModel    string        `mapstructure:"device_model" yaml:"device_model"`
}

// NewDefaultConfig returns a Config populated with production defaults.
// Viper overlays file and environment values on top of this.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "eduvulcan",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      14,
			Colors: ColorConfig{
				Debug: "cyan",
				Info:  "green",
				Warn:  "yellow",
				Error: "red",
				Fatal: "magenta",
			},
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 60 * time.Second,
		},
		Portal: PortalConfig{
			LoginURL: "https://eduvulcan.pl/api/ap",
		},
		Flow: FlowConfig{
			LoginFieldWait:   20 * time.Second,
			PasswordWait:     20 * time.Second,
			UserInfoWait:     15 * time.Second,
			CaptchaWait:      10 * time.Minute,
			TokenPayloadWait: 30 * time.Second,
			ActionTimeout:    5 * time.Second,
			PollInterval:     200 * time.Millisecond,
		},
		Cache: CacheConfig{
			Path: "eduvulcan_token.json",
		},
		Schedule: ScheduleConfig{
			BaseURL:        "https://lekcjaplus.vulcan.net.pl",
			RequestTimeout: 30 * time.Second,
			DeviceOS:       "Android",
			DeviceModel:    "SM-A525F",
		},
	}
}

// Validate checks the configuration for values the rest of the application
// cannot work around.
func (c *Config) Validate() error {
	if c.Portal.LoginURL == "" {
		return fmt.Errorf("portal.login_url must not be empty")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must not be empty")
	}
	if c.Flow.PollInterval <= 0 {
		return fmt.Errorf("flow.poll_interval must be positive, got %s", c.Flow.PollInterval)
	}
	for name, d := range map[string]time.Duration{
		"flow.login_field_wait":   c.Flow.LoginFieldWait,
		"flow.password_wait":      c.Flow.PasswordWait,
		"flow.captcha_wait":       c.Flow.CaptchaWait,
		"flow.token_payload_wait": c.Flow.TokenPayloadWait,
		"flow.action_timeout":     c.Flow.ActionTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}
