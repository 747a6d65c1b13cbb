package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Transport names accepted in [mail] transport
const (
	TransportSendGrid = "sendgrid"
	TransportSMTP     = "smtp"
)

// DefaultSendGridEndpoint is the v3 mail send URL
const DefaultSendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	DataDir      string `toml:"data_dir"` // bolt file for sessions lives here
	SessionHours int    `toml:"session_hours"`
	RateLimit    int    `toml:"rate_limit"` // requests per minute per IP
}

type StorageConfig struct {
	SettingsFile    string `toml:"settings_file"`
	ResumeDir       string `toml:"resume_dir"`
	PreferredResume string `toml:"preferred_resume"`
}

type MailConfig struct {
	Transport        string `toml:"transport"` // "sendgrid" or "smtp"
	SendGridEndpoint string `toml:"sendgrid_endpoint"`
	TimeoutSec       int    `toml:"timeout_sec"`
}

type ComposeConfig struct {
	IntervalMs int `toml:"interval_ms"`
}

// IMAPConfig enables filing a copy of each sent message; empty Server disables it
type IMAPConfig struct {
	Server      string   `toml:"server"`
	Port        int      `toml:"port"`
	SentFolders []string `toml:"sent_folders"`
}

type AccessConfig struct {
	Secret   string `toml:"secret"` // signs unlock tokens; random per process when empty
	TokenTTL int    `toml:"token_ttl_hours"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Mail    MailConfig    `toml:"mail"`
	Compose ComposeConfig `toml:"compose"`
	IMAP    IMAPConfig    `toml:"imap"`
	Access  AccessConfig  `toml:"access"`
	Log     LogConfig     `toml:"log"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var config Config

	config.Server.Host = "0.0.0.0"
	config.Server.Port = 10000
	config.Server.DataDir = "./data"
	config.Server.SessionHours = 24
	config.Server.RateLimit = 100

	config.Storage.SettingsFile = "settings.json"
	config.Storage.ResumeDir = "."
	config.Storage.PreferredResume = "Resume.docx"

	config.Mail.Transport = TransportSendGrid
	config.Mail.SendGridEndpoint = DefaultSendGridEndpoint
	config.Mail.TimeoutSec = 30

	config.Compose.IntervalMs = 3000

	config.IMAP.Port = 993
	config.IMAP.SentFolders = []string{"Sent", "Sent Items", "Sent Mail"}

	config.Access.TokenTTL = 12

	config.Log.Level = "info"
	return &config
}

// LoadConfig reads filepath over the defaults, then applies JOBMAIL_* environment
// overrides. A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	config := Default()

	if _, err := toml.DecodeFile(filepath, config); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath, err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Mail.Transport {
	case TransportSendGrid, TransportSMTP:
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Storage.SettingsFile == "" {
		return fmt.Errorf("settings file path is required")
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Interval is the minimum gap between draft generations
func (c *ComposeConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Timeout is the relay request timeout
func (c *MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Enabled reports whether Sent-folder copies are configured
func (c *IMAPConfig) Enabled() bool {
	return c.Server != ""
}

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv("JOBMAIL_" + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := os.LookupEnv("JOBMAIL_" + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid JOBMAIL_%s %q: %w", name, v, err)
		}
		*dst = n
		return nil
	}

	str("HOST", &c.Server.Host)
	str("DATA_DIR", &c.Server.DataDir)
	str("SETTINGS_FILE", &c.Storage.SettingsFile)
	str("RESUME_DIR", &c.Storage.ResumeDir)
	str("PREFERRED_RESUME", &c.Storage.PreferredResume)
	str("TRANSPORT", &c.Mail.Transport)
	str("SENDGRID_ENDPOINT", &c.Mail.SendGridEndpoint)
	str("IMAP_SERVER", &c.IMAP.Server)
	str("SECRET", &c.Access.Secret)
	str("LOG_LEVEL", &c.Log.Level)
	c.Mail.Transport = strings.ToLower(strings.TrimSpace(c.Mail.Transport))

	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	return num("IMAP_PORT", &c.IMAP.Port)
}
