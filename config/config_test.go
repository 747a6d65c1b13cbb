package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, "0.0.0.0:10000", cfg.Addr())
		assert.Equal(t, 3*time.Second, cfg.Compose.Interval())
		assert.Equal(t, 30*time.Second, cfg.Mail.Timeout())
		assert.False(t, cfg.IMAP.Enabled())
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		content := `
[server]
port = 8080

[storage]
resume_dir = "/srv/resumes"

[mail]
transport = "smtp"

[compose]
interval_ms = 500

[imap]
server = "imap.example.com"
`
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, "/srv/resumes", cfg.Storage.ResumeDir)
		assert.Equal(t, "settings.json", cfg.Storage.SettingsFile)
		assert.Equal(t, TransportSMTP, cfg.Mail.Transport)
		assert.Equal(t, 500*time.Millisecond, cfg.Compose.Interval())
		assert.True(t, cfg.IMAP.Enabled())
		assert.Equal(t, 993, cfg.IMAP.Port)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 8080\n"), 0o644))
		t.Setenv("JOBMAIL_PORT", "9090")
		t.Setenv("JOBMAIL_TRANSPORT", " SMTP ")
		t.Setenv("JOBMAIL_SETTINGS_FILE", "/data/settings.json")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, TransportSMTP, cfg.Mail.Transport)
		assert.Equal(t, "/data/settings.json", cfg.Storage.SettingsFile)
	})

	t.Run("bad env number", func(t *testing.T) {
		t.Setenv("JOBMAIL_PORT", "abc")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JOBMAIL_PORT")
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o644))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("unknown transport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[mail]\ntransport = \"fax\"\n"), 0o644))
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fax")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.SettingsFile = ""
	assert.Error(t, cfg.Validate())
}
