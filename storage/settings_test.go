package storage

import (
	"encoding/json"
	"jobmail/models"
	"jobmail/utils"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsStorage_Load(t *testing.T) {
	t.Run("missing file is created with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		s := NewSettingsStorage(path)

		got := s.Load()
		assert.Equal(t, models.DefaultSettings(), got)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var onDisk models.Settings
		require.NoError(t, json.Unmarshal(data, &onDisk))
		assert.Equal(t, models.DefaultSettings(), onDisk)
		assert.True(t, strings.Contains(string(data), "\n  \""), "file should be indented")
	})

	t.Run("missing keys are backfilled, unknown keys kept", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ACCESS_PIN":"1234","CUSTOM":"x"}`), 0o600))

		got := NewSettingsStorage(path).Load()
		assert.Equal(t, "1234", got[models.KeyAccessPIN])
		assert.Equal(t, "x", got["CUSTOM"])
		assert.Equal(t, models.DefaultEmailBody, got[models.KeyEmailBody])
		assert.Equal(t, "587", got[models.KeySMTPPort])
	})

	t.Run("corrupt file falls back to defaults and is left alone", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

		got := NewSettingsStorage(path).Load()
		assert.Equal(t, models.DefaultSettings(), got)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, `{not json`, string(data))
	})

	t.Run("scalar values of any type are kept as text", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		raw := `{"SMTP_PORT": 587, "ACCESS_PIN": "1234", "FLAG": true, "GONE": null, "NESTED": {"a": 1}}`
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

		got := NewSettingsStorage(path).Load()
		assert.Equal(t, "587", got[models.KeySMTPPort])
		assert.Equal(t, "1234", got[models.KeyAccessPIN])
		assert.Equal(t, "true", got["FLAG"])
		assert.NotContains(t, got, "GONE")
		assert.NotContains(t, got, "NESTED")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, raw, string(data), "loading does not rewrite the file")
	})

	t.Run("top-level null falls back to defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`null`), 0o600))
		assert.Equal(t, models.DefaultSettings(), NewSettingsStorage(path).Load())
	})

	t.Run("directory instead of file falls back to defaults", func(t *testing.T) {
		path := t.TempDir()
		got := NewSettingsStorage(path).Load()
		assert.Equal(t, models.DefaultSettings(), got)
	})
}

func TestSettingsStorage_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := NewSettingsStorage(path)
	s.Load()

	settings := models.DefaultSettings()
	settings[models.KeyEmailBody] = "Hi <team> & \"friends\"\nline two"
	settings[models.KeySendGridAPIKey] = "SG.key"
	require.NoError(t, s.Save(settings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<team> &", "html characters are written as is")

	got := NewSettingsStorage(path).Load()
	assert.Equal(t, settings, got)
}

func TestSettingsStorage_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewSettingsStorage(path)
	s.Load()

	require.NoError(t, s.Update(map[string]string{
		models.KeyAccessPIN:   "9999",
		models.KeySenderEmail: "me@example.com",
	}))

	assert.Equal(t, "9999", s.Get(models.KeyAccessPIN))
	assert.Equal(t, "me@example.com", s.Current()[models.KeySenderEmail])
	assert.Equal(t, models.DefaultEmailBody, s.Get(models.KeyEmailBody))

	reloaded := NewSettingsStorage(path).Load()
	assert.Equal(t, "9999", reloaded[models.KeyAccessPIN])
}

func TestSettingsStorage_SaveOwnsValues(t *testing.T) {
	s := NewSettingsStorage(filepath.Join(t.TempDir(), "settings.json"))
	s.Load()

	// a string sharing memory with a buffer that is reused after the call
	buf := []byte("5678")
	pin := unsafe.String(&buf[0], len(buf))
	require.NoError(t, s.Update(map[string]string{models.KeyAccessPIN: pin}))

	copy(buf, "0000")
	assert.Equal(t, "5678", s.Get(models.KeyAccessPIN))
}

func TestSettingsStorage_CurrentIsCopy(t *testing.T) {
	s := NewSettingsStorage(filepath.Join(t.TempDir(), "settings.json"))
	s.Load()

	cur := s.Current()
	cur[models.KeyAccessPIN] = "changed"
	assert.Empty(t, s.Get(models.KeyAccessPIN))
}

func TestSettingsStorage_SaveError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := NewSettingsStorage(filepath.Join(blocker, "settings.json"))
	err := s.Save(models.DefaultSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrPersistence)
}
