package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"jobmail/models"
	"jobmail/utils"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SettingsStorage persists the flat settings map as pretty-printed JSON
type SettingsStorage struct {
	path    string
	mu      sync.RWMutex
	current models.Settings
}

// NewSettingsStorage creates a settings store for the given file; call Load before use
func NewSettingsStorage(path string) *SettingsStorage {
	return &SettingsStorage{
		path:    path,
		current: models.DefaultSettings(),
	}
}

// Path returns the backing file location
func (s *SettingsStorage) Path() string {
	return s.path
}

// Load reads the settings file and makes it current. It never fails: a missing
// file is created with defaults, an unreadable or corrupt one is left alone and
// defaults are used in memory.
func (s *SettingsStorage) Load() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.current = models.DefaultSettings()
		if err := s.write(s.current); err != nil {
			utils.Log.Warn("Failed to create settings file %s: %v", s.path, err)
		} else {
			utils.Log.Info("Created settings file %s with defaults", s.path)
		}
		return s.current.Clone()
	}
	if err != nil {
		utils.Log.Warn("Failed to read settings file %s, using defaults: %v", s.path, err)
		s.current = models.DefaultSettings()
		return s.current.Clone()
	}

	loaded, err := decodeSettings(data)
	if err != nil {
		utils.Log.Warn("Failed to parse settings file %s, using defaults: %v", s.path, err)
		s.current = models.DefaultSettings()
		return s.current.Clone()
	}

	if loaded.Backfill() {
		utils.Log.Debug("Settings file %s was missing keys, defaults filled in", s.path)
	}
	s.current = loaded
	return s.current.Clone()
}

// decodeSettings reads a JSON object and keeps every scalar value as text, so a
// hand-edited "SMTP_PORT": 587 survives. Nulls and nested values are skipped.
func decodeSettings(data []byte) (models.Settings, error) {
	var raw map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("settings file is not a JSON object")
	}

	out := make(models.Settings, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			out[k] = v
		case json.Number, bool:
			out[k] = fmt.Sprint(v)
		case nil:
		default:
			utils.Log.Warn("Ignoring non-scalar setting %s", k)
		}
	}
	return out, nil
}

// Save overwrites the settings file with settings and makes a private copy of
// them current. Callers may pass strings backed by reused request buffers.
func (s *SettingsStorage) Save(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(models.Settings, len(settings))
	for k, v := range settings {
		next[strings.Clone(k)] = strings.Clone(v)
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// Update merges fields into the current settings and saves the result
func (s *SettingsStorage) Update(fields map[string]string) error {
	next := s.Current()
	for k, v := range fields {
		next[k] = v
	}
	if err := s.Save(next); err != nil {
		return err
	}
	utils.Log.Info("Settings saved: %d field(s) updated", len(fields))
	return nil
}

// Current returns a copy of the in-memory settings
func (s *SettingsStorage) Current() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Get returns a single setting value
func (s *SettingsStorage) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current[key]
}

func (s *SettingsStorage) write(settings models.Settings) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("%w: failed to marshal settings: %v", utils.ErrPersistence, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create settings directory: %v", utils.ErrPersistence, err)
		}
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("%w: failed to write settings file: %v", utils.ErrPersistence, err)
	}
	return nil
}
