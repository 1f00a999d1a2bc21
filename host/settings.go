package host

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Settings is a flat key/value snapshot of a source's configuration.
// Lookups fall back from user values to registered defaults to the zero
// value of the requested type. Settings is safe for concurrent use.
type Settings struct {
	mu       sync.RWMutex
	values   map[string]any
	defaults map[string]any
}

// NewSettings returns empty settings.
func NewSettings() *Settings {
	return &Settings{
		values:   make(map[string]any),
		defaults: make(map[string]any),
	}
}

// SetString sets a user string value.
func (s *Settings) SetString(key, v string) { s.set(s.values, key, v) }

// SetDouble sets a user float value.
func (s *Settings) SetDouble(key string, v float64) { s.set(s.values, key, v) }

// SetBool sets a user boolean value.
func (s *Settings) SetBool(key string, v bool) { s.set(s.values, key, v) }

// SetDefaultString registers the default string for key.
func (s *Settings) SetDefaultString(key, v string) { s.set(s.defaults, key, v) }

// SetDefaultDouble registers the default float for key.
func (s *Settings) SetDefaultDouble(key string, v float64) { s.set(s.defaults, key, v) }

func (s *Settings) set(m map[string]any, key string, v any) {
	s.mu.Lock()
	m[key] = v
	s.mu.Unlock()
}

// Erase removes the user value for key, exposing its default again.
func (s *Settings) Erase(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// String returns the string value of key, or "" if it has none.
func (s *Settings) String(key string) string {
	v, _ := s.lookup(key).(string)
	return v
}

// Double returns the numeric value of key, or 0 if it has none.
// See [Settings.Number].
func (s *Settings) Double(key string) float64 {
	v, _ := s.Number(key)
	return v
}

// Number returns the numeric value of key and whether there is one.
// Integers read from TOML are converted. A user value that is not a number
// is ignored and the default, if numeric, is used instead.
func (s *Settings) Number(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := toFloat(s.values[key]); ok {
		return v, true
	}
	return toFloat(s.defaults[key])
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns the boolean value of key, or false if it has none.
func (s *Settings) Bool(key string) bool {
	v, _ := s.lookup(key).(bool)
	return v
}

// HasUserValue reports whether key was set explicitly.
func (s *Settings) HasUserValue(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// HasDefault reports whether a default is registered for key.
func (s *Settings) HasDefault(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.defaults[key]
	return ok
}

// Keys returns every key with a user value or a default, sorted.
func (s *Settings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := slices.Collect(maps.Keys(s.values))
	for k := range s.defaults {
		if _, ok := s.values[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Apply copies the user values of other over s. Defaults are untouched.
func (s *Settings) Apply(other *Settings) {
	if other == nil || other == s {
		return
	}
	other.mu.RLock()
	values := maps.Clone(other.values)
	other.mu.RUnlock()

	s.mu.Lock()
	maps.Copy(s.values, values)
	s.mu.Unlock()
}

// Clone returns an independent copy including defaults.
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Settings{
		values:   maps.Clone(s.values),
		defaults: maps.Clone(s.defaults),
	}
}

func (s *Settings) lookup(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return s.defaults[key]
}

// LoadSettings decodes a flat TOML document into user values.
func LoadSettings(r io.Reader) (*Settings, error) {
	var raw map[string]any
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s := NewSettings()
	for k, v := range raw {
		switch v.(type) {
		case string, float64, int64, bool:
			s.values[k] = v
		default:
			return nil, fmt.Errorf("%w: %q is %T", ErrSettingsValue, k, v)
		}
	}
	return s, nil
}

// ReadSettingsFile loads settings from a TOML file.
func ReadSettingsFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()

	s, err := LoadSettings(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slogger().Debug("host: settings loaded", "path", path, "keys", len(s.values))
	return s, nil
}

// WriteTOML encodes the user values of s as TOML. Defaults are not written.
func (s *Settings) WriteTOML(w io.Writer) error {
	s.mu.RLock()
	values := maps.Clone(s.values)
	s.mu.RUnlock()

	if err := toml.NewEncoder(w).Encode(values); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return nil
}
