package host_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/uvfilter/host"
)

func TestSettingsDefaultsLayer(t *testing.T) {
	s := host.NewSettings()
	s.SetDefaultDouble("lighting", 1)
	s.SetDefaultString("effect_path", "uv_filter.wgsl")

	if got := s.Double("lighting"); got != 1 {
		t.Errorf("Double(lighting) = %v, want default 1", got)
	}
	s.SetDouble("lighting", 0.25)
	if got := s.Double("lighting"); got != 0.25 {
		t.Errorf("Double(lighting) = %v, want 0.25", got)
	}
	s.Erase("lighting")
	if got := s.Double("lighting"); got != 1 {
		t.Errorf("Double(lighting) after Erase = %v, want 1", got)
	}
	if got := s.String("missing"); got != "" {
		t.Errorf("String(missing) = %q, want empty", got)
	}
	if s.HasUserValue("effect_path") || !s.HasDefault("effect_path") {
		t.Error("effect_path should only have a default")
	}
	if got := s.Double("effect_path"); got != 0 {
		t.Errorf("Double(effect_path) = %v, want 0 for a string value", got)
	}
}

func TestSettingsNumber(t *testing.T) {
	s := host.NewSettings()
	s.SetDefaultDouble("lighting", 1)

	tests := []struct {
		name   string
		set    func()
		want   float64
		wantOK bool
	}{
		{"default", func() {}, 1, true},
		{"user float", func() { s.SetDouble("lighting", 0.5) }, 0.5, true},
		{"string falls back to default", func() { s.SetString("lighting", "0.5") }, 1, true},
		{"bool falls back to default", func() { s.SetBool("lighting", true) }, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.set()
			got, ok := s.Number("lighting")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Number() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
			if d := s.Double("lighting"); d != tt.want {
				t.Errorf("Double() = %v, want %v", d, tt.want)
			}
		})
	}

	s.SetString("name", "x")
	if _, ok := s.Number("name"); ok {
		t.Error("Number(name) = ok for a string with no numeric default")
	}
	if _, ok := s.Number("missing"); ok {
		t.Error("Number(missing) = ok")
	}
}

func TestSettingsKeysAndApply(t *testing.T) {
	base := host.NewSettings()
	base.SetDefaultString("path_A", "")
	base.SetString("path_B", "b.png")

	over := host.NewSettings()
	over.SetString("path_A", "a.png")
	over.SetBool("watch", true)
	base.Apply(over)

	if diff := cmp.Diff([]string{"path_A", "path_B", "watch"}, base.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got := base.String("path_A"); got != "a.png" {
		t.Errorf("String(path_A) = %q, want a.png", got)
	}
	if !base.Bool("watch") {
		t.Error("Bool(watch) = false, want true")
	}

	clone := base.Clone()
	clone.SetString("path_B", "other.png")
	if got := base.String("path_B"); got != "b.png" {
		t.Errorf("Clone shares state: path_B = %q", got)
	}
}

func TestLoadSettings(t *testing.T) {
	doc := `
path_A = "a.png"
path_B = "b.png"
lighting = 0.5
resolution = 3
`
	s, err := host.LoadSettings(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	got := map[string]any{
		"path_A":     s.String("path_A"),
		"path_B":     s.String("path_B"),
		"lighting":   s.Double("lighting"),
		"resolution": s.Double("resolution"),
	}
	want := map[string]any{
		"path_A":     "a.png",
		"path_B":     "b.png",
		"lighting":   0.5,
		"resolution": 3.0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"table", "[nested]\nkey = 1\n", host.ErrSettingsValue},
		{"array", "paths = [\"a\", \"b\"]\n", host.ErrSettingsValue},
		{"syntax", "lighting = = 1\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := host.LoadSettings(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("LoadSettings() error = nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("LoadSettings() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSettingsTOMLRoundTrip(t *testing.T) {
	s := host.NewSettings()
	s.SetDefaultDouble("resolution", 5)
	s.SetString("path_A", "images/a.png")
	s.SetDouble("lighting", 0.75)

	var buf bytes.Buffer
	if err := s.WriteTOML(&buf); err != nil {
		t.Fatalf("WriteTOML() error = %v", err)
	}
	if strings.Contains(buf.String(), "resolution") {
		t.Errorf("WriteTOML() wrote a default value:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := host.ReadSettingsFile(path)
	if err != nil {
		t.Fatalf("ReadSettingsFile() error = %v", err)
	}
	if diff := cmp.Diff([]string{"lighting", "path_A"}, got.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got.String("path_A") != "images/a.png" || got.Double("lighting") != 0.75 {
		t.Errorf("round trip = %q %v", got.String("path_A"), got.Double("lighting"))
	}
}

func TestReadSettingsFileMissing(t *testing.T) {
	_, err := host.ReadSettingsFile(filepath.Join(t.TempDir(), "none.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadSettingsFile() error = %v, want os.ErrNotExist", err)
	}
}

func TestProperties(t *testing.T) {
	p := host.NewProperties()
	p.AddPath("path_A", "Image A", host.PathFile, "Images (*.png)", "/tmp")
	p.AddFloatSlider("lighting", "Lighting", 0, 1, 0.1)

	if diff := cmp.Diff([]string{"path_A", "lighting"}, p.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	want := &host.Property{
		Name:        "lighting",
		Description: "Lighting",
		Kind:        host.PropertyFloat,
		Min:         0,
		Max:         1,
		Step:        0.1,
	}
	if diff := cmp.Diff(want, p.Get("lighting")); diff != "" {
		t.Errorf("Get(lighting) mismatch (-want +got):\n%s", diff)
	}
	if p.Get("nope") != nil {
		t.Error("Get(nope) should be nil")
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}
