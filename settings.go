package uvfilter

import (
	"math"

	"github.com/gogpu/uvfilter/host"
)

// Setting keys.
const (
	KeyPathA      = "path_A"
	KeyPathB      = "path_B"
	KeyEffectPath = "effect_path"
	KeyLighting   = "lighting"
	KeyResolution = "resolution"
)

// Defaults and ranges.
const (
	DefaultEffectPath = "uv_filter.wgsl"
	DefaultLighting   = 1.0
	DefaultResolution = 5.0

	MinLighting   = 0.0
	MaxLighting   = 1.0
	MinResolution = 1.0
	MaxResolution = 8.0
)

// Defaults registers the default value of every key on s.
func Defaults(s *host.Settings) {
	s.SetDefaultString(KeyPathA, "")
	s.SetDefaultString(KeyPathB, "")
	s.SetDefaultString(KeyEffectPath, DefaultEffectPath)
	s.SetDefaultDouble(KeyLighting, DefaultLighting)
	s.SetDefaultDouble(KeyResolution, DefaultResolution)
}

// ConfigFromSettings extracts a configuration from s. Missing, non-numeric
// or NaN numbers take their default, numbers are clamped into range and an empty
// effect path selects the built-in effect.
func ConfigFromSettings(s *host.Settings) Config {
	cfg := Config{
		PathA:      s.String(KeyPathA),
		PathB:      s.String(KeyPathB),
		EffectPath: s.String(KeyEffectPath),
		Lighting:   number(s, KeyLighting, DefaultLighting, MinLighting, MaxLighting),
		Resolution: number(s, KeyResolution, DefaultResolution, MinResolution, MaxResolution),
	}
	if cfg.EffectPath == "" {
		cfg.EffectPath = DefaultEffectPath
	}
	return cfg
}

func number(s *host.Settings, key string, def, lo, hi float64) float32 {
	v, ok := s.Number(key)
	if !ok || math.IsNaN(v) {
		return float32(def)
	}
	return float32(min(max(v, lo), hi))
}
