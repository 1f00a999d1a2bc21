package uvfilter

import (
	"errors"
	"fmt"

	"github.com/gogpu/uvfilter/graphics"
)

// Config is one complete filter configuration.
type Config struct {
	PathA      string
	PathB      string
	EffectPath string
	Lighting   float32
	Resolution float32
}

// FilterState owns the GPU resources of one filter instance.
type FilterState struct {
	gfx  *graphics.Context
	opts options

	pathA      string
	pathB      string
	effectPath string
	lighting   float32
	resolution float32

	images  imagePair
	program program

	applied  bool
	reloads  int
	compiles int
}

// NewFilterState returns an empty state on gfx. Nothing is loaded until
// the first ApplyConfiguration.
func NewFilterState(gfx *graphics.Context, opts ...Option) *FilterState {
	return &FilterState{
		gfx:        gfx,
		opts:       newOptions(opts),
		lighting:   DefaultLighting,
		resolution: DefaultResolution,
	}
}

// Config returns the last applied configuration.
func (f *FilterState) Config() Config {
	return Config{
		PathA:      f.pathA,
		PathB:      f.pathB,
		EffectPath: f.effectPath,
		Lighting:   f.lighting,
		Resolution: f.resolution,
	}
}

// Ready reports whether both images and the effect are loaded.
func (f *FilterState) Ready() bool {
	return f.images.loaded() && f.program.loaded()
}

// ApplyConfiguration stores cfg, reloads both images and then recompiles
// the effect. Failures leave the affected resources empty; the returned
// error joins them for diagnostics and the state stays usable.
func (f *FilterState) ApplyConfiguration(cfg Config) error {
	prev := f.Config()
	first := !f.applied

	f.pathA, f.pathB = cfg.PathA, cfg.PathB
	f.effectPath = cfg.EffectPath
	f.lighting, f.resolution = cfg.Lighting, cfg.Resolution
	f.applied = true

	var errs []error
	if f.needsReload(first, prev, cfg) {
		f.reloads++
		if err := f.images.reload(f.gfx, f.opts.loadImage, cfg.PathA, cfg.PathB); err != nil {
			errs = append(errs, fmt.Errorf("reload images: %w", err))
		}
	}
	if f.needsRecompile(first, prev, cfg) {
		f.compiles++
		err := f.gfx.Do(func(s *graphics.Scope) error {
			return f.program.recompile(s, f.opts.assets, cfg.EffectPath)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("recompile effect: %w", err))
		}
	}

	slogger().Info("uvfilter: configuration applied",
		"path_A", cfg.PathA, "path_B", cfg.PathB, "effect", cfg.EffectPath,
		"lighting", cfg.Lighting, "resolution", cfg.Resolution, "ready", f.Ready())
	return errors.Join(errs...)
}

func (f *FilterState) needsReload(first bool, prev, cfg Config) bool {
	if !f.opts.changeDetection || first {
		return true
	}
	if prev.PathA != cfg.PathA || prev.PathB != cfg.PathB {
		return true
	}
	// Unchanged non-empty paths that failed before are retried.
	return cfg.PathA != "" && cfg.PathB != "" && !f.images.loaded()
}

func (f *FilterState) needsRecompile(first bool, prev, cfg Config) bool {
	if !f.opts.changeDetection || first {
		return true
	}
	return prev.EffectPath != cfg.EffectPath || !f.program.loaded()
}

// Destroy clears the paths and releases every GPU resource in one scope.
// It is safe to call more than once.
func (f *FilterState) Destroy() error {
	f.pathA, f.pathB = "", ""
	return f.gfx.Do(func(s *graphics.Scope) error {
		return errors.Join(f.program.release(s), f.images.release(s))
	})
}
