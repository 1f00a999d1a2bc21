// Command uvfilter runs the uv filter headless on the noop GPU backend.
//
// It builds a one-filter chain, feeds it an input frame (a file or a
// generated gradient), renders a number of frames and reports how many
// were drawn and how many passed through. With -watch it re-applies the
// settings whenever the config file or one of the images changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/uvfilter"
	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/graphics/halgpu"
	"github.com/gogpu/uvfilter/host"
	"github.com/gogpu/uvfilter/imagefile"
)

// cliOptions are the parsed command-line flags.
type cliOptions struct {
	configPath string
	pathA      string
	pathB      string
	effect     string
	assets     string
	lighting   float64
	resolution float64
	input      string
	width      int
	height     int
	frames     int
	watch      bool
	cacheMB    int
	save       string
	verbose    bool

	// set holds the names of flags given explicitly.
	set map[string]bool
}

func parseFlags(args []string, errOut io.Writer) (*cliOptions, error) {
	o := &cliOptions{set: make(map[string]bool)}
	fs := flag.NewFlagSet("uvfilter", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&o.configPath, "config", "", "TOML settings file")
	fs.StringVar(&o.pathA, "a", "", "image A (UV map)")
	fs.StringVar(&o.pathB, "b", "", "image B (material)")
	fs.StringVar(&o.effect, "effect", "", "effect asset name")
	fs.StringVar(&o.assets, "assets", "", "directory effect assets are read from (default: built-in)")
	fs.Float64Var(&o.lighting, "lighting", uvfilter.DefaultLighting, "lighting, 0 to 1")
	fs.Float64Var(&o.resolution, "resolution", uvfilter.DefaultResolution, "lookup resolution, 1 to 8")
	fs.StringVar(&o.input, "in", "", "input frame image (default: generated gradient)")
	fs.IntVar(&o.width, "width", 320, "generated frame width")
	fs.IntVar(&o.height, "height", 180, "generated frame height")
	fs.IntVar(&o.frames, "frames", 1, "frames to render")
	fs.BoolVar(&o.watch, "watch", false, "re-apply settings when the config or images change")
	fs.IntVar(&o.cacheMB, "cache", 64, "decoded image cache in MiB, 0 disables")
	fs.StringVar(&o.save, "save", "", "write the effective settings to this TOML file")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// settings reads the config file, if any, and applies explicit flags over it.
func (o *cliOptions) settings() (*host.Settings, error) {
	s := host.NewSettings()
	if o.configPath != "" {
		file, err := host.ReadSettingsFile(o.configPath)
		if err != nil {
			return nil, err
		}
		s.Apply(file)
	}
	if o.set["a"] {
		s.SetString(uvfilter.KeyPathA, o.pathA)
	}
	if o.set["b"] {
		s.SetString(uvfilter.KeyPathB, o.pathB)
	}
	if o.set["effect"] {
		s.SetString(uvfilter.KeyEffectPath, o.effect)
	}
	if o.set["lighting"] {
		s.SetDouble(uvfilter.KeyLighting, o.lighting)
	}
	if o.set["resolution"] {
		s.SetDouble(uvfilter.KeyResolution, o.resolution)
	}
	return s, nil
}

// frame loads the input frame or generates a red/green gradient, which
// sweeps the whole UV map.
func (o *cliOptions) frame() (*image.NRGBA, error) {
	if o.input != "" {
		f, err := imagefile.Load(o.input)
		if err != nil {
			return nil, err
		}
		return f.Image, nil
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", o.width, o.height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, o.width, o.height))
	for y := 0; y < o.height; y++ {
		for x := 0; x < o.width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(o.width-1, 1)),
				G: uint8(y * 255 / max(o.height-1, 1)),
				A: 255,
			})
		}
	}
	return img, nil
}

func (o *cliOptions) filterOptions() []uvfilter.Option {
	var opts []uvfilter.Option
	if o.assets != "" {
		opts = append(opts, uvfilter.WithAssetDir(o.assets))
	}
	if o.cacheMB > 0 {
		opts = append(opts, uvfilter.WithImageCache(imagefile.NewCache(int64(o.cacheMB)<<20)))
	}
	return opts
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	uvfilter.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		logger.Error("uvfilter failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, o *cliOptions, out io.Writer) (err error) {
	s, err := o.settings()
	if err != nil {
		return err
	}
	frame, err := o.frame()
	if err != nil {
		return fmt.Errorf("input frame: %w", err)
	}

	dev, err := halgpu.OpenNoop(halgpu.WithLabel("uvfilter"))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, dev.Close()) }()

	b := frame.Bounds()
	chain, err := host.NewChain(graphics.NewContext(dev), b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, chain.Close()) }()

	m := host.NewModule(uvfilter.ModuleName)
	if err := uvfilter.Register(m, o.filterOptions()...); err != nil {
		return err
	}
	info, err := m.Lookup(uvfilter.SourceID)
	if err != nil {
		return err
	}
	if err := chain.Attach(info, s); err != nil {
		return err
	}

	if err := renderFrames(chain, frame, o.frames); err != nil {
		return err
	}
	report(out, chain)

	if o.save != "" {
		if err := saveSettings(o.save, s); err != nil {
			return err
		}
	}
	if o.watch {
		return watch(ctx, o, chain, frame, out)
	}
	return nil
}

func renderFrames(chain *host.Chain, frame *image.NRGBA, n int) error {
	for i := 0; i < n; i++ {
		if err := chain.RenderFrame(frame); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

func report(out io.Writer, chain *host.Chain) {
	st := chain.Stats()
	ready := false
	if inst, ok := chain.Instance().(*uvfilter.Instance); ok {
		ready = inst.State().Ready()
	}
	fmt.Fprintf(out, "frames=%d drawn=%d skipped=%d draw_errors=%d ready=%t\n",
		st.Frames, st.Drawn, st.Skipped, st.DrawErrors, ready)
}

func saveSettings(path string, s *host.Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := s.WriteTOML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// watchedFiles returns the config file and image paths in effect.
func watchedFiles(o *cliOptions, s *host.Settings) map[string]bool {
	files := make(map[string]bool)
	for _, p := range []string{o.configPath, s.String(uvfilter.KeyPathA), s.String(uvfilter.KeyPathB)} {
		if p != "" {
			files[filepath.Clean(p)] = true
		}
	}
	return files
}

// reloader re-applies the settings when a watched file changes.
type reloader struct {
	o     *cliOptions
	chain *host.Chain
	frame *image.NRGBA
	out   io.Writer

	// files holds the cleaned paths of the config file and both images.
	files map[string]bool
}

func newReloader(o *cliOptions, chain *host.Chain, frame *image.NRGBA, out io.Writer) (*reloader, error) {
	s, err := o.settings()
	if err != nil {
		return nil, err
	}
	return &reloader{o: o, chain: chain, frame: frame, out: out, files: watchedFiles(o, s)}, nil
}

// relevant reports whether ev may have changed the contents of a watched file.
func (r *reloader) relevant(ev fsnotify.Event) bool {
	return r.files[filepath.Clean(ev.Name)] &&
		ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// handle re-reads the settings, updates the filter and renders one frame
// when ev is relevant. It reports whether the settings were re-applied.
// An unreadable config file is logged and the previous settings stay.
func (r *reloader) handle(ev fsnotify.Event) (bool, error) {
	if !r.relevant(ev) {
		return false, nil
	}
	next, err := r.o.settings()
	if err != nil {
		uvfilter.Logger().Warn("reload settings", "err", err)
		return false, nil
	}
	if err := r.chain.Update(next); err != nil {
		return false, err
	}
	r.files = watchedFiles(r.o, next)
	if err := renderFrames(r.chain, r.frame, 1); err != nil {
		return true, err
	}
	report(r.out, r.chain)
	return true, nil
}

// watch re-applies the settings and renders one frame each time a watched
// file is written, created or renamed. Directories are watched so that
// editors replacing files are noticed.
func watch(ctx context.Context, o *cliOptions, chain *host.Chain, frame *image.NRGBA, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	r, err := newReloader(o, chain, frame, out)
	if err != nil {
		return err
	}
	dirs := make(map[string]bool)
	addDirs := func() error {
		for f := range r.files {
			dir := filepath.Dir(f)
			if dirs[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
		return nil
	}
	if err := addDirs(); err != nil {
		return err
	}
	uvfilter.Logger().Info("watching", "files", len(r.files))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			uvfilter.Logger().Warn("watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			applied, err := r.handle(ev)
			if err != nil {
				return err
			}
			if applied {
				if err := addDirs(); err != nil {
					return err
				}
			}
		}
	}
}
