package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/uvfilter"
	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/graphics/halgpu"
	"github.com/gogpu/uvfilter/host"
	"github.com/gogpu/uvfilter/imagefile"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.SetNRGBA(i%w, i/w, color.NRGBA{R: uint8(i), G: 90, B: 30, A: 255})
	}
	if err := imagefile.SavePNG(path, img); err != nil {
		t.Fatal(err)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "uv.toml")
	doc := "path_A = \"from-file.png\"\nlighting = 0.2\nresolution = 4\n"
	if err := os.WriteFile(cfg, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	o, err := parseFlags([]string{"-config", cfg, "-lighting", "0.7", "-b", "b.png"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	s, err := o.settings()
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if got := s.Double(uvfilter.KeyLighting); got != 0.7 {
		t.Errorf("lighting = %v, want flag value 0.7", got)
	}
	if got := s.Double(uvfilter.KeyResolution); got != 4 {
		t.Errorf("resolution = %v, want file value 4", got)
	}
	if got := s.String(uvfilter.KeyPathA); got != "from-file.png" {
		t.Errorf("path_A = %q, want file value", got)
	}
	if got := s.String(uvfilter.KeyPathB); got != "b.png" {
		t.Errorf("path_B = %q, want flag value", got)
	}
	if s.HasUserValue(uvfilter.KeyEffectPath) {
		t.Error("unset -effect flag produced a user value")
	}
}

func TestParseFlagsError(t *testing.T) {
	if _, err := parseFlags([]string{"-frames", "many"}, io.Discard); err == nil {
		t.Error("parseFlags() accepted a non-numeric -frames")
	}
}

func TestFilterOptions(t *testing.T) {
	o, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(o.filterOptions()); n != 1 {
		t.Errorf("default options = %d, want 1 (image cache)", n)
	}
	o, err = parseFlags([]string{"-cache", "0", "-assets", t.TempDir()}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(o.filterOptions()); n != 1 {
		t.Errorf("options = %d, want 1 (asset dir)", n)
	}
}

func TestGeneratedFrame(t *testing.T) {
	o := &cliOptions{width: 3, height: 2}
	img, err := o.frame()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(2, 1); got != (color.NRGBA{R: 255, G: 255, A: 255}) {
		t.Errorf("corner pixel = %v, want full red and green", got)
	}
	o.width = 0
	if _, err := o.frame(); err == nil {
		t.Error("frame() accepted a zero width")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	in := filepath.Join(dir, "in.png")
	writePNG(t, a, 16, 16)
	writePNG(t, b, 8, 8)
	writePNG(t, in, 6, 4)
	saved := filepath.Join(dir, "saved.toml")

	o, err := parseFlags([]string{
		"-a", a, "-b", b, "-in", in, "-frames", "3",
		"-lighting", "0.5", "-resolution", "3", "-save", saved,
	}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if want := "frames=3 drawn=3 skipped=0 draw_errors=0 ready=true"; !strings.Contains(out.String(), want) {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	s, err := host.ReadSettingsFile(saved)
	if err != nil {
		t.Fatalf("saved settings: %v", err)
	}
	if s.String(uvfilter.KeyPathA) != a || s.Double(uvfilter.KeyResolution) != 3 {
		t.Errorf("saved settings = %v", s.Keys())
	}
}

func TestRunDisabled(t *testing.T) {
	o, err := parseFlags([]string{"-width", "4", "-height", "4", "-frames", "2"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if want := "frames=2 drawn=0 skipped=2"; !strings.Contains(out.String(), want) {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunMissingInput(t *testing.T) {
	o, err := parseFlags([]string{"-in", filepath.Join(t.TempDir(), "none.png")}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), o, io.Discard); err == nil {
		t.Error("run() with a missing input succeeded")
	}
}

// reloaderFixture attaches the filter to a noop chain configured by o.
func reloaderFixture(t *testing.T, o *cliOptions, out io.Writer) *reloader {
	t.Helper()
	dev, err := halgpu.OpenNoop()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = dev.Close() })
	chain, err := host.NewChain(graphics.NewContext(dev), 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = chain.Close() })

	m := host.NewModule(uvfilter.ModuleName)
	if err := uvfilter.Register(m); err != nil {
		t.Fatal(err)
	}
	info, err := m.Lookup(uvfilter.SourceID)
	if err != nil {
		t.Fatal(err)
	}
	s, err := o.settings()
	if err != nil {
		t.Fatal(err)
	}
	if err := chain.Attach(info, s); err != nil {
		t.Fatal(err)
	}
	o.width, o.height = 4, 4
	frame, err := o.frame()
	if err != nil {
		t.Fatal(err)
	}
	r, err := newReloader(o, chain, frame, out)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestReloaderHandle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	for _, p := range []string{a, b, c} {
		writePNG(t, p, 4, 4)
	}
	cfg := filepath.Join(dir, "uv.toml")
	writeConfig := func(pathA string, lighting float64) {
		t.Helper()
		doc := fmt.Sprintf("path_A = %q\npath_B = %q\nlighting = %v\n", pathA, b, lighting)
		if err := os.WriteFile(cfg, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	writeConfig(a, 0.2)

	o, err := parseFlags([]string{"-config", cfg}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	r := reloaderFixture(t, o, &out)
	state := r.chain.Instance().(*uvfilter.Instance).State()

	ignored := []fsnotify.Event{
		{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write},
		{Name: cfg, Op: fsnotify.Chmod},
		{Name: cfg, Op: fsnotify.Remove},
		{Name: c, Op: fsnotify.Write},
	}
	for _, ev := range ignored {
		applied, err := r.handle(ev)
		if applied || err != nil {
			t.Errorf("handle(%v) = %v, %v; want ignored", ev, applied, err)
		}
	}
	if out.Len() != 0 {
		t.Errorf("ignored events rendered frames: %q", out.String())
	}

	writeConfig(a, 0.8)
	applied, err := r.handle(fsnotify.Event{Name: dir + "/./uv.toml", Op: fsnotify.Write})
	if !applied || err != nil {
		t.Fatalf("handle(config write) = %v, %v; want applied", applied, err)
	}
	if got := state.Config().Lighting; got != float32(0.8) {
		t.Errorf("lighting after reload = %v, want 0.8", got)
	}
	if want := "frames=1 drawn=1 skipped=0 draw_errors=0 ready=true"; !strings.Contains(out.String(), want) {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	// Pointing path_A at c.png starts watching it and stops watching a.png.
	writeConfig(c, 0.8)
	if applied, err := r.handle(fsnotify.Event{Name: cfg, Op: fsnotify.Rename}); !applied || err != nil {
		t.Fatalf("handle(config rename) = %v, %v", applied, err)
	}
	if !r.files[c] || r.files[a] {
		t.Errorf("watched files = %v, want c.png and not a.png", r.files)
	}
	if applied, _ := r.handle(fsnotify.Event{Name: c, Op: fsnotify.Create}); !applied {
		t.Error("image create event was not applied")
	}

	// A broken config keeps the previous settings.
	if err := os.WriteFile(cfg, []byte("lighting = ["), 0o600); err != nil {
		t.Fatal(err)
	}
	applied, err = r.handle(fsnotify.Event{Name: cfg, Op: fsnotify.Write})
	if applied || err != nil {
		t.Errorf("handle(broken config) = %v, %v; want skipped without error", applied, err)
	}
	if got := state.Config().PathA; got != c {
		t.Errorf("path_A after broken config = %q, want %q", got, c)
	}
}
