package uvfilter

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/graphics/graphicstest"
	"github.com/gogpu/uvfilter/host"
	"github.com/gogpu/uvfilter/imagefile"
)

// testAssets holds a compiling and a failing effect for graphicstest devices.
var testAssets = fstest.MapFS{
	DefaultEffectPath: {Data: []byte("uv effect")},
	"broken.wgsl":     {Data: []byte("#error broken")},
}

// writePNG writes a solid w x h PNG into dir and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	if err := imagefile.SavePNG(path, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// imageFixtures writes a.png, b.png and a corrupt file, returning their paths.
func imageFixtures(t *testing.T) (pathA, pathB, corrupt string) {
	t.Helper()
	dir := t.TempDir()
	pathA = writePNG(t, dir, "a.png", 4, 4, color.NRGBA{R: 128, G: 64, A: 255})
	pathB = writePNG(t, dir, "b.png", 8, 2, color.NRGBA{B: 200, A: 255})
	corrupt = filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("\x89PNG\r\n\x1a\nnot really"), 0o600); err != nil {
		t.Fatal(err)
	}
	return pathA, pathB, corrupt
}

func validConfig(pathA, pathB string) Config {
	return Config{
		PathA:      pathA,
		PathB:      pathB,
		EffectPath: DefaultEffectPath,
		Lighting:   DefaultLighting,
		Resolution: DefaultResolution,
	}
}

// fakeContext is a FilterContext that records calls and draws into its
// own target.
type fakeContext struct {
	gfx    *graphics.Context
	target graphics.Texture

	refuseBegin bool

	begins int
	ends   int
	skips  int

	// blendDepth is the blend stack depth seen by the last ProcessFilterEnd.
	blendDepth int
}

var _ host.FilterContext = (*fakeContext)(nil)

func (c *fakeContext) Graphics() *graphics.Context { return c.gfx }
func (c *fakeContext) Target() graphics.Texture    { return c.target }

func (c *fakeContext) ProcessFilterBegin(*graphics.Scope, graphics.ColorFormat, host.RenderMode) bool {
	c.begins++
	return !c.refuseBegin
}

func (c *fakeContext) ProcessFilterEnd(scope *graphics.Scope, effect graphics.Effect, _, _ int) error {
	c.ends++
	c.blendDepth = scope.Context().BlendDepth()
	return scope.Draw(effect, c.target)
}

func (c *fakeContext) SkipVideoFilter(*graphics.Scope) { c.skips++ }

type fixture struct {
	dev *graphicstest.Device
	gfx *graphics.Context
	fc  *fakeContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := graphicstest.NewDevice()
	gfx := graphics.NewContext(dev)
	fc := &fakeContext{gfx: gfx}
	err := gfx.Do(func(s *graphics.Scope) error {
		target, err := s.CreateTexture(graphics.TextureDescriptor{
			Label: "target", Width: 4, Height: 4, RenderTarget: true,
		}, nil)
		fc.target = target
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{dev: dev, gfx: gfx, fc: fc}
}

// newState returns a state using the test assets.
func (fx *fixture) newState(opts ...Option) *FilterState {
	return NewFilterState(fx.gfx, append([]Option{WithAssets(testAssets)}, opts...)...)
}

// render renders one frame of st inside a scope.
func (fx *fixture) render(t *testing.T, st *FilterState) RenderState {
	t.Helper()
	r := renderer{state: st, fc: fx.fc}
	var rs RenderState
	if err := fx.gfx.Do(func(s *graphics.Scope) error {
		rs = r.render(s)
		return nil
	}); err != nil {
		t.Fatalf("render scope: %v", err)
	}
	return rs
}

func writeText(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o600)
}

// cmpCounts compares only live resource counts of graphics.Stats.
var cmpCounts = cmpopts.IgnoreFields(graphics.Stats{}, "Scopes", "Flushes")
