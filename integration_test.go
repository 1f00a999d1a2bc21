package uvfilter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/graphics/halgpu"
	"github.com/gogpu/uvfilter/host"
)

// TestNoopDevicePipeline runs the built-in effect through the HAL device
// on the noop backend: WGSL compile, reflection, uploads and draws.
func TestNoopDevicePipeline(t *testing.T) {
	pathA, pathB, corrupt := imageFixtures(t)

	dev, err := halgpu.OpenNoop(halgpu.WithLabel("uvfilter_test"))
	if err != nil {
		t.Fatalf("OpenNoop() error = %v", err)
	}
	t.Cleanup(func() {
		if err := dev.Close(); err != nil {
			t.Errorf("device Close() error = %v", err)
		}
	})
	gfx := graphics.NewContext(dev)
	chain, err := host.NewChain(gfx, 8, 8)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	m := host.NewModule(ModuleName)
	if err := Register(m); err != nil {
		t.Fatal(err)
	}
	info, err := m.Lookup(SourceID)
	if err != nil {
		t.Fatal(err)
	}

	s := host.NewSettings()
	s.SetString(KeyPathA, pathA)
	s.SetString(KeyPathB, pathB)
	s.SetDouble(KeyLighting, 0.5)
	s.SetDouble(KeyResolution, 3)
	if err := chain.Attach(info, s); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	st := chain.Instance().(*Instance).State()
	if !st.Ready() {
		t.Fatal("built-in effect did not compile on the HAL device")
	}

	for i := 0; i < 3; i++ {
		if err := chain.RenderFrame(frame(8, 8)); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	s.SetString(KeyPathA, corrupt)
	if err := chain.Update(s); err != nil {
		t.Fatal(err)
	}
	if err := chain.RenderFrame(frame(8, 8)); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(host.ChainStats{Frames: 4, Drawn: 3, Skipped: 1}, chain.Stats()); diff != "" {
		t.Errorf("chain Stats() (-want +got):\n%s", diff)
	}
	ds := dev.Stats()
	if ds.Draws != 3 || ds.Clears != 3 || ds.Copies != 1 || ds.Pending != 0 {
		t.Errorf("device Stats() = %+v, want 3 draws, 3 clears, 1 copy, nothing pending", ds)
	}

	if err := chain.Close(); err != nil {
		t.Fatalf("chain Close() error = %v", err)
	}
	if diff := cmp.Diff(graphics.Stats{}, gfx.Stats(), cmpCounts); diff != "" {
		t.Errorf("live resources after Close (-want +got):\n%s", diff)
	}
}
