// Package uvfilter implements a video filter that recolors each frame by
// looking up its red and green channels in a UV map image and sampling a
// material image at the result.
//
// # Overview
//
// The filter keeps two reference images (A, the UV map, and B, the
// material) and one shader effect on the GPU. Every configuration update
// reloads both images together and recompiles the effect. Every frame is
// either drawn through the effect or, when any resource is missing, passed
// through unchanged.
//
// # Quick Start
//
//	m := host.NewModule(uvfilter.ModuleName)
//	if err := uvfilter.Register(m); err != nil {
//	    log.Fatal(err)
//	}
//
//	dev, err := halgpu.OpenNoop()
//	// ...
//	chain, err := host.NewChain(graphics.NewContext(dev), 1280, 720)
//	info, _ := m.Lookup(uvfilter.SourceID)
//
//	s := host.NewSettings()
//	s.SetString("path_A", "uv.png")
//	s.SetString("path_B", "material.png")
//	err = chain.Attach(info, s)
//
// # Settings
//
//   - path_A, path_B: image paths; an empty path disables the filter
//   - effect_path: shader asset, default uv_filter.wgsl
//   - lighting: 0 to 1, default 1
//   - resolution: 1 to 8, default 5; the UV lookup is quantized to
//     2^resolution steps
//
// # Failures
//
// Decode and compile failures never reach the host. They leave the
// affected resources empty, are logged at warn level, and make the filter
// pass frames through until the next successful update.
package uvfilter
