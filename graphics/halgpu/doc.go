// Package halgpu implements [graphics.Device] on the gogpu/wgpu hardware
// abstraction layer.
//
// # Overview
//
// Textures are RGBA8 (or BGRA8) 2D textures with a default view. Effects are
// WGSL programs compiled and validated with naga; their module-scope
// resources become effect parameters:
//
//   - texture_2d<f32> globals are texture parameters
//   - sampler globals are bound to the device sampler
//   - var<uniform> f32 globals are float parameters, each backed by its own
//     uniform buffer
//
// Every effect must export a vertex entry point vs_main and a fragment entry
// point fs_main. A draw renders one fullscreen triangle (three vertices, no
// vertex buffer) into the target, loading the existing contents so blending
// composes with them. Render pipelines are created per blend state and cached
// on the effect.
//
// # Synchronization
//
// Draws and copies are submitted immediately. Per-draw bind groups and
// command buffers are kept until [Device.Flush], which waits for the device
// to go idle and releases them.
//
// # Headless Use
//
// [OpenNoop] opens the no-op backend, which accepts every call without a
// GPU. It is what tests and the command-line tool run on.
package halgpu
