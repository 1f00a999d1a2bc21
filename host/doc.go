// Package host is a small, real implementation of the host side of a
// video filter: settings snapshots, property schemas, source registration
// and a one-filter chain that feeds frames through an attached filter.
//
// # Sources
//
// A filter describes itself with a [SourceInfo] and is registered on a
// [Module]. The module creates [Instance] values bound to a [FilterContext]
// that gives the filter access to its input frame and render target.
//
// # Settings
//
// [Settings] keeps user values over a defaults layer. Defaults are
// registered once when a source is created; later updates see the same
// layer. Settings load from and save to TOML.
//
// # Chain
//
// [Chain] uploads each frame into a source texture, lets the attached
// instance render into the output texture and falls back to a plain copy
// when the instance skips the frame.
package host
