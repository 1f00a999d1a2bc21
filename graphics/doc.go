// Package graphics is the host-side GPU abstraction used by video filters.
//
// # Overview
//
// A [Context] wraps a [Device] and hands out scoped acquisitions. Every
// resource mutation (texture upload, effect compile, destroy, draw) goes
// through a [Scope], so no GPU state changes outside an Enter/Leave bracket:
//
//	err := ctx.Do(func(s *graphics.Scope) error {
//	    tex, err := s.CreateTextureFromImage(img, "overlay")
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	})
//
// Scopes nest at most one level. Leaving the outermost scope flushes the
// device.
//
// # Effects
//
// An [Effect] is a compiled shader program with named parameters. Parameters
// are looked up by name and hold texture or float values until the next draw.
// Looking up a parameter the effect does not declare returns nil; setting a
// value on a nil [Param] is a no-op.
//
// # Blend State
//
// The context keeps a blend-state stack. [Scope.PushBlendState] saves the
// current state, [Scope.BlendFunction] changes it and [Scope.PopBlendState]
// restores it. Draws use the state current at the time of the call.
package graphics
