package uvfilter

import (
	"embed"
	"io/fs"
)

//go:embed data/uv_filter.wgsl
var embedded embed.FS

// builtinAssets returns the embedded data directory.
func builtinAssets() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic("uvfilter: embedded assets: " + err.Error())
	}
	return sub
}

// BuiltinEffect returns the source of the built-in effect.
func BuiltinEffect() string {
	data, err := fs.ReadFile(builtinAssets(), DefaultEffectPath)
	if err != nil {
		panic("uvfilter: embedded effect: " + err.Error())
	}
	return string(data)
}
