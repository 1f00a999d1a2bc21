package uvfilter

import (
	"io/fs"
	"os"

	"golang.org/x/text/language"

	"github.com/gogpu/uvfilter/imagefile"
)

// Option configures a [Filter] and the [FilterState] values it creates.
//
// Example:
//
//	// Shaders from a directory instead of the built-in assets
//	f := uvfilter.NewFilter(uvfilter.WithAssetDir("/usr/share/uvfilter"))
//
//	// Skip reloads when an update does not change the paths
//	f := uvfilter.NewFilter(uvfilter.WithChangeDetection(true))
//
//	// Share decoded images between instances
//	f := uvfilter.NewFilter(uvfilter.WithImageCache(imagefile.NewCache(0)))
type Option func(*options)

type options struct {
	assets          fs.FS
	changeDetection bool
	lang            language.Tag
	images          *imagefile.Cache
}

func defaultOptions() options {
	return options{
		assets: builtinAssets(),
		lang:   language.AmericanEnglish,
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAssets sets the file system effect paths are resolved in.
// A nil fsys restores the built-in assets.
func WithAssets(fsys fs.FS) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = builtinAssets()
		}
		o.assets = fsys
	}
}

// WithAssetDir resolves effect paths in dir.
func WithAssetDir(dir string) Option {
	return WithAssets(os.DirFS(dir))
}

// WithChangeDetection makes updates skip the image reload when both paths
// are unchanged and the images are loaded, and skip the recompile when the
// effect path is unchanged and the effect is loaded.
// By default every update reloads everything.
func WithChangeDetection(enabled bool) Option {
	return func(o *options) {
		o.changeDetection = enabled
	}
}

// WithLanguage sets the language used for names and properties when the
// host does not specify one.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) {
		o.lang = tag
	}
}

// WithImageCache decodes images through c. Reloading an unchanged file
// then reuses the decoded pixels; the texture is still recreated.
// A nil c decodes every file on each reload, which is the default.
func WithImageCache(c *imagefile.Cache) Option {
	return func(o *options) {
		o.images = c
	}
}

// loadImage decodes path through the image cache if one is set.
func (o *options) loadImage(path string) (*imagefile.File, error) {
	if o.images != nil {
		return o.images.Load(path)
	}
	return imagefile.Load(path)
}
