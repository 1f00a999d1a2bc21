package uvfilter

import (
	"fmt"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/gogpu/uvfilter/host"
	"github.com/gogpu/uvfilter/internal/locale"
)

// imageExtensions are the extensions offered by the image pickers.
const imageExtensions = "*.bmp *.jpg *.jpeg *.tga *.gif *.png"

func properties(s *host.Settings, tag language.Tag) *host.Properties {
	filter := fmt.Sprintf("%s (%s);;%s (*.*)",
		locale.Text(tag, locale.BrowseImages), imageExtensions,
		locale.Text(tag, locale.BrowseAllFiles))

	p := host.NewProperties()
	p.AddPath(KeyPathA, locale.Text(tag, locale.ImageA), host.PathFile, filter, currentDir(s, KeyPathA))
	p.AddPath(KeyPathB, locale.Text(tag, locale.ImageB), host.PathFile, filter, currentDir(s, KeyPathB))
	p.AddFloatSlider(KeyLighting, locale.Text(tag, locale.Lighting), MinLighting, MaxLighting, 0.1)
	p.AddFloatSlider(KeyResolution, locale.Text(tag, locale.Resolution), MinResolution, MaxResolution, 1)
	return p
}

// currentDir returns the directory of the path stored under key.
func currentDir(s *host.Settings, key string) string {
	if s == nil {
		return ""
	}
	path := s.String(key)
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}
