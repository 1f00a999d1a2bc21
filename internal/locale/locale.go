// Package locale holds the user-visible strings of the filter in every
// supported language.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	FilterName     = "RGBToUV"
	ImageA         = "ImageA"
	ImageB         = "ImageB"
	Lighting       = "Lighting"
	Resolution     = "Resolution"
	BrowseImages   = "BrowsePath.Images"
	BrowseAllFiles = "BrowsePath.AllFiles"
)

const (
	defaultLanguage = "en-US"
	germanLanguage  = "de-DE"
)

var translations = map[string]map[string]string{
	defaultLanguage: {
		FilterName:     "RGB To UV",
		ImageA:         "Image A",
		ImageB:         "Image B",
		Lighting:       "Lighting",
		Resolution:     "Resolution",
		BrowseImages:   "Images",
		BrowseAllFiles: "All Files",
	},
	germanLanguage: {
		FilterName:     "RGB zu UV",
		ImageA:         "Bild A",
		ImageB:         "Bild B",
		Lighting:       "Beleuchtung",
		Resolution:     "Auflösung",
		BrowseImages:   "Bilder",
		BrowseAllFiles: "Alle Dateien",
	},
}

var (
	supported = []language.Tag{
		language.MustParse(defaultLanguage),
		language.MustParse(germanLanguage),
	}
	matcher = language.NewMatcher(supported)
	cat     = newCatalog()
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(supported[0]))
	for lang, msgs := range translations {
		tag := language.MustParse(lang)
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("locale: " + err.Error())
			}
		}
	}
	return b
}

// Supported returns the languages with translations, default first.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match returns the supported language closest to tag.
// Unsupported languages resolve to en-US.
func Match(tag language.Tag) language.Tag {
	_, i, conf := matcher.Match(tag)
	if conf == language.No {
		return supported[0]
	}
	return supported[i]
}

// Text returns the message for key in the language closest to tag.
// Unknown keys are returned unchanged.
func Text(tag language.Tag, key string) string {
	return message.NewPrinter(Match(tag), message.Catalog(cat)).Sprintf(key)
}
