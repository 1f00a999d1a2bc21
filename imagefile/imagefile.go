// Package imagefile decodes image files into straight-alpha RGBA buffers
// ready for texture upload.
//
// Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP and TGA. The format is
// detected from the file contents; TGA has no signature and is recognized
// by its extension.
package imagefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Decode errors.
var (
	// ErrUnsupported is returned when the data is not an image in a supported format.
	ErrUnsupported = errors.New("imagefile: unsupported format")

	// ErrEmptyData is returned when the file is empty.
	ErrEmptyData = errors.New("imagefile: empty data")

	// ErrEmptyImage is returned when the decoded image has no pixels.
	ErrEmptyImage = errors.New("imagefile: empty image")

	// ErrTooLarge is returned when a dimension exceeds MaxDimension.
	ErrTooLarge = errors.New("imagefile: image too large")
)

// MaxDimension is the largest accepted width or height.
const MaxDimension = 8192

// File is a decoded image file.
type File struct {
	// Path is the path the file was loaded from.
	Path string

	// Format is the detected format ("png", "jpeg", "tga", ...).
	Format string

	// Image holds the pixels with straight alpha, origin at (0, 0).
	Image *image.NRGBA
}

// Width returns the image width.
func (f *File) Width() int { return f.Image.Rect.Dx() }

// Height returns the image height.
func (f *File) Height() int { return f.Image.Rect.Dy() }

// Load reads and decodes the image at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imagefile: read file: %w", err)
	}
	f, err := DecodeBytes(data, path)
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Decode decodes an image from r. name is only used to recognize formats
// without a signature by extension.
func Decode(r io.Reader, name string) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("imagefile: read: %w", err)
	}
	return DecodeBytes(data, name)
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte, name string) (*File, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	format, err := detect(data, name)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeConfigAs(format, data)
	if err != nil {
		return nil, fmt.Errorf("imagefile: decode %s header: %w", format, err)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, err := decodeAs(format, data)
	if err != nil {
		return nil, fmt.Errorf("imagefile: decode %s: %w", format, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, b.Dx(), b.Dy())
	}
	return &File{Format: format, Image: toNRGBA(img)}, nil
}

// detect sniffs the content and falls back to the extension for TGA.
func detect(data []byte, name string) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("imagefile: detect: %w", err)
	}
	if kind != filetype.Unknown {
		if kind.MIME.Type != "image" {
			return "", fmt.Errorf("%w: %s", ErrUnsupported, kind.MIME.Value)
		}
		switch kind.Extension {
		case "png", "gif", "bmp", "webp":
			return kind.Extension, nil
		case "jpg":
			return "jpeg", nil
		case "tif":
			return "tiff", nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupported, kind.MIME.Value)
		}
	}
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		return "tga", nil
	}
	return "", ErrUnsupported
}

// decodeConfigAs reads only the dimensions, so oversized images are
// rejected before any pixels are allocated.
func decodeConfigAs(format string, data []byte) (image.Config, error) {
	r := bytes.NewReader(data)
	switch format {
	case "png":
		return png.DecodeConfig(r)
	case "jpeg":
		return jpeg.DecodeConfig(r)
	case "gif":
		return gif.DecodeConfig(r)
	case "bmp":
		return bmp.DecodeConfig(r)
	case "tiff":
		return tiff.DecodeConfig(r)
	case "webp":
		return webp.DecodeConfig(r)
	case "tga":
		return tgaConfig(data)
	}
	return image.Config{}, ErrUnsupported
}

// tgaHeaderSize is the fixed TGA header length; width and height are
// little-endian uint16 values at offsets 12 and 14.
const tgaHeaderSize = 18

func tgaConfig(data []byte) (image.Config, error) {
	if len(data) < tgaHeaderSize {
		return image.Config{}, io.ErrUnexpectedEOF
	}
	return image.Config{
		Width:  int(binary.LittleEndian.Uint16(data[12:14])),
		Height: int(binary.LittleEndian.Uint16(data[14:16])),
	}, nil
}

func decodeAs(format string, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case "png":
		return png.Decode(r)
	case "jpeg":
		return jpeg.Decode(r)
	case "gif":
		return gif.Decode(r)
	case "bmp":
		return bmp.Decode(r)
	case "tiff":
		return tiff.Decode(r)
	case "webp":
		return webp.Decode(r)
	case "tga":
		return tga.Decode(r)
	}
	return nil, ErrUnsupported
}

// toNRGBA converts img to a tightly packed NRGBA image at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imagefile: create file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("imagefile: encode PNG: %w", err)
	}
	return f.Close()
}
