package imagefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 80), B: 10, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no encoder for %s", format)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestDecodeFormats(t *testing.T) {
	src := testImage()
	for _, format := range []string{"png", "jpeg", "gif", "bmp", "tiff"} {
		t.Run(format, func(t *testing.T) {
			f, err := DecodeBytes(encode(t, format, src), "image."+format)
			if err != nil {
				t.Fatalf("DecodeBytes() error = %v", err)
			}
			if f.Format != format {
				t.Errorf("Format = %q, want %q", f.Format, format)
			}
			if f.Width() != 4 || f.Height() != 3 {
				t.Errorf("size = %dx%d, want 4x3", f.Width(), f.Height())
			}
			if got := len(f.Image.Pix); got != 4*3*4 {
				t.Errorf("len(Pix) = %d, want %d", got, 4*3*4)
			}
		})
	}
}

func TestDecodePNGExactPixels(t *testing.T) {
	src := testImage()
	f, err := DecodeBytes(encode(t, "png", src), "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(f.Image.Pix, src.Pix) {
		t.Error("decoded PNG pixels differ from source")
	}
}

func TestDecodeErrors(t *testing.T) {
	pngData := encode(t, "png", testImage())
	tests := []struct {
		name string
		data []byte
		file string
		want error
	}{
		{"empty", nil, "a.png", ErrEmptyData},
		{"text", []byte("definitely not an image"), "a.png", ErrUnsupported},
		{"pdf", []byte("%PDF-1.4\n%garbage"), "a.png", ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.data, tt.file)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeBytes() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("truncated png", func(t *testing.T) {
		_, err := DecodeBytes(pngData[:len(pngData)/2], "a.png")
		if err == nil {
			t.Fatal("DecodeBytes() of truncated PNG succeeded")
		}
		if errors.Is(err, ErrUnsupported) {
			t.Errorf("truncated PNG reported as unsupported: %v", err)
		}
	})

	t.Run("truncated tga", func(t *testing.T) {
		_, err := DecodeBytes([]byte{0, 0, 2}, "a.tga")
		if err == nil {
			t.Fatal("DecodeBytes() of truncated TGA succeeded")
		}
		if errors.Is(err, ErrUnsupported) {
			t.Errorf("TGA not routed by extension: %v", err)
		}
	})
}

// pngHeader returns a PNG signature and IHDR chunk claiming w x h 8-bit
// gray pixels, with no image data after it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // gray

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

// tgaHeader returns an uncompressed true-color TGA header claiming w x h.
func tgaHeader(w, h uint16) []byte {
	hdr := make([]byte, 18)
	hdr[2] = 2
	binary.LittleEndian.PutUint16(hdr[12:14], w)
	binary.LittleEndian.PutUint16(hdr[14:16], h)
	hdr[16] = 32
	return hdr
}

func TestDecodeRejectsOversizedFromHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		file string
	}{
		{"png wide", pngHeader(MaxDimension+1, 1), "a.png"},
		{"png huge", pngHeader(16384, 16384), "a.png"},
		{"tga tall", tgaHeader(1, MaxDimension+1), "a.tga"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The pixel data is missing, so only a header check can
			// produce ErrTooLarge.
			_, err := DecodeBytes(tt.data, tt.file)
			if !errors.Is(err, ErrTooLarge) {
				t.Errorf("DecodeBytes() error = %v, want ErrTooLarge", err)
			}
		})
	}

	t.Run("at the limit", func(t *testing.T) {
		_, err := DecodeBytes(pngHeader(MaxDimension, 1), "a.png")
		if err == nil || errors.Is(err, ErrTooLarge) {
			t.Errorf("DecodeBytes() error = %v, want a decode error other than ErrTooLarge", err)
		}
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	if err := os.WriteFile(path, encode(t, "png", testImage()), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Path != path {
		t.Errorf("Path = %q, want %q", f.Path, path)
	}

	if _, err := Load(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestToNRGBAOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 8))
	src.Set(5, 5, color.RGBA{R: 255, A: 255})
	got := toNRGBA(src)
	if got.Rect.Min != (image.Point{}) {
		t.Errorf("Rect.Min = %v, want origin", got.Rect.Min)
	}
	if c := got.NRGBAAt(0, 0); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("NRGBAAt(0,0) = %v, want opaque red", c)
	}
}

func TestSavePNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	src := testImage()
	if err := SavePNG(path, src); err != nil {
		t.Fatalf("SavePNG() error = %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(f.Image.Pix, src.Pix) {
		t.Error("saved PNG does not match source pixels")
	}
}
