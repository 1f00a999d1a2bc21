package uvfilter

import (
	"errors"
	"fmt"

	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/imagefile"
)

// imageSlot is one decoded image and its texture. Both are set or both are nil.
type imageSlot struct {
	file    *imagefile.File
	texture graphics.Texture
}

// imagePair holds image A and image B. The pair is either fully loaded or
// fully empty.
type imagePair struct {
	a, b imageSlot
}

func (p *imagePair) loaded() bool {
	return p.a.texture != nil && p.b.texture != nil
}

// release destroys both textures and drops the decoded images.
func (p *imagePair) release(s *graphics.Scope) error {
	err := errors.Join(s.DestroyTexture(p.a.texture), s.DestroyTexture(p.b.texture))
	p.a, p.b = imageSlot{}, imageSlot{}
	return err
}

// loadFunc decodes the image file at a path.
type loadFunc func(path string) (*imagefile.File, error)

// reload replaces both images. An empty path leaves both empty. If either
// image fails to decode or upload, both end empty.
func (p *imagePair) reload(gfx *graphics.Context, load loadFunc, pathA, pathB string) error {
	relErr := gfx.Do(p.release)
	if relErr != nil {
		relErr = fmt.Errorf("release images: %w", relErr)
	}
	if pathA == "" || pathB == "" {
		slogger().Debug("uvfilter: images disabled", "path_A", pathA, "path_B", pathB)
		return relErr
	}

	fa, errA := load(pathA)
	if errA != nil {
		errA = fmt.Errorf("load %s: %w", pathA, errA)
	}
	fb, errB := load(pathB)
	if errB != nil {
		errB = fmt.Errorf("load %s: %w", pathB, errB)
	}
	if errA != nil || errB != nil {
		return errors.Join(relErr, errA, errB)
	}

	err := gfx.Do(func(s *graphics.Scope) error {
		ta, err := s.CreateTextureFromImage(fa.Image, "image_a")
		if err != nil {
			return fmt.Errorf("upload %s: %w", pathA, err)
		}
		tb, err := s.CreateTextureFromImage(fb.Image, "image_b")
		if err != nil {
			return errors.Join(fmt.Errorf("upload %s: %w", pathB, err), s.DestroyTexture(ta))
		}
		p.a = imageSlot{file: fa, texture: ta}
		p.b = imageSlot{file: fb, texture: tb}
		return nil
	})
	if err == nil {
		slogger().Debug("uvfilter: images loaded",
			"path_A", pathA, "size_A", fmt.Sprintf("%dx%d", fa.Width(), fa.Height()),
			"path_B", pathB, "size_B", fmt.Sprintf("%dx%d", fb.Width(), fb.Height()))
	}
	return errors.Join(relErr, err)
}
