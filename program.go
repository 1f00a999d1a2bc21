package uvfilter

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/gogpu/uvfilter/graphics"
)

// program is the compiled effect and the asset path it came from.
type program struct {
	effect graphics.Effect
	source string
}

func (p *program) loaded() bool { return p.effect != nil }

// release destroys the effect, if any.
func (p *program) release(s *graphics.Scope) error {
	err := s.DestroyEffect(p.effect)
	p.effect = nil
	return err
}

// recompile replaces the effect with one built from source in assets.
// On failure the program is left empty.
func (p *program) recompile(s *graphics.Scope, assets fs.FS, source string) error {
	relErr := p.release(s)
	if relErr != nil {
		relErr = fmt.Errorf("release effect: %w", relErr)
	}
	p.source = source

	code, err := fs.ReadFile(assets, source)
	if err != nil {
		return errors.Join(relErr, fmt.Errorf("read effect: %w", err))
	}
	fx, err := s.CreateEffect(source, string(code))
	if err != nil {
		return errors.Join(relErr, err)
	}
	p.effect = fx
	slogger().Debug("uvfilter: effect compiled", "source", source, "params", len(fx.Params()))
	return relErr
}
