package host

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
)

// Module is a named collection of sources, the unit a plugin registers.
type Module struct {
	name    string
	sources *gpucontext.Registry[SourceInfo]
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{
		name:    name,
		sources: gpucontext.NewRegistry[SourceInfo](),
	}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// RegisterSource adds info under its ID.
func (m *Module) RegisterSource(info SourceInfo) error {
	id := info.ID()
	if m.sources.Has(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, id)
	}
	m.sources.Register(id, func() SourceInfo { return info })
	slogger().Info("host: source registered", "module", m.name, "id", id, "type", info.Type())
	return nil
}

// Sources returns the registered ids, sorted.
func (m *Module) Sources() []string {
	ids := m.sources.Available()
	slices.Sort(ids)
	return ids
}

// Lookup returns the source registered under id.
func (m *Module) Lookup(id string) (SourceInfo, error) {
	if !m.sources.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	return m.sources.Get(id), nil
}

// Create looks up id, registers its defaults on s and creates an instance
// bound to fc.
func (m *Module) Create(id string, s *Settings, fc FilterContext) (Instance, error) {
	info, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	inst, err := createInstance(info, s, fc)
	if err != nil {
		return nil, fmt.Errorf("create source %s: %w", id, err)
	}
	return inst, nil
}
