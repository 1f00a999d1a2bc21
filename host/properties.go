package host

// PropertyKind identifies the editor a property is shown with.
type PropertyKind int

const (
	// PropertyPath is a file or directory picker.
	PropertyPath PropertyKind = iota
	// PropertyFloat is a float slider.
	PropertyFloat
)

// String returns the kind name.
func (k PropertyKind) String() string {
	switch k {
	case PropertyPath:
		return "path"
	case PropertyFloat:
		return "float"
	default:
		return "unknown"
	}
}

// PathType selects what a path property picks.
type PathType int

const (
	// PathFile picks an existing file.
	PathFile PathType = iota
	// PathFileSave picks a file to write.
	PathFileSave
	// PathDirectory picks a directory.
	PathDirectory
)

// Property describes one editable setting.
type Property struct {
	Name        string
	Description string
	Kind        PropertyKind

	// Path properties.
	PathType    PathType
	Filter      string
	DefaultPath string

	// Float properties.
	Min, Max, Step float64
}

// Properties is an ordered property schema.
type Properties struct {
	list []*Property
}

// NewProperties returns an empty schema.
func NewProperties() *Properties {
	return &Properties{}
}

// AddPath appends a path picker. filter uses the "Label (*.ext);;Label (*.*)"
// form; defaultPath is the directory the picker opens in.
func (p *Properties) AddPath(name, description string, pathType PathType, filter, defaultPath string) *Property {
	prop := &Property{
		Name:        name,
		Description: description,
		Kind:        PropertyPath,
		PathType:    pathType,
		Filter:      filter,
		DefaultPath: defaultPath,
	}
	p.list = append(p.list, prop)
	return prop
}

// AddFloatSlider appends a float slider over [min, max].
func (p *Properties) AddFloatSlider(name, description string, minVal, maxVal, step float64) *Property {
	prop := &Property{
		Name:        name,
		Description: description,
		Kind:        PropertyFloat,
		Min:         minVal,
		Max:         maxVal,
		Step:        step,
	}
	p.list = append(p.list, prop)
	return prop
}

// Get returns the named property, or nil.
func (p *Properties) Get(name string) *Property {
	for _, prop := range p.list {
		if prop.Name == name {
			return prop
		}
	}
	return nil
}

// Names returns property names in insertion order.
func (p *Properties) Names() []string {
	names := make([]string, len(p.list))
	for i, prop := range p.list {
		names[i] = prop.Name
	}
	return names
}

// Len returns the number of properties.
func (p *Properties) Len() int { return len(p.list) }
