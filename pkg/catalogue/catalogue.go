package catalogue

import (
	"fmt"
	"slices"
)

// Catalogue is the immutable registry of libraries and their dependencies.
// It is safe for concurrent use once constructed.
type Catalogue struct {
	metadata Metadata

	// libraries is indexed by ID
	libraries []Library

	// byName maps canonical file names to IDs
	byName map[string]ID

	// deps holds the ordered dependency IDs of each library, indexed by ID
	deps [][]ID
}

// New builds a Catalogue from a Spec.
// The definition is validated first; dependencies on ignored libraries are
// dropped.
func New(spec *Spec) (*Catalogue, error) {
	if spec == nil {
		return nil, fmt.Errorf("catalogue spec cannot be nil")
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("catalogue validation failed: %w", err)
	}

	c := newCatalogue(spec.Metadata, len(spec.Libraries))

	// Assign IDs in declaration order
	for _, lib := range spec.Libraries {
		c.add(FileName(lib.Name))
	}

	ignored := spec.ignoredSet()
	for i, lib := range spec.Libraries {
		deps := make([]ID, 0, len(lib.DependsOn))
		for _, dep := range lib.DependsOn {
			depName := FileName(dep)
			if ignored[depName] {
				continue
			}
			deps = append(deps, c.byName[depName])
		}
		c.deps[i] = deps
	}

	return c, nil
}

// FromTable builds a Catalogue from the compact encoding: a list of names and,
// for each name, the indices of its dependencies in that list.
func FromTable(metadata Metadata, names []string, deps [][]int) (*Catalogue, error) {
	if len(deps) != len(names) {
		return nil, fmt.Errorf("table has %d names but %d dependency lists", len(names), len(deps))
	}

	c := newCatalogue(metadata, len(names))
	for i, name := range names {
		fileName := FileName(name)
		if fileName == "" {
			return nil, fmt.Errorf("names[%d]: library name is required", i)
		}
		if _, exists := c.byName[fileName]; exists {
			return nil, fmt.Errorf("duplicate library name: %s", fileName)
		}
		c.add(fileName)
	}

	for i, row := range deps {
		ids := make([]ID, 0, len(row))
		for _, idx := range row {
			if idx < 0 || idx >= len(names) {
				return nil, fmt.Errorf("library %s: %w", c.libraries[i].Name, &InvalidIDError{ID: ID(idx), Size: len(names)})
			}
			ids = append(ids, ID(idx))
		}
		c.deps[i] = ids
	}

	return c, nil
}

func newCatalogue(metadata Metadata, size int) *Catalogue {
	return &Catalogue{
		metadata:  metadata,
		libraries: make([]Library, 0, size),
		byName:    make(map[string]ID, size),
		deps:      make([][]ID, size),
	}
}

func (c *Catalogue) add(fileName string) {
	id := ID(len(c.libraries))
	c.libraries = append(c.libraries, Library{ID: id, Name: fileName})
	c.byName[fileName] = id
}

// Metadata returns the catalogue metadata
func (c *Catalogue) Metadata() Metadata {
	return c.metadata
}

// Len returns the number of libraries in the catalogue
func (c *Catalogue) Len() int {
	return len(c.libraries)
}

// Resolve returns the ID registered for name.
// Both the file name ("libglog.so") and the short form ("glog") are accepted.
func (c *Catalogue) Resolve(name string) (ID, error) {
	if id, found := c.byName[name]; found {
		return id, nil
	}
	if id, found := c.byName[FileName(name)]; found {
		return id, nil
	}
	return 0, &NotFoundError{Name: name}
}

// DependenciesOf returns the direct dependencies of id in declaration order.
// The returned slice is a copy and may be modified by the caller.
func (c *Catalogue) DependenciesOf(id ID) ([]ID, error) {
	if !c.valid(id) {
		return nil, &InvalidIDError{ID: id, Size: len(c.libraries)}
	}
	return slices.Clone(c.deps[id]), nil
}

// Library returns the library registered under id
func (c *Catalogue) Library(id ID) (Library, error) {
	if !c.valid(id) {
		return Library{}, &InvalidIDError{ID: id, Size: len(c.libraries)}
	}
	return c.libraries[id], nil
}

// Name returns the file name of id, or an empty string if id is invalid
func (c *Catalogue) Name(id ID) string {
	if !c.valid(id) {
		return ""
	}
	return c.libraries[id].Name
}

// Libraries returns all libraries ordered by ID
func (c *Catalogue) Libraries() []Library {
	return slices.Clone(c.libraries)
}

// Names returns all library file names ordered by ID
func (c *Catalogue) Names() []string {
	names := make([]string, len(c.libraries))
	for i, lib := range c.libraries {
		names[i] = lib.Name
	}
	return names
}

// Spec reconstructs a definition equivalent to this catalogue.
// Ignored dependencies are not part of the result.
func (c *Catalogue) Spec() *Spec {
	spec := &Spec{
		Metadata:  c.metadata,
		Libraries: make([]LibrarySpec, len(c.libraries)),
	}
	for i, lib := range c.libraries {
		var deps []string
		for _, dep := range c.deps[i] {
			deps = append(deps, c.libraries[dep].Name)
		}
		spec.Libraries[i] = LibrarySpec{Name: lib.Name, DependsOn: deps}
	}
	return spec
}

func (c *Catalogue) valid(id ID) bool {
	return id >= 0 && int(id) < len(c.libraries)
}
