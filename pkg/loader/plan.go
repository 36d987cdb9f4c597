package loader

import (
	"fmt"
	"slices"

	"github.com/chazu/libload/pkg/catalogue"
)

// Plan is an ordered, duplicate-free sequence of libraries to load.
// Every library appears after all of its dependencies; the last entry is
// the requested target.
type Plan struct {
	Target  catalogue.ID
	Entries []catalogue.ID
}

// BuildPlan computes the load plan for target with a depth-first,
// dependencies-first traversal. A library reachable through several paths is
// placed where it is first encountered. Reaching a library that is still on
// the traversal path yields a *CycleDetectedError.
func BuildPlan(cat *catalogue.Catalogue, target catalogue.ID) (*Plan, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalogue cannot be nil")
	}

	p := &planner{
		cat:       cat,
		sequenced: make(map[catalogue.ID]bool),
		onPath:    make(map[catalogue.ID]bool),
	}
	if err := p.visit(target); err != nil {
		return nil, err
	}

	return &Plan{
		Target:  target,
		Entries: p.entries,
	}, nil
}

// Len returns the number of entries in the plan
func (p *Plan) Len() int {
	return len(p.Entries)
}

// Contains reports whether id is part of the plan
func (p *Plan) Contains(id catalogue.ID) bool {
	return slices.Contains(p.Entries, id)
}

// Names returns the file names of the plan entries in load order
func (p *Plan) Names(cat *catalogue.Catalogue) []string {
	names := make([]string, len(p.Entries))
	for i, id := range p.Entries {
		names[i] = cat.Name(id)
	}
	return names
}

type planner struct {
	cat *catalogue.Catalogue

	// sequenced holds ids already emitted
	sequenced map[catalogue.ID]bool

	// onPath holds ids whose expansion has started but not finished
	onPath map[catalogue.ID]bool
	path   []catalogue.ID

	entries []catalogue.ID
}

func (p *planner) visit(id catalogue.ID) error {
	if p.sequenced[id] {
		return nil
	}
	if p.onPath[id] {
		return p.cycleError(id)
	}

	deps, err := p.cat.DependenciesOf(id)
	if err != nil {
		return err
	}

	p.onPath[id] = true
	p.path = append(p.path, id)

	for _, dep := range deps {
		if err := p.visit(dep); err != nil {
			return err
		}
	}

	p.path = p.path[:len(p.path)-1]
	delete(p.onPath, id)

	p.sequenced[id] = true
	p.entries = append(p.entries, id)
	return nil
}

func (p *planner) cycleError(id catalogue.ID) *CycleDetectedError {
	start := slices.Index(p.path, id)

	var names []string
	for _, member := range p.path[start:] {
		names = append(names, p.cat.Name(member))
	}
	names = append(names, p.cat.Name(id))

	return &CycleDetectedError{
		ID:   id,
		Name: p.cat.Name(id),
		Path: names,
	}
}
