package catalogue

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
)

func idHash(id ID) ID {
	return id
}

// Graph returns the dependency relation as a directed graph.
// Edges run from a dependency to its dependent: if B depends on A the graph
// contains A -> B. Cycles are preserved.
func (c *Catalogue) Graph() (graph.Graph[ID, ID], error) {
	return c.buildGraph(graph.New(idHash, graph.Directed()))
}

// CheckAcyclic reports whether the whole catalogue is free of dependency
// cycles. The returned error wraps graph.ErrEdgeCreatesCycle and names the
// edge that closes the first cycle found.
func (c *Catalogue) CheckAcyclic() error {
	_, err := c.buildGraph(graph.New(idHash, graph.Directed(), graph.PreventCycles()))
	return err
}

// LoadOrder returns every library in an order where dependencies precede
// their dependents. Ties are broken by ID so the result is deterministic.
func (c *Catalogue) LoadOrder() ([]ID, error) {
	g, err := c.Graph()
	if err != nil {
		return nil, err
	}

	order, err := graph.StableTopologicalSort(g, func(a, b ID) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to compute load order (possible cycle): %w", err)
	}
	return order, nil
}

// Dependents returns the IDs of libraries that directly depend on id,
// ordered by ID
func (c *Catalogue) Dependents(id ID) ([]ID, error) {
	if !c.valid(id) {
		return nil, &InvalidIDError{ID: id, Size: len(c.libraries)}
	}

	var dependents []ID
	for i, deps := range c.deps {
		for _, dep := range deps {
			if dep == id {
				dependents = append(dependents, ID(i))
				break
			}
		}
	}
	return dependents, nil
}

// Roots returns libraries with no dependencies, ordered by ID
func (c *Catalogue) Roots() []ID {
	var roots []ID
	for i, deps := range c.deps {
		if len(deps) == 0 {
			roots = append(roots, ID(i))
		}
	}
	return roots
}

func (c *Catalogue) buildGraph(g graph.Graph[ID, ID]) (graph.Graph[ID, ID], error) {
	for _, lib := range c.libraries {
		if err := g.AddVertex(lib.ID); err != nil {
			return nil, fmt.Errorf("failed to add vertex %s: %w", lib.Name, err)
		}
	}

	for i, deps := range c.deps {
		for _, dep := range deps {
			// dep must be loaded before i, so the edge is dep -> i
			if err := g.AddEdge(dep, ID(i)); err != nil {
				if errors.Is(err, graph.ErrEdgeAlreadyExists) {
					continue
				}
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					return nil, fmt.Errorf("dependency %s -> %s closes a cycle: %w",
						c.libraries[i].Name, c.libraries[dep].Name, err)
				}
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w",
					c.libraries[dep].Name, c.libraries[i].Name, err)
			}
		}
	}

	return g, nil
}
