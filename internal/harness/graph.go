package harness

import (
	"fmt"
	"os"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviours"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
	"github.com/reactive-graph/reactive-graph-sub007/internal/system"
	"github.com/reactive-graph/reactive-graph-sub007/internal/typesys"
)

// Graph is the set of instances a scenario declares, by alias.
type Graph struct {
	Entities  map[string]*reactive.Entity
	Relations map[string]*reactive.Relation
	// Order lists aliases in declaration order.
	Order []string
	// Owners maps formatted instance ids back to aliases.
	Owners map[string]string
}

func newGraph() *Graph {
	return &Graph{
		Entities:  make(map[string]*reactive.Entity),
		Relations: make(map[string]*reactive.Relation),
		Owners:    make(map[string]string),
	}
}

// LoadTypes returns a registry with the library types and the scenario's
// type files.
func LoadTypes(s *Scenario) (*typesys.Registry, error) {
	types := typesys.NewRegistry()
	if err := behaviours.LoadTypes(types); err != nil {
		return nil, fmt.Errorf("load library types: %w", err)
	}
	if err := LoadTypeFiles(types, s); err != nil {
		return nil, err
	}
	return types, nil
}

// LoadTypeFiles adds the scenario's CUE type files to types.
func LoadTypeFiles(types *typesys.Registry, s *Scenario) error {
	for _, path := range s.Types {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read types: %w", err)
		}
		if err := types.LoadString(path, string(src)); err != nil {
			return fmt.Errorf("load types %s: %w", path, err)
		}
	}
	return nil
}

// BuildGraph creates the scenario's entities and then its relations and
// announces each to sys, which attaches the bound behaviours. Entity ids are
// derived from the scenario name and alias, so repeated builds agree.
func BuildGraph(s *Scenario, types *typesys.Registry, sys *system.System) (*Graph, error) {
	g := newGraph()

	for _, spec := range s.Entities {
		ty, err := ir.ParseEntityTypeID(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", spec.Alias, err)
		}
		e, err := types.NewEntity(ty, EntityID(s.Name, spec.Alias), spec.Properties)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", spec.Alias, err)
		}
		if err := addComponents(types, e, spec.Components); err != nil {
			return nil, fmt.Errorf("entity %s: %w", spec.Alias, err)
		}
		g.Entities[spec.Alias] = e
		g.register(spec.Alias, e.ID())
		if err := sys.EntityCreated(e); err != nil {
			return nil, err
		}
	}

	for _, spec := range s.Relations {
		ty, err := ir.ParseRelationTypeID(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("relation %s: %w", spec.Alias, err)
		}
		r, err := types.NewRelation(g.Entities[spec.Outbound], ty, spec.InstanceID, g.Entities[spec.Inbound], spec.Properties)
		if err != nil {
			return nil, fmt.Errorf("relation %s: %w", spec.Alias, err)
		}
		if err := addComponents(types, r, spec.Components); err != nil {
			return nil, fmt.Errorf("relation %s: %w", spec.Alias, err)
		}
		g.Relations[spec.Alias] = r
		g.register(spec.Alias, r.ID())
		if err := sys.RelationCreated(r); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) register(alias string, id any) {
	g.Order = append(g.Order, alias)
	g.Owners[fmt.Sprint(id)] = alias
}

func addComponents(types *typesys.Registry, instance typesys.ComponentHost, names []string) error {
	for _, name := range names {
		ty, err := ir.ParseComponentTypeID(name)
		if err != nil {
			return err
		}
		if err := types.AddComponent(instance, ty); err != nil {
			return err
		}
	}
	return nil
}
