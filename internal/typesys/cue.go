package typesys

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// LoadError reports an invalid type definition.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir loads every CUE file of the package in dir into r.
func (r *Registry) LoadDir(dir string) error {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return fmt.Errorf("loading CUE from %s: %w", dir, inst.Err)
	}
	v := cuecontext.New().BuildInstance(inst)
	return r.LoadValue(v)
}

// LoadString loads type definitions from CUE source. filename is used in
// error positions only.
func (r *Registry) LoadString(filename, src string) error {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	return r.LoadValue(v)
}

// LoadValue registers the component, entity and relation definitions of v.
// Components are registered first so types may reference components
// declared anywhere in v.
func (r *Registry) LoadValue(v cue.Value) error {
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}

	err := eachField(v, "component", func(label string, fv cue.Value) error {
		ty, err := ir.ParseComponentTypeID(label)
		if err != nil {
			return &LoadError{Field: "component." + label, Message: err.Error(), Pos: fv.Pos()}
		}
		props, err := parseProperties(fv, "component."+label)
		if err != nil {
			return err
		}
		return r.RegisterComponent(ComponentType{Type: ty, Properties: props})
	})
	if err != nil {
		return err
	}

	err = eachField(v, "entity", func(label string, fv cue.Value) error {
		ty, err := ir.ParseEntityTypeID(label)
		if err != nil {
			return &LoadError{Field: "entity." + label, Message: err.Error(), Pos: fv.Pos()}
		}
		components, err := parseComponents(fv, "entity."+label)
		if err != nil {
			return err
		}
		props, err := parseProperties(fv, "entity."+label)
		if err != nil {
			return err
		}
		return r.RegisterEntityType(EntityType{Type: ty, Components: components, Properties: props})
	})
	if err != nil {
		return err
	}

	return eachField(v, "relation", func(label string, fv cue.Value) error {
		ty, err := ir.ParseRelationTypeID(label)
		if err != nil {
			return &LoadError{Field: "relation." + label, Message: err.Error(), Pos: fv.Pos()}
		}
		components, err := parseComponents(fv, "relation."+label)
		if err != nil {
			return err
		}
		props, err := parseProperties(fv, "relation."+label)
		if err != nil {
			return err
		}
		return r.RegisterRelationType(RelationType{Type: ty, Components: components, Properties: props})
	})
}

// eachField calls fn for every field of the struct at path, in source order.
func eachField(v cue.Value, path string, fn func(label string, fv cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Selector().Unquoted(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func parseProperties(v cue.Value, field string) ([]PropertyType, error) {
	var props []PropertyType
	err := eachField(v, "properties", func(name string, pv cue.Value) error {
		s, err := pv.String()
		if err != nil {
			return &LoadError{Field: field + ".properties." + name, Message: "data type must be a string", Pos: pv.Pos()}
		}
		dt, err := ir.ParseDataType(s)
		if err != nil {
			return &LoadError{Field: field + ".properties." + name, Message: err.Error(), Pos: pv.Pos()}
		}
		props = append(props, PropertyType{Name: name, DataType: dt})
		return nil
	})
	return props, err
}

func parseComponents(v cue.Value, field string) ([]ir.ComponentTypeID, error) {
	cv := v.LookupPath(cue.ParsePath("components"))
	if !cv.Exists() {
		return nil, nil
	}
	iter, err := cv.List()
	if err != nil {
		return nil, &LoadError{Field: field + ".components", Message: "components must be a list", Pos: cv.Pos()}
	}
	var out []ir.ComponentTypeID
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &LoadError{Field: field + ".components", Message: "component must be a string", Pos: iter.Value().Pos()}
		}
		c, err := ir.ParseComponentTypeID(s)
		if err != nil {
			return nil, &LoadError{Field: field + ".components", Message: err.Error(), Pos: iter.Value().Pos()}
		}
		out = append(out, c)
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
