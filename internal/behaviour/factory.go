package behaviour

import (
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// Factory creates connected behaviours of one type.
type Factory[ID comparable, T reactive.Instance[ID]] interface {
	BehaviourType() ir.BehaviourTypeID
	// Create builds the behaviour for instance and drives it to Connected.
	// A behaviour that fails to connect is closed and not returned.
	Create(instance T, opts ...Option) (*Behaviour[ID, T], error)
}

// FuncFactory is a Factory built from Funcs.
type FuncFactory[ID comparable, T reactive.Instance[ID]] struct {
	ty    ir.BehaviourTypeID
	funcs Funcs[ID, T]
}

// NewFactory returns a factory for behaviour type ty.
func NewFactory[ID comparable, T reactive.Instance[ID]](ty ir.BehaviourTypeID, funcs Funcs[ID, T]) *FuncFactory[ID, T] {
	return &FuncFactory[ID, T]{ty: ty, funcs: funcs}
}

// BehaviourType returns the type this factory creates.
func (f *FuncFactory[ID, T]) BehaviourType() ir.BehaviourTypeID {
	return f.ty
}

// Create refuses with BEHAVIOUR_ALREADY_APPLIED if instance already behaves
// as this type; otherwise it builds and connects a new behaviour.
func (f *FuncFactory[ID, T]) Create(instance T, opts ...Option) (*Behaviour[ID, T], error) {
	if instance.BehavesAs(f.ty) {
		return nil, AlreadyApplied(f.ty)
	}
	b := New(f.ty, instance, f.funcs, opts...)
	if err := b.Connect(); err != nil {
		_ = b.Close()
		return nil, &CreationError{Code: ErrCodeCreationTransitionFailed, Behaviour: f.ty, Err: err}
	}
	return b, nil
}
