package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviours"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/journal"
	"github.com/reactive-graph/reactive-graph-sub007/internal/manager"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
	"github.com/reactive-graph/reactive-graph-sub007/internal/system"
	"github.com/reactive-graph/reactive-graph-sub007/internal/testutil"
	"github.com/reactive-graph/reactive-graph-sub007/internal/typesys"
)

// idNamespace seeds the name-based UUIDs of scenario entities.
var idNamespace = uuid.MustParse("6f1c2b9e-4a43-5d2e-9b71-3c0a8e5d7f10")

// EntityID returns the id an entity with alias gets in scenario name.
func EntityID(scenario, alias string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(scenario+"/"+alias))
}

// harness holds one scenario run.
type harness struct {
	scenario *Scenario
	types    *typesys.Registry
	sys      *system.System
	result   *Result

	*Graph
}

// Run executes a scenario and returns its result. The returned error is
// reserved for setup problems: unknown types, unreadable type files or a
// broken journal. Failed steps and assertions are reported in the result.
func Run(s *Scenario) (*Result, error) {
	ctx := context.Background()

	types, err := LoadTypes(s)
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	rec := journal.NewRecorder(j, journal.NewClock())
	recDone := make(chan error, 1)
	go func() { recDone <- rec.Run(ctx) }()

	sys := system.New(types,
		system.WithListener(rec),
		system.WithHandleGenerator(testutil.NewSequentialHandles()))
	if err := sys.Install(behaviours.Library{}); err != nil {
		rec.Close()
		<-recDone
		return nil, err
	}

	h := &harness{
		scenario: s,
		types:    types,
		sys:      sys,
		result:   NewResult(),
		Graph:    newGraph(),
	}

	setupErr := h.setup(ctx)
	if setupErr == nil {
		h.runSteps()
		h.snapshot()
	}

	// The trace ends with the last step; teardown transitions are not
	// journaled.
	rec.Close()
	recErr := <-recDone
	if setupErr == nil {
		if err := sys.PreShutdown(ctx); err != nil {
			h.result.AddError("pre-shutdown: %v", err)
		}
	}
	if err := sys.Shutdown(ctx); err != nil {
		h.result.AddError("shutdown: %v", err)
	}
	if setupErr != nil {
		return nil, setupErr
	}
	if recErr != nil {
		return nil, fmt.Errorf("journal recorder: %w", recErr)
	}

	records, err := j.Read(ctx, journal.Filter{})
	if err != nil {
		return nil, err
	}
	h.trace(records)

	for _, msg := range EvaluateAssertions(h.result, s.Assertions) {
		h.result.AddError("%s", msg)
	}
	return h.result, nil
}

// RunFile loads and runs a scenario file.
func RunFile(path string) (*Scenario, *Result, error) {
	s, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := Run(s)
	return s, res, err
}

func (h *harness) setup(ctx context.Context) error {
	if err := h.sys.Init(ctx); err != nil {
		return err
	}
	if err := h.sys.PostInit(ctx); err != nil {
		return err
	}

	g, err := BuildGraph(h.scenario, h.types, h.sys)
	if err != nil {
		return err
	}
	h.Graph = g
	return nil
}

func (h *harness) runSteps() {
	for i, step := range h.scenario.Steps {
		if err := h.runStep(step); err != nil {
			h.result.AddError("steps[%d]: %v", i, err)
		}
	}
}

func (h *harness) container(alias string) reactive.PropertyContainer {
	if e, ok := h.Entities[alias]; ok {
		return e
	}
	return h.Relations[alias]
}

func (h *harness) runStep(step Step) error {
	switch {
	case step.Set != nil:
		c := h.container(step.Set.Target)
		if !c.HasProperty(step.Set.Property) {
			return fmt.Errorf("set: %s has no property %q", step.Set.Target, step.Set.Property)
		}
		c.Set(step.Set.Property, step.Set.Value)
		return nil

	case step.Expect != nil:
		x := step.Expect
		got, ok := h.container(x.Target).Get(x.Property)
		if !ok {
			return fmt.Errorf("expect: %s has no property %q", x.Target, x.Property)
		}
		if !ir.ApproxEqual(got, x.Value, x.Tolerance) {
			return fmt.Errorf("expect: %s.%s = %v, want %v", x.Target, x.Property, got, ir.Normalize(x.Value))
		}
		return nil

	case step.Behaviour != nil:
		return h.behaviourStep(step.Behaviour)

	case step.Component != nil:
		return h.componentStep(step.Component)
	}
	return h.deleteStep(step.Delete)
}

func (h *harness) behaviourStep(st *BehaviourStep) error {
	ty, err := ir.ParseBehaviourTypeID(st.Type)
	if err != nil {
		return err
	}

	var opErr error
	if e, ok := h.Entities[st.Target]; ok {
		if _, typeBound := h.sys.EntityBehaviours.GetByBehaviourType(ty); typeBound || h.sys.EntityBehaviourManager.Has(e.ID(), ty) {
			opErr = applyOp(h.sys.EntityBehaviourManager, e, ty, st.Op)
		} else {
			opErr = applyOp(h.sys.EntityComponentBehaviourManager, e, ty, st.Op)
		}
	} else {
		r := h.Relations[st.Target]
		if _, typeBound := h.sys.RelationBehaviours.GetByBehaviourType(ty); typeBound || h.sys.RelationBehaviourManager.Has(r.ID(), ty) {
			opErr = applyOp(h.sys.RelationBehaviourManager, r, ty, st.Op)
		} else {
			opErr = applyOp(h.sys.RelationComponentBehaviourManager, r, ty, st.Op)
		}
	}

	code := ErrorCode(opErr)
	switch {
	case st.Error == "" && opErr != nil:
		return fmt.Errorf("behaviour %s %s on %s: %w", st.Op, ty, st.Target, opErr)
	case st.Error != "" && code != st.Error:
		return fmt.Errorf("behaviour %s %s on %s: got error code %q, want %q", st.Op, ty, st.Target, code, st.Error)
	}
	return nil
}

// errNotAttached marks a remove of a behaviour the instance does not have.
var errNotAttached = errors.New("behaviour not attached")

func applyOp[O comparable, ID comparable, T reactive.Instance[ID]](m *manager.Manager[O, ID, T], instance T, ty ir.BehaviourTypeID, op string) error {
	switch op {
	case OpAdd:
		return m.AddBehaviour(instance, ty)
	case OpRemove:
		if !m.RemoveBehaviour(instance.ID(), ty) {
			return errNotAttached
		}
		return nil
	case OpConnect:
		return m.Connect(instance.ID(), ty)
	case OpDisconnect:
		return m.Disconnect(instance.ID(), ty)
	case OpReconnect:
		return m.Reconnect(instance.ID(), ty)
	}
	return fmt.Errorf("unknown op %q", op)
}

// ErrorCode returns the machine-readable code of err: the innermost
// transition error code, a creation error code, FACTORY_NOT_FOUND or
// NOT_ATTACHED. Empty for nil and for errors without a code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var te *behaviour.TransitionError
	if errors.As(err, &te) {
		return string(te.Code)
	}
	var ce *behaviour.CreationError
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	switch {
	case errors.Is(err, manager.ErrFactoryNotFound):
		return "FACTORY_NOT_FOUND"
	case errors.Is(err, errNotAttached):
		return "NOT_ATTACHED"
	}
	return ""
}

func (h *harness) componentStep(st *ComponentStep) error {
	ty, err := ir.ParseComponentTypeID(st.Type)
	if err != nil {
		return err
	}
	if e, ok := h.Entities[st.Target]; ok {
		if st.Op == OpAdd {
			if err := h.types.AddComponent(e, ty); err != nil {
				return err
			}
			return h.sys.EntityComponentAdded(e, ty)
		}
		e.RemoveComponent(ty)
		return h.sys.EntityComponentRemoved(e, ty)
	}
	r := h.Relations[st.Target]
	if st.Op == OpAdd {
		if err := h.types.AddComponent(r, ty); err != nil {
			return err
		}
		return h.sys.RelationComponentAdded(r, ty)
	}
	r.RemoveComponent(ty)
	return h.sys.RelationComponentRemoved(r, ty)
}

func (h *harness) deleteStep(alias string) error {
	if e, ok := h.Entities[alias]; ok {
		return h.sys.EntityDeleted(e.ID())
	}
	return h.sys.RelationDeleted(h.Relations[alias].ID())
}

// snapshot captures final values and behaviour types before shutdown
// tears the behaviours down.
func (h *harness) snapshot() {
	for _, alias := range h.Order {
		var (
			values map[string]ir.Value
			types  []ir.BehaviourTypeID
		)
		if e, ok := h.Entities[alias]; ok {
			values, types = e.Properties().Snapshot(), e.Behaviours()
		} else {
			r := h.Relations[alias]
			values, types = r.Properties().Snapshot(), r.Behaviours()
		}
		h.result.Final[alias] = values
		names := make([]string, len(types))
		for i, ty := range types {
			names[i] = ty.String()
		}
		h.result.Behaviours[alias] = names
	}
}

func (h *harness) trace(records []journal.Record) {
	for _, r := range records {
		owner, ok := h.Owners[r.Owner]
		if !ok {
			slog.Warn("trace record for unknown owner", "owner", r.Owner, "seq", r.Seq)
			owner = r.Owner
		}
		h.result.Trace = append(h.result.Trace, TraceEvent{
			Seq:       r.Seq,
			Owner:     owner,
			Behaviour: r.Behaviour,
			From:      r.From,
			Target:    r.Target,
			Result:    r.Result,
			Outcome:   r.Outcome,
			Code:      r.Code,
		})
	}
}
