package behaviour

import (
	"errors"
	"fmt"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// ErrBehaviourNotFound is wrapped by manager operations addressing a
// behaviour that is not stored for the owner.
var ErrBehaviourNotFound = errors.New("behaviour not found")

// ErrBehaviourClosed is wrapped when a closed behaviour is asked to transition.
var ErrBehaviourClosed = errors.New("behaviour closed")

// TransitionErrorCode categorizes transition failures.
type TransitionErrorCode string

const (
	// ErrCodeInvalidTransition indicates the requested edge is not allowed
	// from the current state.
	ErrCodeInvalidTransition TransitionErrorCode = "INVALID_TRANSITION"

	// ErrCodeBehaviourInvalid indicates validation rejected the instance.
	ErrCodeBehaviourInvalid TransitionErrorCode = "BEHAVIOUR_INVALID"

	// ErrCodeConnectFailed indicates the connect step failed.
	ErrCodeConnectFailed TransitionErrorCode = "BEHAVIOUR_CONNECT_FAILED"

	// ErrCodeDisconnectFailed indicates the disconnect step failed. The
	// behaviour is Disconnected regardless.
	ErrCodeDisconnectFailed TransitionErrorCode = "BEHAVIOUR_DISCONNECT_FAILED"
)

// TransitionError reports a failed state transition.
type TransitionError struct {
	Code      TransitionErrorCode
	Behaviour ir.BehaviourTypeID
	From      State
	To        State
	Err       error
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s %s -> %s", e.Code, e.Behaviour, e.From, e.To)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

// InvalidReason categorizes validation failures.
type InvalidReason string

const (
	ReasonPropertyMissing         InvalidReason = "PROPERTY_MISSING"
	ReasonOutboundPropertyMissing InvalidReason = "OUTBOUND_PROPERTY_MISSING"
	ReasonInboundPropertyMissing  InvalidReason = "INBOUND_PROPERTY_MISSING"
	ReasonInvalidDataType         InvalidReason = "INVALID_DATA_TYPE"
)

// InvalidError reports why a validator rejected an instance.
type InvalidError struct {
	Reason   InvalidReason
	Property string
	// Actual and Expected are set for ReasonInvalidDataType.
	Actual   ir.DataType
	Expected ir.DataType
}

// Error implements the error interface.
func (e *InvalidError) Error() string {
	switch e.Reason {
	case ReasonOutboundPropertyMissing:
		return fmt.Sprintf("outbound property %q missing", e.Property)
	case ReasonInboundPropertyMissing:
		return fmt.Sprintf("inbound property %q missing", e.Property)
	case ReasonInvalidDataType:
		return fmt.Sprintf("property %q has data type %s, expected %s", e.Property, e.Actual, e.Expected)
	}
	return fmt.Sprintf("property %q missing", e.Property)
}

// PropertyMissing reports a missing property on the instance itself.
func PropertyMissing(name string) *InvalidError {
	return &InvalidError{Reason: ReasonPropertyMissing, Property: name}
}

// OutboundPropertyMissing reports a missing property on a relation's
// outbound entity.
func OutboundPropertyMissing(name string) *InvalidError {
	return &InvalidError{Reason: ReasonOutboundPropertyMissing, Property: name}
}

// InboundPropertyMissing reports a missing property on a relation's
// inbound entity.
func InboundPropertyMissing(name string) *InvalidError {
	return &InvalidError{Reason: ReasonInboundPropertyMissing, Property: name}
}

// InvalidDataType reports a property value of the wrong data type.
func InvalidDataType(name string, actual, expected ir.DataType) *InvalidError {
	return &InvalidError{Reason: ReasonInvalidDataType, Property: name, Actual: actual, Expected: expected}
}

// ReconnectPhase names the half of a reconnect that failed.
type ReconnectPhase string

const (
	PhaseDisconnect ReconnectPhase = "disconnect"
	PhaseConnect    ReconnectPhase = "connect"
)

// ReconnectError reports a failed reconnect.
type ReconnectError struct {
	Phase ReconnectPhase
	Err   error
}

// Error implements the error interface.
func (e *ReconnectError) Error() string {
	return fmt.Sprintf("reconnect failed during %s: %v", e.Phase, e.Err)
}

// Unwrap returns the underlying transition error.
func (e *ReconnectError) Unwrap() error {
	return e.Err
}

// CreationErrorCode categorizes factory and attach failures.
type CreationErrorCode string

const (
	// ErrCodeAlreadyApplied indicates the owner already has the behaviour.
	ErrCodeAlreadyApplied CreationErrorCode = "BEHAVIOUR_ALREADY_APPLIED"

	// ErrCodeCreationTransitionFailed indicates the initial connect failed.
	ErrCodeCreationTransitionFailed CreationErrorCode = "BEHAVIOUR_TRANSITION_FAILED"
)

// CreationError reports that a behaviour could not be attached.
type CreationError struct {
	Code      CreationErrorCode
	Behaviour ir.BehaviourTypeID
	Err       error
}

// Error implements the error interface.
func (e *CreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Behaviour, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Behaviour)
}

// Unwrap returns the underlying cause.
func (e *CreationError) Unwrap() error {
	return e.Err
}

// AlreadyApplied returns the error for attaching ty twice to one owner.
func AlreadyApplied(ty ir.BehaviourTypeID) *CreationError {
	return &CreationError{Code: ErrCodeAlreadyApplied, Behaviour: ty}
}

func hasTransitionCode(err error, code TransitionErrorCode) bool {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// IsInvalidTransition returns true if err is an INVALID_TRANSITION error.
// Uses errors.As to handle wrapped errors.
func IsInvalidTransition(err error) bool {
	return hasTransitionCode(err, ErrCodeInvalidTransition)
}

// IsBehaviourInvalid returns true if validation rejected the instance.
func IsBehaviourInvalid(err error) bool {
	return hasTransitionCode(err, ErrCodeBehaviourInvalid)
}

// IsConnectFailed returns true if the connect step failed.
func IsConnectFailed(err error) bool {
	return hasTransitionCode(err, ErrCodeConnectFailed)
}

// IsDisconnectFailed returns true if the disconnect step failed.
func IsDisconnectFailed(err error) bool {
	return hasTransitionCode(err, ErrCodeDisconnectFailed)
}

// IsAlreadyApplied returns true if err reports a duplicate attach.
func IsAlreadyApplied(err error) bool {
	var ce *CreationError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeAlreadyApplied
	}
	return false
}

// AsInvalidError extracts the validation failure from err.
func AsInvalidError(err error) (*InvalidError, bool) {
	var ie *InvalidError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
