package reactive

import (
	"github.com/google/uuid"
)

// ObserverHandle identifies a single observer registration on a property.
type ObserverHandle uuid.UUID

// String returns the handle in canonical UUID form.
func (h ObserverHandle) String() string {
	return uuid.UUID(h).String()
}

// HandleGenerator produces observer handles.
//
// Production code uses UUIDv7Handles. Tests inject a deterministic generator
// so handle values are reproducible.
type HandleGenerator interface {
	Next() ObserverHandle
}

// UUIDv7Handles generates time-ordered UUIDv7 handles.
type UUIDv7Handles struct{}

// Next returns a new UUIDv7 handle.
func (UUIDv7Handles) Next() ObserverHandle {
	return ObserverHandle(uuid.Must(uuid.NewV7()))
}

// NewObserverHandle returns a fresh UUIDv7 handle.
func NewObserverHandle() ObserverHandle {
	return UUIDv7Handles{}.Next()
}
