package reactive

import "github.com/reactive-graph/reactive-graph-sub007/internal/ir"

// Propagate wires src.srcName to dst.dstName: every value sent through the
// source property is written verbatim to the destination property.
// Returns the handle registered on the source.
func Propagate(src PropertyContainer, srcName string, dst PropertyContainer, dstName string) ObserverHandle {
	handle := NewObserverHandle()
	PropagateWithHandle(src, srcName, dst, dstName, handle)
	return handle
}

// PropagateWithHandle is Propagate with a caller-chosen handle.
func PropagateWithHandle(src PropertyContainer, srcName string, dst PropertyContainer, dstName string, handle ObserverHandle) {
	src.ObserveWithHandle(srcName, func(v ir.Value) {
		dst.Set(dstName, v)
	}, handle)
}
