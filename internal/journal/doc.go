// Package journal records behaviour transitions in SQLite.
//
// A Recorder is a behaviour.Listener. It stamps each transition with a
// logical sequence number, queues it, and a single writer goroutine (Run)
// appends queued records to the Journal. Transitions therefore never wait on
// the database.
//
// The journal is append-only. Records are read back in sequence order for
// the trace command and for tests.
package journal
