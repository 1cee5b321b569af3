// Package operation holds the building blocks of a data-assignment batch:
// the ExecutionContext working set, the executor strategies that compute a
// left operand's new value per operator kind, the left operand handlers
// that load and write values per category, and the bookkeeping that
// decides when a business object must be persisted early and which single
// write each target receives at commit time.
//
// The engine package drives these pieces through the load, execute and
// commit phases.
package operation
