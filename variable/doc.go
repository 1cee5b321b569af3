// Package variable provides VariableStore implementations for process data
// and transient data.
//
// InMemoryStore keeps values per container in a process local map. It is
// the default for both categories; transient data is typically given its
// own InMemoryStore so it never reaches durable storage.
package variable
