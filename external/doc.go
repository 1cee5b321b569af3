// Package external provides KVStore implementations for the EXTERNAL_DATA
// left operand category: values that live outside the engine's own tables.
//
// RedisStore keeps one hash per container with JSON encoded fields;
// InMemoryStore is its process local stand-in.
package external
