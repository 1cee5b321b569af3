// Package document provides DocumentStore implementations for the DOCUMENT
// left operand category.
//
// InMemoryStore is a process local store for tests, examples and single
// process deployments. Document content is copied on save and retrieval.
package document
