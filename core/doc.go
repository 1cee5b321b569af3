// Package core provides the foundational domain types and collaborator
// interfaces shared by the contract validation and operation execution
// pipelines. It defines:
//
//   - Contracts (declared, recursively nestable inputs plus scripted constraints)
//   - Operations (left operand, operator kind and right-hand expression)
//   - Expressions (the opaque units handed to an expression evaluator)
//   - Containers (the process or activity instance a batch runs against)
//   - Pluggable stores for variables, documents, business data, external
//     data and archived contract inputs
//
// The package intentionally keeps implementation concerns (validation,
// evaluation, persistence backends) out of scope, exposing small interfaces
// so alternative backends can be substituted in tests or production.
package core
