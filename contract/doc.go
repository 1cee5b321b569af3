// Package contract validates externally supplied values against a declared
// contract.
//
// Validation runs in two stages. The StructureValidator walks the input
// tree recursively, checking presence and assignability of every declared
// input and accumulating every problem in an ErrorReport. Only when the
// structure is sound does the ConstraintValidator evaluate the contract's
// scripted business rules over the validated values, collecting the
// explanations of every failed rule. Validator chains both stages.
package contract
