// Package expression evaluates the expressions attached to contract
// constraints and operation right operands.
//
// Two dialects are supported behind the Evaluator interface:
//
//   - ScriptEvaluator interprets Go expressions (or function bodies) with
//     the evaluation scope bound as typed local variables, using yaegi.
//   - RuleEvaluator interprets JSON-logic rule documents, the simpler
//     dialect used by legacy rule objects.
//
// Composite dispatches on core.ExpressionKind and resolves the structural
// kinds (constants, variable lookups, queries, lists) itself.
//
// Boolean evaluation of constraints goes through Satisfied, which applies
// one of two policies: PolicyStrict surfaces evaluator failures as errors,
// PolicyLenient treats them as an unsatisfied constraint.
package expression
