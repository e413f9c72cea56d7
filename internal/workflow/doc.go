// Package workflow defines the data model for a workflow graph: nodes with
// typed input/output parameters and the connections that route values between
// them. The model is deliberately permissive; structural invariants
// (acyclicity, referential integrity, type soundness) are enforced by the
// validate package so that partially-invalid graphs can still be rendered
// and reported on by an editor.
package workflow
