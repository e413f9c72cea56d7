// Package validate checks a workflow graph for structural and type
// soundness. All defects are returned as values; the validator never panics
// and never aborts early, so a single pass surfaces every defect class at
// once. A graph with validation errors may still be rendered by an editor
// but must not be handed to the planner or the executor.
package validate
