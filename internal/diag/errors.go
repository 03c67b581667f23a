package diag

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError is a spec-level failure: a parent, mirror source,
// material, cutter, or asset name does not resolve.
type UnresolvedReferenceError struct {
	Kind string // "parent", "mirror", "material", "cutter", "asset"
	Name string
	Path string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved %s reference %q at %s", e.Kind, e.Name, e.Path)
}

// CyclicHierarchyError reports a cycle in the bone parent graph.
type CyclicHierarchyError struct {
	Bones []string
}

func (e *CyclicHierarchyError) Error() string {
	return fmt.Sprintf("cyclic bone hierarchy: %s", strings.Join(e.Bones, " -> "))
}

// GeometryError is a generation-time failure in a geometric operation.
// Fatal for the asset being generated, never retried.
type GeometryError struct {
	Bone string
	Op   string
	Err  error
}

func (e *GeometryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geometry failure on bone %q during %s: %v", e.Bone, e.Op, e.Err)
	}
	return fmt.Sprintf("geometry failure on bone %q during %s", e.Bone, e.Op)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// BudgetError reports an exceeded generation budget (triangles, bones,
// materials). Generation aborts as soon as the budget is crossed.
type BudgetError struct {
	Budget string
	Limit  int
	Actual int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s budget exceeded: %d > %d", e.Budget, e.Actual, e.Limit)
}

// ValidationError wraps the collected spec-level diagnostics as a single
// error so callers fail per asset, not per finding.
type ValidationError struct {
	Diagnostics []Diagnostic
}

func (e *ValidationError) Error() string {
	if len(e.Diagnostics) == 1 {
		return "spec validation failed: " + e.Diagnostics[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "spec validation failed with %d findings:", len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}
