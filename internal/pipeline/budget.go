package pipeline

import "creature-mesh-gen/internal/diag"

// triangleBudget tracks the running triangle count against the spec limit.
// Checked in bone declaration order so the reported overage never depends on
// worker scheduling.
type triangleBudget struct {
	limit int
	used  int
}

func newTriangleBudget(limit int) *triangleBudget {
	return &triangleBudget{limit: limit}
}

// add accrues n triangles and fails as soon as the limit is crossed. A zero
// limit means unlimited.
func (b *triangleBudget) add(n int) error {
	b.used += n
	if b.limit > 0 && b.used > b.limit {
		return &diag.BudgetError{Budget: "max_triangles", Limit: b.limit, Actual: b.used}
	}
	return nil
}
