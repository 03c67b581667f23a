package diag

import "fmt"

// Code classifies a diagnostic. Spec-level codes are detected before any
// geometry work; geometry-level codes during generation.
type Code string

const (
	// Spec-level.
	CodeMutualExclusion Code = "mutual-exclusion"
	CodeExtrudeSum      Code = "extrude-sum"
	CodeOutOfRange      Code = "out-of-range"
	CodeUnresolvedRef   Code = "unresolved-ref"
	CodeCyclicHierarchy Code = "cyclic-hierarchy"
	CodeBudgetExceeded  Code = "budget-exceeded"

	// Geometry-level.
	CodeGeometryFailure Code = "geometry-failure"
	CodeBridgeMismatch  Code = "bridge-mismatch"
	CodeBridgeToPart    Code = "bridge-to-part"
)

// Severity separates hard failures from degraded-but-continuing conditions.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one validation or generation finding. Path locates the
// offending field in the parameter tree (e.g. "bone_meshes.arm.l.part").
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Path     string   `json:"path"`
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Path, d.Message)
}

// List accumulates diagnostics so an author sees every spec violation in
// one pass rather than one at a time.
type List struct {
	Items []Diagnostic
}

func (l *List) Add(code Code, path, format string, args ...any) {
	l.Items = append(l.Items, Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

func (l *List) Warn(code Code, path, format string, args ...any) {
	l.Items = append(l.Items, Diagnostic{
		Code:     code,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

// HasErrors reports whether any diagnostic is error severity.
func (l *List) HasErrors() bool {
	for _, d := range l.Items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (l *List) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.Items {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}
