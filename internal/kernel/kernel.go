// Package kernel wraps the mesh-boolean/triangulation capability behind a
// narrow interface so the implementation (an SDF engine here) is swappable
// without touching the compilers above it.
package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Op is a boolean operator applied between two solids.
type Op int

const (
	OpUnion Op = iota
	OpDifference
	OpIntersect
)

// ParseOp maps the spec-level operator names.
func ParseOp(s string) (Op, error) {
	switch s {
	case "union":
		return OpUnion, nil
	case "difference":
		return OpDifference, nil
	case "intersect":
		return OpIntersect, nil
	}
	return 0, fmt.Errorf("kernel: unknown boolean op %q", s)
}

func (o Op) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersect:
		return "intersect"
	}
	return "unknown"
}

// Solid is an opaque solid owned by a Kernel implementation. Bounds are
// exact for primitives and conservative after transforms.
type Solid interface {
	Bounds() (min, max r3.Vec)
}

// Kernel is the geometry kernel contract. All operations are synchronous
// and deterministic; a failure is permanent for the current run.
type Kernel interface {
	// Primitive instantiates a parametric solid centered at the origin.
	// Box dims are full extents per axis; cylinder and capsule dims are
	// the X/Y section radii plus the full Z length; sphere dims are
	// per-axis radii. Kinds: box, cylinder, sphere, capsule
	// (cylinder/capsule axis along +Z).
	Primitive(kind string, dims [3]float64) (Solid, error)

	// FromMesh converts a closed triangle mesh into a solid so it can
	// participate in booleans.
	FromMesh(m *TriMesh) (Solid, error)

	// Transform scales (per axis), rotates (Euler XYZ degrees) and then
	// translates a solid.
	Transform(s Solid, scale [3]float64, rotate [3]float64, offset r3.Vec) Solid

	// Boolean applies op between two solids.
	Boolean(op Op, a, b Solid) (Solid, error)

	// Triangulate extracts the solid's surface as a welded triangle mesh.
	// An empty result is reported by the returned mesh, not an error, so
	// callers can attach bone context.
	Triangulate(s Solid) (*TriMesh, error)

	// Bevel rounds the mesh's convex edges by width; segments raises the
	// re-triangulation resolution.
	Bevel(m *TriMesh, width float64, segments int) (*TriMesh, error)
}
