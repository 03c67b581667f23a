// Package compile turns per-bone shape instructions into triangle meshes:
// profile extrusion, CSG part composition, mirroring, attachments and
// modifiers, and bridge strips between adjacent bone meshes.
package compile

import (
	"creature-mesh-gen/internal/assets"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

// Context carries the shared collaborators for one generation run.
type Context struct {
	Kernel kernel.Kernel
	Assets *assets.Library
	Doc    *spec.Document
	Skel   *skeleton.Skeleton

	// Cutters are the named bool_shapes, resolved once in world space and
	// reused across bone meshes.
	Cutters map[string]kernel.Solid
}

// Result is one compiled bone mesh in world space.
type Result struct {
	BoneIndex int
	Material  int

	Mesh *kernel.TriMesh
	// UVs are aligned with Mesh.Verts.
	UVs [][2]float64

	// Ring vertex indices for bridge connections. Only extrusion meshes
	// have them; re-meshing modifiers clear them.
	StartLoop []int
	EndLoop   []int

	ConnectStart bool
	ConnectEnd   bool
}
