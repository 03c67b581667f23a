// Package mesh defines the assembled generation output handed to export
// collaborators: geometry, skeleton transforms and the skin binding table,
// independent of any container format.
package mesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"creature-mesh-gen/internal/spec"
)

// Mesh is the assembled triangle mesh. Parallel arrays are indexed by
// vertex; MaterialIdx and BoneIdx are per vertex.
type Mesh struct {
	Positions   []vec3.T
	Normals     []vec3.T
	UVs         []vec2.T
	Tris        [][3]uint32
	MaterialIdx []int
	BoneIdx     []int
}

func (m *Mesh) VertexCount() int   { return len(m.Positions) }
func (m *Mesh) TriangleCount() int { return len(m.Tris) }

// RecomputeNormals rebuilds per-vertex normals as the normalized sum of
// area-weighted face normals.
func (m *Mesh) RecomputeNormals() {
	normals := make([]vec3.T, len(m.Positions))
	for _, t := range m.Tris {
		p1 := m.Positions[t[0]]
		p2 := m.Positions[t[1]]
		p3 := m.Positions[t[2]]

		e1 := vec3.Sub(&p2, &p1)
		e2 := vec3.Sub(&p3, &p1)
		cr := vec3.Cross(&e1, &e2)

		for _, vi := range t {
			normals[vi][0] += cr[0]
			normals[vi][1] += cr[1]
			normals[vi][2] += cr[2]
		}
	}
	for i := range normals {
		normals[i].Normalize()
	}
	m.Normals = normals
}

// Bounds returns the mesh AABB as (min, max).
func (m *Mesh) Bounds() (vec3.T, vec3.T) {
	if len(m.Positions) == 0 {
		return vec3.T{}, vec3.T{}
	}
	min, max := m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}

// BoneTransform is one exported skeleton entry: world head/tail plus the
// parent index (-1 for roots), in declaration order.
type BoneTransform struct {
	Name   string     `json:"name"`
	Parent int        `json:"parent"`
	Head   [3]float64 `json:"head"`
	Tail   [3]float64 `json:"tail"`
}

// Influence binds a vertex to one bone with a weight. Under rigid skinning
// each vertex has exactly one influence of weight 1.
type Influence struct {
	Bone   int     `json:"bone"`
	Weight float64 `json:"weight"`
}

// Asset is the complete generation result for one spec document.
type Asset struct {
	Name      string
	Mesh      Mesh
	Bones     []BoneTransform
	Skin      [][]Influence
	Materials []spec.MaterialSlot
}
