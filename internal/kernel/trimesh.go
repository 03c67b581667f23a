package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// TriMesh is an indexed triangle mesh in bone-local or world space.
// Triangles wind counter-clockwise seen from outside.
type TriMesh struct {
	Verts []r3.Vec
	Tris  [][3]int
}

func (m *TriMesh) VertexCount() int   { return len(m.Verts) }
func (m *TriMesh) TriangleCount() int { return len(m.Tris) }
func (m *TriMesh) IsEmpty() bool      { return len(m.Tris) == 0 }

// Bounds returns the axis-aligned bounding box. Empty meshes return zeros.
func (m *TriMesh) Bounds() (min, max r3.Vec) {
	if len(m.Verts) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min = m.Verts[0]
	max = m.Verts[0]
	for _, v := range m.Verts[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	return min, max
}

// Clone deep-copies the mesh.
func (m *TriMesh) Clone() *TriMesh {
	out := &TriMesh{
		Verts: make([]r3.Vec, len(m.Verts)),
		Tris:  make([][3]int, len(m.Tris)),
	}
	copy(out.Verts, m.Verts)
	copy(out.Tris, m.Tris)
	return out
}

// Transform applies f to every vertex in place.
func (m *TriMesh) Transform(f func(r3.Vec) r3.Vec) {
	for i := range m.Verts {
		m.Verts[i] = f(m.Verts[i])
	}
}

// FlipWinding reverses the orientation of every triangle in place.
func (m *TriMesh) FlipWinding() {
	for i := range m.Tris {
		m.Tris[i][1], m.Tris[i][2] = m.Tris[i][2], m.Tris[i][1]
	}
}

// Join concatenates meshes into one, preserving input order so output is
// deterministic regardless of how the inputs were produced.
func Join(meshes ...*TriMesh) *TriMesh {
	out := &TriMesh{}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := len(out.Verts)
		out.Verts = append(out.Verts, m.Verts...)
		for _, t := range m.Tris {
			out.Tris = append(out.Tris, [3]int{t[0] + base, t[1] + base, t[2] + base})
		}
	}
	return out
}

// Subdivide splits each triangle into four by edge midpoints, levels times.
// Midpoints are shared between adjacent triangles.
func Subdivide(m *TriMesh, levels int) *TriMesh {
	out := m.Clone()
	for l := 0; l < levels; l++ {
		mid := make(map[[2]int]int, len(out.Tris)*2)
		next := &TriMesh{Verts: out.Verts}

		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if i, ok := mid[key]; ok {
				return i
			}
			p := r3.Scale(0.5, r3.Add(next.Verts[a], next.Verts[b]))
			next.Verts = append(next.Verts, p)
			i := len(next.Verts) - 1
			mid[key] = i
			return i
		}

		for _, t := range out.Tris {
			ab := midpoint(t[0], t[1])
			bc := midpoint(t[1], t[2])
			ca := midpoint(t[2], t[0])
			next.Tris = append(next.Tris,
				[3]int{t[0], ab, ca},
				[3]int{ab, t[1], bc},
				[3]int{ca, bc, t[2]},
				[3]int{ab, bc, ca},
			)
		}
		out = next
	}
	return out
}

// Weld merges vertices with identical coordinates. Marching-cubes and STL
// input are triangle soups; welding restores shared edges for manifold
// checks.
func Weld(verts []r3.Vec, tris [][3]int) *TriMesh {
	index := make(map[[3]float64]int, len(verts))
	remap := make([]int, len(verts))
	out := &TriMesh{}

	for i, v := range verts {
		key := [3]float64{v.X, v.Y, v.Z}
		if j, ok := index[key]; ok {
			remap[i] = j
			continue
		}
		out.Verts = append(out.Verts, v)
		j := len(out.Verts) - 1
		index[key] = j
		remap[i] = j
	}

	for _, t := range tris {
		a, b, c := remap[t[0]], remap[t[1]], remap[t[2]]
		if a == b || b == c || a == c {
			continue // degenerate after welding
		}
		out.Tris = append(out.Tris, [3]int{a, b, c})
	}
	return out
}

// IsManifold reports whether every edge is shared by exactly two triangles
// with opposite orientation. Assumes a welded mesh.
func (m *TriMesh) IsManifold() bool {
	type edge struct{ a, b int }
	count := make(map[edge]int, len(m.Tris)*3)
	for _, t := range m.Tris {
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			if a < b {
				count[edge{a, b}]++
			} else {
				count[edge{b, a}]--
			}
		}
	}
	for _, c := range count {
		if c != 0 {
			return false
		}
	}
	return true
}
