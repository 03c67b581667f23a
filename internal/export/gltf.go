// Package export serializes a generated asset: glTF binary for the mesh and
// materials, plus a rig sidecar with the skeleton and skin binding table.
package export

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/qmuntal/gltf"

	"creature-mesh-gen/internal/mesh"
	"creature-mesh-gen/internal/spec"
)

const gltfVersion = "2.0"

// BuildDocument lays the asset out as a single-node glTF document: one
// buffer, one mesh, one primitive per material slot actually used.
func BuildDocument(a *mesh.Asset) (*gltf.Document, error) {
	doc := &gltf.Document{}
	doc.Asset.Version = gltfVersion
	scene := uint32(0)
	doc.Scene = &scene
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	buffer := doc.Buffers[0]

	m := &a.Mesh
	groups := groupByMaterial(m)

	var buf bytes.Buffer

	// Index data first, all groups back to back, then the vertex streams.
	indexView := &gltf.BufferView{Buffer: 0, ByteOffset: buffer.ByteLength}
	for _, g := range groups {
		for _, ti := range g.tris {
			binary.Write(&buf, binary.LittleEndian, m.Tris[ti])
		}
	}
	indexView.ByteLength = uint32(buf.Len())
	bvIndex := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, indexView)

	posView := &gltf.BufferView{Buffer: 0, ByteOffset: buffer.ByteLength + uint32(buf.Len())}
	binary.Write(&buf, binary.LittleEndian, m.Positions)
	posView.ByteLength = buffer.ByteLength + uint32(buf.Len()) - posView.ByteOffset
	bvPos := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, posView)

	uvView := &gltf.BufferView{Buffer: 0, ByteOffset: buffer.ByteLength + uint32(buf.Len())}
	binary.Write(&buf, binary.LittleEndian, m.UVs)
	uvView.ByteLength = buffer.ByteLength + uint32(buf.Len()) - uvView.ByteOffset
	bvUV := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, uvView)

	normView := &gltf.BufferView{Buffer: 0, ByteOffset: buffer.ByteLength + uint32(buf.Len())}
	binary.Write(&buf, binary.LittleEndian, m.Normals)
	normView.ByteLength = buffer.ByteLength + uint32(buf.Len()) - normView.ByteOffset
	bvNorm := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, normView)

	buffer.ByteLength += uint32(buf.Len())
	buffer.Data = append(buffer.Data, buf.Bytes()...)

	gm := &gltf.Mesh{Name: a.Name}

	// One index accessor per material group, then the shared streams.
	indexAccBase := uint32(len(doc.Accessors))
	var start uint32
	for _, g := range groups {
		acc := &gltf.Accessor{
			ComponentType: gltf.ComponentUint,
			Type:          gltf.AccessorScalar,
			ByteOffset:    start * 12,
			Count:         uint32(len(g.tris)) * 3,
			BufferView:    &bvIndex,
		}
		start += uint32(len(g.tris))
		doc.Accessors = append(doc.Accessors, acc)
	}

	min, max := m.Bounds()
	posAcc := uint32(len(doc.Accessors))
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(len(m.Positions)),
		BufferView:    &bvPos,
		Min:           []float32{min[0], min[1], min[2]},
		Max:           []float32{max[0], max[1], max[2]},
	})
	uvAcc := uint32(len(doc.Accessors))
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec2,
		Count:         uint32(len(m.UVs)),
		BufferView:    &bvUV,
	})
	normAcc := uint32(len(doc.Accessors))
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(len(m.Normals)),
		BufferView:    &bvNorm,
	})

	for gi, g := range groups {
		index := indexAccBase + uint32(gi)
		matID := uint32(g.material)
		gm.Primitives = append(gm.Primitives, &gltf.Primitive{
			Mode:    gltf.PrimitiveTriangles,
			Indices: &index,
			Material: &matID,
			Attributes: gltf.Attribute{
				"POSITION":   posAcc,
				"TEXCOORD_0": uvAcc,
				"NORMAL":     normAcc,
			},
		})
	}

	meshID := uint32(len(doc.Meshes))
	doc.Meshes = append(doc.Meshes, gm)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: a.Name, Mesh: &meshID})

	fillMaterials(doc, a.Materials)
	return doc, nil
}

func fillMaterials(doc *gltf.Document, slots []spec.MaterialSlot) {
	for i := range slots {
		sl := &slots[i]
		alpha := float32(sl.AlphaOrOpaque())

		gm := &gltf.Material{Name: sl.Name, DoubleSided: false, AlphaMode: gltf.AlphaOpaque}
		if alpha < 1 {
			gm.AlphaMode = gltf.AlphaBlend
		}

		metallic := float32(sl.Metallic)
		roughness := float32(sl.Roughness)
		gm.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{
				float32(sl.Color[0]), float32(sl.Color[1]), float32(sl.Color[2]), alpha,
			},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		}
		gm.EmissiveFactor[0] = float32(sl.Emissive[0])
		gm.EmissiveFactor[1] = float32(sl.Emissive[1])
		gm.EmissiveFactor[2] = float32(sl.Emissive[2])

		doc.Materials = append(doc.Materials, gm)
	}
}

type materialGroup struct {
	material int
	tris     []int
}

// groupByMaterial buckets triangles by the material slot of their first
// vertex, in slot order. Vertices of one compiled bone mesh all share a slot,
// so a triangle never straddles two materials.
func groupByMaterial(m *mesh.Mesh) []materialGroup {
	byMat := make(map[int][]int)
	maxMat := 0
	for ti, t := range m.Tris {
		mat := m.MaterialIdx[t[0]]
		byMat[mat] = append(byMat[mat], ti)
		if mat > maxMat {
			maxMat = mat
		}
	}

	var out []materialGroup
	for mat := 0; mat <= maxMat; mat++ {
		if tris, ok := byMat[mat]; ok {
			out = append(out, materialGroup{material: mat, tris: tris})
		}
	}
	return out
}

// EncodeBinary serializes the document in GLB form, padded to 4 bytes.
func EncodeBinary(doc *gltf.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if pad := (4 - buf.Len()%4) % 4; pad > 0 {
		buf.Write(bytes.Repeat([]byte{0x20}, pad))
	}
	return buf.Bytes(), nil
}

// WriteGLB builds and writes the binary glTF file for an asset.
func WriteGLB(w io.Writer, a *mesh.Asset) error {
	doc, err := BuildDocument(a)
	if err != nil {
		return err
	}
	data, err := EncodeBinary(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteGLBFile is the file-path convenience wrapper around WriteGLB.
func WriteGLBFile(path string, a *mesh.Asset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteGLB(f, a)
}
