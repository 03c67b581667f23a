package export

import (
	"encoding/json"
	"io"
	"os"

	"creature-mesh-gen/internal/mesh"
)

// Rig is the sidecar document carried next to the glTF file: bone transforms
// in declaration order plus the per-vertex skin binding table.
type Rig struct {
	Name  string               `json:"name"`
	Bones []mesh.BoneTransform `json:"bones"`
	Skin  [][]mesh.Influence   `json:"skin"`
}

// WriteRig serializes the rig sidecar as indented JSON.
func WriteRig(w io.Writer, a *mesh.Asset) error {
	rig := Rig{Name: a.Name, Bones: a.Bones, Skin: a.Skin}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rig)
}

// WriteRigFile is the file-path convenience wrapper around WriteRig.
func WriteRigFile(path string, a *mesh.Asset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteRig(f, a)
}
