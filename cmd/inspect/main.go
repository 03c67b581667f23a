package main

import (
	"flag"
	"fmt"
	"os"

	"creature-mesh-gen/internal/assets"
	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/pipeline"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

func main() {
	assetDir := flag.String("assets", "", "Directory of STL asset meshes")
	cells := flag.Int("cells", 48, "CSG triangulation resolution")
	validateOnly := flag.Bool("validate", false, "Validate only, skip generation")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [flags] <spec file>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	doc, err := spec.Load(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	skel, err := skeleton.Resolve(&doc.Skeleton)
	var names []string
	if err == nil {
		names = skel.Names()
	}
	diags := spec.Validate(doc, names)
	if err != nil {
		diags.Add(diag.CodeUnresolvedRef, "skeleton", "%v", err)
	}

	fmt.Printf("Spec: %s (%s)\n", doc.Name, path)
	if skel != nil {
		fmt.Printf("Bones: %d, Bone meshes: %d, Materials: %d, Cutters: %d\n",
			len(skel.Bones), len(doc.BoneMeshes), len(doc.MaterialSlots), len(doc.BoolShapes))
		for i := range skel.Bones {
			b := &skel.Bones[i]
			parent := "-"
			if b.Parent >= 0 {
				parent = skel.Bones[b.Parent].Name
			}
			fmt.Printf("  Bone[%d] %-16s parent=%-16s len=%.3f\n", i, b.Name, parent, b.Length)
		}
	}

	for _, d := range diags.Items {
		tag := "error"
		if d.Severity == diag.SeverityWarning {
			tag = "warn"
		}
		fmt.Printf("  %-5s %s\n", tag, d.String())
	}
	if diags.HasErrors() {
		fmt.Println("Validation: FAILED")
		os.Exit(1)
	}
	fmt.Println("Validation: OK")
	if *validateOnly {
		return
	}

	asset, warns, err := pipeline.Generate(doc, pipeline.Options{
		Kernel: kernel.NewSDF(*cells),
		Assets: assets.NewLibrary(assets.BuildIndex(*assetDir)),
	})
	if err != nil {
		fmt.Printf("Generation error: %v\n", err)
		os.Exit(1)
	}

	min, max := asset.Mesh.Bounds()
	fmt.Printf("Mesh: verts=%d, tris=%d\n", asset.Mesh.VertexCount(), asset.Mesh.TriangleCount())
	fmt.Printf("  BBox: X[%.2f, %.2f] Y[%.2f, %.2f] Z[%.2f, %.2f]\n",
		min[0], max[0], min[1], max[1], min[2], max[2])
	fmt.Printf("  Size: %.2f x %.2f x %.2f\n", max[0]-min[0], max[1]-min[1], max[2]-min[2])

	perBone := map[int]int{}
	for _, bi := range asset.Mesh.BoneIdx {
		perBone[bi]++
	}
	for i, b := range asset.Bones {
		if n := perBone[i]; n > 0 {
			fmt.Printf("  %-16s %d verts\n", b.Name, n)
		}
	}
	for _, d := range warns {
		if d.Severity == diag.SeverityWarning {
			fmt.Printf("  warn  %s\n", d.String())
		}
	}
}
