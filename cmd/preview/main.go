package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"creature-mesh-gen/internal/assets"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/pipeline"
	"creature-mesh-gen/internal/preview"
	"creature-mesh-gen/internal/spec"
)

func main() {
	assetDir := flag.String("assets", "", "Directory of STL asset meshes")
	cells := flag.Int("cells", 48, "CSG triangulation resolution")
	size := flag.Int("size", 512, "Output image size in pixels")
	supersample := flag.Int("ss", 2, "Supersampling factor")
	yaw := flag.Float64("yaw", 30, "Camera yaw in degrees")
	pitch := flag.Float64("pitch", 15, "Camera pitch in degrees")
	out := flag.String("o", "", "Output WebP path (default: <spec>.webp)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: preview [flags] <spec file>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	doc, err := spec.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	asset, _, err := pipeline.Generate(doc, pipeline.Options{
		Kernel: kernel.NewSDF(*cells),
		Assets: assets.NewLibrary(assets.BuildIndex(*assetDir)),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	img := preview.Render(asset, preview.Options{
		Size:        *size,
		Supersample: *supersample,
		Yaw:         *yaw,
		Pitch:       *pitch,
	})
	if *supersample > 1 {
		img = preview.Downsample(img, *size, *size)
	}

	outPath := *out
	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".webp"
	}
	if err := preview.SaveWebP(outPath, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d verts, %d tris → %s\n", doc.Name, asset.Mesh.VertexCount(), asset.Mesh.TriangleCount(), outPath)
}
