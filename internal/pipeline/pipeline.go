// Package pipeline drives one generation run: validate the document, compile
// every bone mesh, mirror, attach, bridge, enforce budgets, bind the skin and
// assemble the export-ready asset.
package pipeline

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/assets"
	"creature-mesh-gen/internal/compile"
	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/mesh"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/skin"
	"creature-mesh-gen/internal/spec"
)

// Options holds the shared resources for a generation run.
type Options struct {
	Kernel  kernel.Kernel
	Assets  *assets.Library
	Workers int // <= 0 means NumCPU
}

// defaultSlot is the implicit material when a document declares none.
var defaultSlot = spec.MaterialSlot{
	Name:      "default",
	Color:     [3]float64{0.8, 0.8, 0.8},
	Roughness: 0.8,
}

// Generate runs the full pipeline for one document. The returned diagnostics
// carry warnings even on success; on a validation failure the error wraps
// every collected finding at once.
func Generate(doc *spec.Document, opts Options) (*mesh.Asset, []diag.Diagnostic, error) {
	skel, resolveErr := skeleton.Resolve(&doc.Skeleton)

	var boneNames []string
	if resolveErr == nil {
		boneNames = skel.Names()
	}
	diags := spec.Validate(doc, boneNames)
	if resolveErr != nil {
		diags.Add(diag.CodeUnresolvedRef, "skeleton", "%v", resolveErr)
	}
	if diags.HasErrors() {
		return nil, diags.Items, &diag.ValidationError{Diagnostics: diags.Errors()}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx := &compile.Context{
		Kernel: opts.Kernel,
		Assets: opts.Assets,
		Doc:    doc,
		Skel:   skel,
	}
	cutters, err := compile.ResolveCutters(ctx)
	if err != nil {
		return nil, diags.Items, err
	}
	ctx.Cutters = cutters

	// Phase 1: extrusion and part meshes, one worker job per bone. Mirrors
	// wait for their sources.
	results := make([]*compile.Result, len(skel.Bones))
	if err := forEachBone(ctx, skel, workers, func(i int, bm *spec.BoneMesh) error {
		bone := &skel.Bones[i]
		var res *compile.Result
		var err error
		switch bm.Mode() {
		case spec.ModeExtrusion:
			res, err = compile.CompileExtrusion(ctx, bone, bm)
		case spec.ModePart:
			res, err = compile.CompilePart(ctx, bone, bm)
		default:
			return nil
		}
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	}); err != nil {
		return nil, diags.Items, err
	}

	// Phase 2: mirrors copy their source pre-attachment, in declaration
	// order. Validation already rejected mirror-of-mirror chains.
	for i := range skel.Bones {
		bm := doc.BoneMeshes[skel.Bones[i].Name]
		if bm == nil || bm.Mode() != spec.ModeMirror {
			continue
		}
		srcIdx, ok := skel.Lookup(bm.MirrorOf)
		if !ok || results[srcIdx] == nil {
			return nil, diags.Items, &diag.UnresolvedReferenceError{
				Kind: "mirror", Name: bm.MirrorOf,
				Path: fmt.Sprintf("bone_meshes.%s.mirror_of", skel.Bones[i].Name),
			}
		}
		results[i] = compile.MirrorResult(results[srcIdx], &skel.Bones[srcIdx], &skel.Bones[i], bm)
	}

	// Phase 3: attachments then modifiers, per bone, parallel again now that
	// mirror sources are settled.
	if err := forEachBone(ctx, skel, workers, func(i int, bm *spec.BoneMesh) error {
		if results[i] == nil {
			return nil
		}
		bone := &skel.Bones[i]
		if err := compile.ApplyAttachments(ctx, bone, bm, results[i]); err != nil {
			return err
		}
		return compile.ApplyModifiers(ctx, bone, bm, results[i])
	}); err != nil {
		return nil, diags.Items, err
	}

	// Phase 4: bridge strips between adjacent bone meshes. Mismatches were
	// recorded as warnings, never errors.
	strips := compile.ConnectBridges(skel, results, &diags)

	// Budget walk in declaration order so the reported overage is stable.
	budget := newTriangleBudget(doc.Limits.MaxTriangles)
	ordered := make([]*compile.Result, 0, len(results)+len(strips))
	for _, res := range results {
		if res != nil {
			ordered = append(ordered, res)
		}
	}
	ordered = append(ordered, strips...)
	for _, res := range ordered {
		if err := budget.add(res.Mesh.TriangleCount()); err != nil {
			return nil, diags.Items, err
		}
	}

	asset := assemble(doc, skel, ordered)

	// Make the result referenceable by asset_ref shapes of later documents.
	if opts.Assets != nil && doc.Name != "" {
		var combined []*kernel.TriMesh
		for _, res := range ordered {
			combined = append(combined, res.Mesh)
		}
		opts.Assets.Register(doc.Name, kernel.Join(combined...))
	}

	return asset, diags.Items, nil
}

// forEachBone runs fn for every bone with a bone mesh entry, fanned out over
// the worker pool. The first error in bone declaration order wins.
func forEachBone(ctx *compile.Context, skel *skeleton.Skeleton, workers int, fn func(i int, bm *spec.BoneMesh) error) error {
	errs := make([]error, len(skel.Bones))

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = fn(i, ctx.Doc.BoneMeshes[skel.Bones[i].Name])
			}
		}()
	}
	for i := range skel.Bones {
		if ctx.Doc.BoneMeshes[skel.Bones[i].Name] != nil {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// assemble merges the per-bone results into one indexed mesh with parallel
// per-vertex attributes, then binds the skin.
func assemble(doc *spec.Document, skel *skeleton.Skeleton, ordered []*compile.Result) *mesh.Asset {
	var out mesh.Mesh
	var positions []r3.Vec
	var owners []int

	for _, res := range ordered {
		base := uint32(len(out.Positions))
		for vi, v := range res.Mesh.Verts {
			out.Positions = append(out.Positions, vec3.T{float32(v.X), float32(v.Y), float32(v.Z)})
			uv := vec2.T{}
			if vi < len(res.UVs) {
				uv = vec2.T{float32(res.UVs[vi][0]), float32(res.UVs[vi][1])}
			}
			out.UVs = append(out.UVs, uv)
			out.MaterialIdx = append(out.MaterialIdx, res.Material)
			out.BoneIdx = append(out.BoneIdx, res.BoneIndex)

			positions = append(positions, v)
			owners = append(owners, res.BoneIndex)
		}
		for _, t := range res.Mesh.Tris {
			out.Tris = append(out.Tris, [3]uint32{
				base + uint32(t[0]),
				base + uint32(t[1]),
				base + uint32(t[2]),
			})
		}
	}
	out.RecomputeNormals()

	bones := make([]mesh.BoneTransform, len(skel.Bones))
	for i := range skel.Bones {
		b := &skel.Bones[i]
		bones[i] = mesh.BoneTransform{
			Name:   b.Name,
			Parent: b.Parent,
			Head:   [3]float64{b.Head.X, b.Head.Y, b.Head.Z},
			Tail:   [3]float64{b.Tail.X, b.Tail.Y, b.Tail.Z},
		}
	}

	materials := doc.MaterialSlots
	if len(materials) == 0 {
		materials = []spec.MaterialSlot{defaultSlot}
	}

	return &mesh.Asset{
		Name:      doc.Name,
		Mesh:      out,
		Bones:     bones,
		Skin:      skin.Bind(skel, &doc.Skinning, positions, owners),
		Materials: materials,
	}
}
