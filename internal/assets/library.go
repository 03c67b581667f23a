// Package assets resolves Asset and AssetRef shapes: external STL meshes
// loaded from an asset directory, and mesh outputs of previously generated
// assets registered during the same run.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	stl "github.com/flywave/go-stl"
	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/kernel"
)

// Index maps lowercase asset stems to filesystem paths under the asset
// directory. "horn" resolves horn.stl anywhere below the root.
type Index struct {
	entries map[string]string
}

// BuildIndex scans dir recursively for STL files.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".stl" {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if _, exists := idx.entries[stem]; !exists {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for an asset name, or ("", false).
func (idx *Index) ResolvePath(name string) (string, bool) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed assets.
func (idx *Index) Len() int { return len(idx.entries) }

// Library is a concurrency-safe asset mesh cache plus the registry of
// generated outputs referenced by asset_ref shapes.
type Library struct {
	mu     sync.RWMutex
	loaded map[string]*kernel.TriMesh
	refs   map[string]*kernel.TriMesh
	index  *Index
}

// NewLibrary creates a library backed by the given index.
func NewLibrary(index *Index) *Library {
	return &Library{
		loaded: make(map[string]*kernel.TriMesh),
		refs:   make(map[string]*kernel.TriMesh),
		index:  index,
	}
}

// Load resolves and caches an STL asset by name.
func (l *Library) Load(name string) (*kernel.TriMesh, error) {
	path, ok := l.index.ResolvePath(name)
	if !ok {
		return nil, fmt.Errorf("assets: %q not found", name)
	}

	l.mu.RLock()
	if m, exists := l.loaded[path]; exists {
		l.mu.RUnlock()
		return m, nil
	}
	l.mu.RUnlock()

	m, err := loadSTL(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if prior, exists := l.loaded[path]; exists {
		l.mu.Unlock()
		return prior, nil
	}
	l.loaded[path] = m
	l.mu.Unlock()

	return m, nil
}

// Register records a generated asset's mesh so later documents in the same
// run can reference it by name.
func (l *Library) Register(name string, m *kernel.TriMesh) {
	l.mu.Lock()
	l.refs[name] = m
	l.mu.Unlock()
}

// Ref resolves a previously registered generated mesh.
func (l *Library) Ref(name string) (*kernel.TriMesh, error) {
	l.mu.RLock()
	m, ok := l.refs[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("assets: no generated asset named %q", name)
	}
	return m, nil
}

func loadSTL(path string) (*kernel.TriMesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", path, err)
	}

	verts := make([]r3.Vec, 0, len(solid.Triangles)*3)
	tris := make([][3]int, 0, len(solid.Triangles))
	for _, t := range solid.Triangles {
		n := len(verts)
		for _, v := range t.Vertices {
			verts = append(verts, r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
		}
		tris = append(tris, [3]int{n, n + 1, n + 2})
	}

	m := kernel.Weld(verts, tris)
	if m.IsEmpty() {
		return nil, fmt.Errorf("assets: %s contains no triangles", path)
	}
	return m, nil
}
