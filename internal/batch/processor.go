// Package batch generates every spec document under a directory with a
// worker pool and writes an output manifest.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"creature-mesh-gen/internal/assets"
	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/export"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/pipeline"
	"creature-mesh-gen/internal/preview"
	"creature-mesh-gen/internal/spec"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Kernel      kernel.Kernel
	Assets      *assets.Library
	Workers     int
	Preview     bool
	PreviewSize int
	Supersample int
}

// Result holds the outcome of processing one spec file.
type Result struct {
	Spec     string
	Name     string
	Output   string
	Warnings int
	Success  bool
	Error    string
}

// ListSpecs returns the YAML/JSON spec files under dir, sorted.
func ListSpecs(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run processes all spec files using a worker pool.
func Run(cfg Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f specs/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processSpec(cfg, files[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

func processSpec(cfg Config, path string) Result {
	doc, err := spec.Load(path)
	if err != nil {
		return Result{Spec: path, Error: err.Error()}
	}

	asset, diags, err := pipeline.Generate(doc, pipeline.Options{
		Kernel: cfg.Kernel,
		Assets: cfg.Assets,
		// Documents already fan out across the pool; keep each run serial.
		Workers: 1,
	})
	warnings := 0
	for _, d := range diags {
		if d.Severity == diag.SeverityWarning {
			warnings++
		}
	}
	if err != nil {
		return Result{Spec: path, Name: doc.Name, Warnings: warnings, Error: err.Error()}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return Result{Spec: path, Name: doc.Name, Error: err.Error()}
	}

	outPath := filepath.Join(cfg.OutputDir, doc.Name+".glb")
	if err := export.WriteGLBFile(outPath, asset); err != nil {
		return Result{Spec: path, Name: doc.Name, Error: err.Error()}
	}
	if err := export.WriteRigFile(filepath.Join(cfg.OutputDir, doc.Name+".rig.json"), asset); err != nil {
		return Result{Spec: path, Name: doc.Name, Error: err.Error()}
	}

	if cfg.Preview {
		img := preview.Render(asset, preview.Options{
			Size:        cfg.PreviewSize,
			Supersample: cfg.Supersample,
			Yaw:         30,
			Pitch:       15,
		})
		if cfg.Supersample > 1 {
			img = preview.Downsample(img, cfg.PreviewSize, cfg.PreviewSize)
		}
		if err := preview.SaveWebP(filepath.Join(cfg.OutputDir, doc.Name+".webp"), img); err != nil {
			return Result{Spec: path, Name: doc.Name, Error: fmt.Sprintf("WebP encode: %v", err)}
		}
	}

	return Result{
		Spec:     path,
		Name:     doc.Name,
		Output:   outPath,
		Warnings: warnings,
		Success:  true,
	}
}
