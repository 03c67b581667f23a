package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"creature-mesh-gen/internal/assets"
	"creature-mesh-gen/internal/batch"
	"creature-mesh-gen/internal/config"
	"creature-mesh-gen/internal/kernel"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	specDir := flag.String("specs", "", "Directory of spec files (default: auto-detect)")
	assetDir := flag.String("assets", "", "Directory of STL asset meshes")
	outputDir := flag.String("output", "", "Output directory (default: out)")
	cells := flag.Int("cells", 0, "CSG triangulation resolution (default: 48)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	withPreview := flag.Bool("preview", false, "Also render a WebP preview per asset")
	testN := flag.Int("test", 0, "Generate only first N specs for testing")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		SpecDir:   *specDir,
		AssetDir:  *assetDir,
		OutputDir: *outputDir,
		MeshCells: *cells,
		Workers:   *workers,
	})
	if *withPreview {
		cfg.Preview = true
	}

	// Spec files: positional args win over the spec directory
	var files []string
	if flag.NArg() > 0 {
		files = flag.Args()
	} else {
		var err error
		files, err = batch.ListSpecs(cfg.SpecDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning specs: %v\n", err)
			os.Exit(1)
		}
	}
	if *testN > 0 && *testN < len(files) {
		files = files[:*testN]
	}
	if len(files) == 0 {
		fmt.Println("No specs to generate.")
		os.Exit(0)
	}

	library := assets.NewLibrary(assets.BuildIndex(cfg.AssetDir))

	fmt.Printf("Creature Mesh Generator → glTF\n")
	fmt.Printf("Specs: %d, Workers: %d, Cells: %d\n", len(files), cfg.Workers, cfg.MeshCells)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batch.Config{
		OutputDir:   cfg.OutputDir,
		Kernel:      kernel.NewSDF(cfg.MeshCells),
		Assets:      library,
		Workers:     cfg.Workers,
		Preview:     cfg.Preview,
		PreviewSize: cfg.PreviewSize,
		Supersample: cfg.Supersample,
	}, files)

	ok, failed, warned := 0, 0, 0
	for _, r := range results {
		if r.Success {
			ok++
			warned += r.Warnings
		} else {
			failed++
			fmt.Printf("  FAIL %s: %s\n", r.Spec, r.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results, cfg.Preview); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs: %d generated, %d failed, %d warnings\n",
		time.Since(start).Seconds(), ok, failed, warned)
	if failed > 0 {
		os.Exit(1)
	}
}
