// Package config loads the generator's JSON configuration and resolves it
// against CLI flags and sensible defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all configurable paths and generation settings.
type Config struct {
	// Paths
	SpecDir   string `json:"spec_dir"`
	AssetDir  string `json:"asset_dir"`
	OutputDir string `json:"output_dir"`

	// Generation settings
	MeshCells   int  `json:"mesh_cells"` // CSG triangulation resolution
	Workers     int  `json:"workers"`
	Preview     bool `json:"preview"`
	PreviewSize int  `json:"preview_size"`
	Supersample int  `json:"supersample"`
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values until Resolve fills them.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	SpecDir   string
	AssetDir  string
	OutputDir string
	MeshCells int
	Workers   int
}

// Resolve fills in any empty fields with defaults. CLI flags take priority
// when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.SpecDir != "" {
		c.SpecDir = flags.SpecDir
	}
	if flags.AssetDir != "" {
		c.AssetDir = flags.AssetDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.MeshCells > 0 {
		c.MeshCells = flags.MeshCells
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.SpecDir == "" {
		c.SpecDir = detectSpecDir()
	}
	if c.AssetDir == "" && c.SpecDir != "" {
		if dir := filepath.Join(filepath.Dir(c.SpecDir), "assets"); dirExists(dir) {
			c.AssetDir = dir
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}

	if c.MeshCells <= 0 {
		c.MeshCells = 48
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
}

func detectSpecDir() string {
	cwd, _ := os.Getwd()
	for _, base := range []string{cwd, filepath.Dir(cwd)} {
		for _, name := range []string{"specs", "creatures"} {
			if dir := filepath.Join(base, name); dirExists(dir) {
				return dir
			}
		}
	}
	return cwd
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
