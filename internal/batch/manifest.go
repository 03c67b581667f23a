package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one generated asset in the output manifest.
type ManifestEntry struct {
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Model    string `json:"model,omitempty"`
	Rig      string `json:"rig,omitempty"`
	Preview  string `json:"preview,omitempty"`
	Warnings int    `json:"warnings,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WriteManifest writes manifest.json describing every batch result.
func WriteManifest(path string, results []Result, withPreview bool) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		e := ManifestEntry{
			Name:     r.Name,
			Spec:     filepath.Base(r.Spec),
			Warnings: r.Warnings,
			Error:    r.Error,
		}
		if r.Success {
			e.Model = r.Name + ".glb"
			e.Rig = r.Name + ".rig.json"
			if withPreview {
				e.Preview = r.Name + ".webp"
			}
		}
		entries[i] = e
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
