// Package manifest describes the per-chunk artifact the rewriter emits
// and the loader (optionally) consumes — spec §3, §6.
package manifest

import "encoding/json"

// Chunk is the JSON shape written to "<chunkAsset>.manifest". Field names
// match the wire format exactly; consumers tolerate additional fields, so
// this struct doesn't round-trip unknown keys.
type Chunk struct {
	Entry   string              `json:"entry,omitempty"` // definePath of the first module, entry chunks only
	Hash    string              `json:"hash"`
	ID      any                 `json:"id"` // number or string, mirrors the bundler's chunk id
	Name    string              `json:"name"`
	Files   []string            `json:"files"`
	Modules map[string][]string `json:"modules"` // definePath -> require paths it issues
}

// Marshal renders c as the manifest's canonical JSON encoding.
func Marshal(c Chunk) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Unmarshal parses manifest JSON. Extra/unknown fields are ignored.
func Unmarshal(data []byte) (Chunk, error) {
	var c Chunk
	err := json.Unmarshal(data, &c)
	return c, err
}
