package domain

import "errors"

// ErrNotFound is returned by repositories when a set does not exist.
var ErrNotFound = errors.New("not found")

// TileInfo describes a fetched 3D tile.
type TileInfo struct {
	Name      string      `json:"name"`
	RTCCenter *[3]float64 `json:"rtc_center,omitempty"` // ECEF, meters
	GLTFBytes int         `json:"gltf_bytes"`

	// GLTF is the embedded binary glTF. It stays in process: activity
	// results only carry the fields above.
	GLTF []byte `json:"-"`
}

// SurveyResult is returned by a tile survey run.
type SurveyResult struct {
	Set     string   `json:"set"`
	Tiles   int      `json:"tiles"`
	Missing []string `json:"missing"`
}
