// Package recording implements the Recording Coordinator (spec.md §4.3):
// segment naming and directory layout, rotation scheduling delegated to
// each camera's Pipeline, retention sweep, and disk usage accounting.
package recording

import (
	"path/filepath"
	"strings"
)

// parseSegmentName parses a filename of the form
// "<camera_id>_<YYYYMMDD_HHMMSS>.<ext>" (spec.md §6 layout), returning ok
// = false for anything that doesn't match.
func parseSegmentName(name string) (cameraID, timestamp, ext string, ok bool) {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return
	}
	base, e := name[:dot], name[dot+1:]

	// Timestamp suffix is always "_YYYYMMDD_HHMMSS" (16 chars).
	const tsLen = 16
	if len(base) <= tsLen {
		return
	}
	split := len(base) - tsLen
	if base[split] != '_' {
		return
	}
	id := base[:split]
	ts := base[split+1:]
	if id == "" {
		return
	}
	return id, ts, e, true
}

// segmentDir returns <root>/<camera_id>/<date_dir>.
func segmentDir(root, cameraID, dateDir string) string {
	return filepath.Join(root, cameraID, dateDir)
}
