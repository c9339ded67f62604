package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// segmentPath computes the path for a new segment and creates its date
// directory if absent, per spec.md §4.1.5 and the layout in §6:
//
//	<recording_root>/<camera_id>/<YYYYMMDD>/<camera_id>_<YYYYMMDD_HHMMSS>.<ext>
func segmentPath(root, cameraID string, ext string, at time.Time) (string, error) {
	if ext == "" {
		ext = "mp4"
	}
	dateDir := at.Format("20060102")
	dir := filepath.Join(root, cameraID, dateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("segment: create date directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.%s", cameraID, at.Format("20060102_150405"), ext)
	return filepath.Join(dir, name), nil
}
