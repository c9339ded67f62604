package recording

import (
	"os"
	"path/filepath"
	"time"
)

// RetentionResult reports the outcome of a sweep (spec.md §4.3).
type RetentionResult struct {
	DeletedFiles int
	FreedBytes   int64
}

// RetentionSweep walks <root>/<camera_id>/<date_dir>/* for every camera
// under root, deleting files whose mtime is older than now-days. Active
// segment paths are skipped by mtime recency and by direct path equality
// with activePaths, so a sweep is safe to run concurrently with recording
// (spec.md §4.3, §8 "Retention safety"). Empty date directories are
// removed afterward.
func (c *Coordinator) RetentionSweep(days int, activePaths map[string]struct{}) (RetentionResult, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	var result RetentionResult

	cameraDirs, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, err
	}

	for _, cameraDir := range cameraDirs {
		if !cameraDir.IsDir() {
			continue
		}
		cameraPath := filepath.Join(c.root, cameraDir.Name())
		dateDirs, err := os.ReadDir(cameraPath)
		if err != nil {
			continue
		}
		for _, dateDir := range dateDirs {
			if !dateDir.IsDir() {
				continue
			}
			datePath := filepath.Join(cameraPath, dateDir.Name())
			deleted, freed := sweepDateDir(datePath, cutoff, activePaths)
			result.DeletedFiles += deleted
			result.FreedBytes += freed
			removeIfEmpty(datePath)
		}
	}
	return result, nil
}

func sweepDateDir(dir string, cutoff time.Time, activePaths map[string]struct{}) (deleted int, freed int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, active := activePaths[path]; active {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			continue
		}
		deleted++
		freed += info.Size()
	}
	return deleted, freed
}

func removeIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	os.Remove(dir)
}
