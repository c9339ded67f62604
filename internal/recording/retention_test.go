package recording

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestRetentionSweepDeletesOldFiles(t *testing.T) {
	root := t.TempDir()
	oldFile := filepath.Join(root, "cam1", "20200101", "cam1_20200101_000000.mp4")
	newFile := filepath.Join(root, "cam1", "20260101", "cam1_20260101_000000.mp4")

	writeAged(t, oldFile, 60*24*time.Hour)
	writeAged(t, newFile, time.Hour)

	c := &Coordinator{root: root, log: zerolog.Nop(), active: map[string]struct{}{}}

	result, err := c.RetentionSweep(7, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedFiles)
	assert.EqualValues(t, 4, result.FreedBytes)

	_, err = os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newFile)
	assert.NoError(t, err)

	// Empty date dir for the deleted file should be gone.
	_, err = os.Stat(filepath.Dir(oldFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRetentionSweepSkipsActivePath(t *testing.T) {
	root := t.TempDir()
	activeFile := filepath.Join(root, "cam1", "20200101", "cam1_20200101_000000.mp4")
	writeAged(t, activeFile, 60*24*time.Hour)

	c := &Coordinator{root: root, log: zerolog.Nop(), active: map[string]struct{}{}}

	result, err := c.RetentionSweep(7, map[string]struct{}{activeFile: {}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.DeletedFiles)

	_, err = os.Stat(activeFile)
	assert.NoError(t, err)
}

func TestDiskUsageAggregatesPerCamera(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "cam1", "20260101", "a.mp4"), 0)
	writeAged(t, filepath.Join(root, "cam2", "20260101", "b.mp4"), 0)

	c := &Coordinator{root: root, log: zerolog.Nop(), active: map[string]struct{}{}}
	total, perCamera, err := c.DiskUsage()
	require.NoError(t, err)

	assert.Equal(t, 2, total.FileCount)
	assert.EqualValues(t, 8, total.TotalBytes)
	assert.Equal(t, 1, perCamera["cam1"].FileCount)
	assert.Equal(t, 1, perCamera["cam2"].FileCount)
}

func TestParseSegmentName(t *testing.T) {
	id, ts, ext, ok := parseSegmentName("front_door_20260314_090530.mp4")
	require.True(t, ok)
	assert.Equal(t, "front_door", id)
	assert.Equal(t, "20260314_090530", ts)
	assert.Equal(t, "mp4", ext)
}

func TestParseSegmentNameRejectsMalformed(t *testing.T) {
	_, _, _, ok := parseSegmentName("not-a-segment")
	assert.False(t, ok)
}
