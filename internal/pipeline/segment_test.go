package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentPathLayout(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2026, 3, 14, 9, 5, 30, 0, time.UTC)

	path, err := segmentPath(root, "cam_01", "mp4", at)
	require.NoError(t, err)

	want := filepath.Join(root, "cam_01", "20260314", "cam_01_20260314_090530.mp4")
	assert.Equal(t, want, path)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSegmentPathDefaultsExtension(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	path, err := segmentPath(root, "cam_02", "", at)
	require.NoError(t, err)
	assert.Equal(t, ".mp4", filepath.Ext(path))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "streaming_only", StreamingOnly.String())
	assert.Equal(t, "recording_only", RecordingOnly.String())
	assert.Equal(t, "both", Both.String())
}

func TestSegmentOpen(t *testing.T) {
	s := Segment{StartedAt: time.Now()}
	assert.True(t, s.Open())
	s.EndedAt = time.Now()
	assert.False(t, s.Open())
}
