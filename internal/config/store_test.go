package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(zerolog.Nop())
}

func TestStoreLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
app:
  app_name: nvr-core
  recording_path: /var/lib/nvr/recordings
  log_level: info
cameras:
  - camera_id: front_door
    name: Front Door
    rtsp_url: rtsp://192.0.2.10:554/stream1
    username: admin
    password: secret
    enabled: true
    recording_enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := testStore(t)
	require.NoError(t, s.Load(path))

	rec, ok := s.GetCamera("front_door")
	require.True(t, ok)
	assert.Equal(t, "Front Door", rec.Name)
	assert.Equal(t, "rtsp://192.0.2.10:554/stream1", rec.RTSPURL)
	assert.True(t, rec.Enabled)
	assert.Equal(t, "nvr-core", s.AppConfig().AppName)
}

func TestStoreLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	doc := `{"app":{"app_name":"nvr-core"},"cameras":[{"camera_id":"lobby","rtsp_url":"rtsp://10.0.0.5/s","enabled":true}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := testStore(t)
	require.NoError(t, s.Load(path))

	rec, ok := s.GetCamera("lobby")
	require.True(t, ok)
	assert.Equal(t, "rtsp://10.0.0.5/s", rec.RTSPURL)
}

func TestStoreLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))

	s := testStore(t)
	err := s.Load(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestAddCameraDuplicateRejected(t *testing.T) {
	s := testStore(t)
	rec := CameraRecord{CameraID: "cam1", RTSPURL: "rtsp://x/1"}
	require.NoError(t, s.AddCamera(rec))

	err := s.AddCamera(rec)
	require.ErrorIs(t, err, ErrDuplicateCameraID)
}

func TestAddCameraInvalidID(t *testing.T) {
	s := testStore(t)
	err := s.AddCamera(CameraRecord{CameraID: "bad id!", RTSPURL: "rtsp://x/1"})
	require.ErrorIs(t, err, ErrInvalidCameraID)
}

func TestRemoveCameraNotFound(t *testing.T) {
	s := testStore(t)
	err := s.RemoveCamera("nonexistent")
	require.ErrorIs(t, err, ErrCameraNotFound)
}

func TestUpdateCameraPatch(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AddCamera(CameraRecord{CameraID: "cam1", Name: "Old", RTSPURL: "rtsp://x/1", Enabled: true}))

	newName := "New Name"
	disabled := false
	rec, err := s.UpdateCamera("cam1", CameraPatch{Name: &newName, Enabled: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "New Name", rec.Name)
	assert.False(t, rec.Enabled)

	got, ok := s.GetCamera("cam1")
	require.True(t, ok)
	assert.Equal(t, "New Name", got.Name)
}

func TestGetEnabledCamerasFiltersDisabled(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AddCamera(CameraRecord{CameraID: "cam1", RTSPURL: "rtsp://x/1", Enabled: true}))
	require.NoError(t, s.AddCamera(CameraRecord{CameraID: "cam2", RTSPURL: "rtsp://x/2", Enabled: false}))

	enabled := s.GetEnabledCameras()
	require.Len(t, enabled, 1)
	assert.Equal(t, "cam1", enabled[0].CameraID)
}

func TestSaveRoundTripsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
app:
  app_name: nvr-core
cameras:
  - camera_id: cam1
    rtsp_url: rtsp://x/1
    enabled: true
    custom_field: keep-me
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := testStore(t)
	require.NoError(t, s.Load(path))
	require.NoError(t, s.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "custom_field")
	assert.Contains(t, string(raw), "keep-me")
}

func TestDefaultStreamingConfig(t *testing.T) {
	cfg := DefaultStreamingConfig()
	assert.Equal(t, 200, cfg.LatencyMS)
	assert.True(t, cfg.UseHardwareAcceleration)
	assert.Equal(t, []string{"nvh264dec", "vaapih264dec", "avdec_h264"}, cfg.DecoderPreference)
}
