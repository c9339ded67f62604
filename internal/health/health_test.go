package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	cameras []CameraInfo
}

func (f fakeProvider) Cameras() []CameraInfo { return f.cameras }

func TestHealthyWhenAllCamerasHealthy(t *testing.T) {
	h := NewHandler(fakeProvider{cameras: []CameraInfo{{CameraID: "cam1", Healthy: true}}})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"healthy"`)
}

func TestUnhealthyWhenAnyCameraUnhealthy(t *testing.T) {
	h := NewHandler(fakeProvider{cameras: []CameraInfo{{CameraID: "cam1", Healthy: false}}})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNoCamerasIsUnhealthy(t *testing.T) {
	h := NewHandler(fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetricsEndpointFormat(t *testing.T) {
	h := NewHandler(fakeProvider{cameras: []CameraInfo{{CameraID: "cam1", Healthy: true, FramesReceived: 42}}})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `nvr_camera_frames_received_total{camera_id="cam1"} 42`)
}
