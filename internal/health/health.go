// Package health exposes a /healthz and /metrics endpoint reporting the
// health of every supervised camera, so a host process or external
// monitor can probe the daemon without speaking the pipeline command
// surface directly.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// CameraInfo describes one camera's health at a point in time.
type CameraInfo struct {
	CameraID       string  `json:"camera_id"`
	PipelineState  string  `json:"pipeline_state"`
	Healthy        bool    `json:"healthy"`
	FramesReceived int64   `json:"frames_received"`
	UptimeSeconds  float64 `json:"uptime_s"`
	LastError      string  `json:"last_error,omitempty"`
}

// DiskInfo surfaces the Recording Coordinator's disk accounting so an
// operator can catch exhaustion before retention sweeps would.
type DiskInfo struct {
	TotalBytes int64 `json:"total_bytes"`
	FileCount  int   `json:"file_count"`
}

// StatusProvider is implemented by the daemon to supply live data.
type StatusProvider interface {
	Cameras() []CameraInfo
}

// DiskInfoProvider is implemented by the daemon to supply disk usage.
type DiskInfoProvider interface {
	DiskUsage() DiskInfo
}

// Response is the JSON body returned by /healthz.
type Response struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Cameras   []CameraInfo `json:"cameras"`
	Disk      *DiskInfo    `json:"disk,omitempty"`
}

// Handler serves /healthz and /metrics.
type Handler struct {
	provider     StatusProvider
	diskProvider DiskInfoProvider
}

// NewHandler creates a health handler backed by provider.
func NewHandler(provider StatusProvider) *Handler {
	return &Handler{provider: provider}
}

// WithDiskInfo attaches an optional disk usage provider.
func (h *Handler) WithDiskInfo(p DiskInfoProvider) *Handler {
	h.diskProvider = p
	return h
}

// ServeHTTP implements http.Handler, routing /healthz and /metrics.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/metrics":
		h.serveMetrics(w, r)
	default:
		h.serveHealth(w, r)
	}
}

func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := Response{Timestamp: time.Now()}

	var cameras []CameraInfo
	if h.provider != nil {
		cameras = h.provider.Cameras()
	}
	resp.Cameras = cameras

	healthy := len(cameras) > 0
	for _, c := range cameras {
		if !c.Healthy {
			healthy = false
			break
		}
	}

	if h.diskProvider != nil {
		d := h.diskProvider.DiskUsage()
		resp.Disk = &d
	}

	if healthy {
		resp.Status = "healthy"
	} else {
		resp.Status = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// serveMetrics writes a minimal Prometheus text-format response, matching
// the pack's convention of avoiding a full metrics client dependency for
// a handful of gauges.
func (h *Handler) serveMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var sb strings.Builder

	var cameras []CameraInfo
	if h.provider != nil {
		cameras = h.provider.Cameras()
	}

	if len(cameras) > 0 {
		fmt.Fprintln(&sb, "# HELP nvr_camera_healthy Is the camera currently healthy (1=healthy, 0=not).")
		fmt.Fprintln(&sb, "# TYPE nvr_camera_healthy gauge")
		for _, c := range cameras {
			v := 0
			if c.Healthy {
				v = 1
			}
			fmt.Fprintf(&sb, "nvr_camera_healthy{camera_id=%q} %d\n", c.CameraID, v)
		}

		fmt.Fprintln(&sb, "# HELP nvr_camera_uptime_seconds Seconds since the camera last connected.")
		fmt.Fprintln(&sb, "# TYPE nvr_camera_uptime_seconds gauge")
		for _, c := range cameras {
			fmt.Fprintf(&sb, "nvr_camera_uptime_seconds{camera_id=%q} %.3f\n", c.CameraID, c.UptimeSeconds)
		}

		fmt.Fprintln(&sb, "# HELP nvr_camera_frames_received_total Frames observed on the display branch.")
		fmt.Fprintln(&sb, "# TYPE nvr_camera_frames_received_total counter")
		for _, c := range cameras {
			fmt.Fprintf(&sb, "nvr_camera_frames_received_total{camera_id=%q} %d\n", c.CameraID, c.FramesReceived)
		}
	}

	if h.diskProvider != nil {
		d := h.diskProvider.DiskUsage()
		fmt.Fprintln(&sb, "# HELP nvr_disk_total_bytes Bytes consumed under the recording root.")
		fmt.Fprintln(&sb, "# TYPE nvr_disk_total_bytes gauge")
		fmt.Fprintf(&sb, "nvr_disk_total_bytes %d\n", d.TotalBytes)

		fmt.Fprintln(&sb, "# HELP nvr_disk_file_count Number of files under the recording root.")
		fmt.Fprintln(&sb, "# TYPE nvr_disk_file_count gauge")
		fmt.Fprintf(&sb, "nvr_disk_file_count %d\n", d.FileCount)
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

// ListenAndServe starts the health endpoint, binding synchronously so a
// port conflict is reported before the caller proceeds, and shutting
// down gracefully when ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
