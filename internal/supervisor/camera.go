// Package supervisor implements the Camera Supervisor (spec.md §4.2): one
// supervisor per camera, owning exactly one Pipeline, applying the
// reconnect policy, and reporting health. Supervisors run under a
// suture.Supervisor root so the process gets OTP-style restart semantics
// for free, while the reconnect budget itself is this package's own
// policy (§4.2 "terminal Error" once attempts are exhausted).
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/config"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/pipeline"
)

// Status is the snapshot returned by Stats (spec.md §4.2 "stats()").
type Status struct {
	CameraID       string
	PipelineState  pipeline.State
	FramesReceived int64
	UptimeSeconds  float64
	LastError      error
}

// CameraSupervisor owns one camera's connection lifecycle end to end:
// building the RTSP URL, constructing the Pipeline, tracking health, and
// applying reconnect policy (spec.md §4.2).
type CameraSupervisor struct {
	cameraID  string
	streaming config.StreamingConfig
	recordingRoot string
	log       zerolog.Logger

	mu              sync.Mutex
	record          config.CameraRecord
	pipe            *pipeline.Pipeline
	attempts        int
	lastError       error
	connectedAt     time.Time
	surfaceHandle   uintptr
	enableRecording bool
	wantConnected   bool // cleared by Disconnect, the cancellation primitive (spec.md §5)
}

// New creates a supervisor for one camera. The pipeline is not built
// until Connect is called.
func New(rec config.CameraRecord, streaming config.StreamingConfig, recordingRoot string, log zerolog.Logger) *CameraSupervisor {
	return &CameraSupervisor{
		cameraID:      rec.CameraID,
		record:        rec,
		streaming:     streaming,
		recordingRoot: recordingRoot,
		log:           log.With().Str("camera_id", rec.CameraID).Logger(),
	}
}

// Name returns the camera_id; Root uses it as the registration key.
func (s *CameraSupervisor) Name() string { return s.cameraID }

// rtspURL injects user:pass@ into the URL authority when both credentials
// are present, per spec.md §4.2.
func rtspURL(rec config.CameraRecord) string {
	if rec.Username == "" || rec.Password == "" {
		return rec.RTSPURL
	}
	idx := strings.Index(rec.RTSPURL, "://")
	if idx < 0 {
		return rec.RTSPURL
	}
	scheme, rest := rec.RTSPURL[:idx+3], rec.RTSPURL[idx+3:]
	return fmt.Sprintf("%s%s:%s@%s", scheme, rec.Username, rec.Password, rest)
}

// Connect builds and starts the Pipeline, optionally binding a surface
// handle and enabling recording immediately, per spec.md §4.2.
func (s *CameraSupervisor) Connect(ctx context.Context, surfaceHandle uintptr, enableRecording bool) error {
	s.mu.Lock()
	s.wantConnected = true
	s.surfaceHandle = surfaceHandle
	s.enableRecording = enableRecording
	rec := s.record
	streaming := s.streaming
	root := s.recordingRoot
	s.mu.Unlock()

	params := pipeline.Params{
		CameraID:                rec.CameraID,
		CameraName:              rec.Name,
		RTSPURL:                 rtspURL(rec),
		LatencyMS:               streaming.LatencyMS,
		TCPTimeoutMS:            streaming.TCPTimeoutMS,
		BufferSizeBytes:         streaming.BufferSizeBytes,
		UseHardwareAcceleration: streaming.UseHardwareAcceleration && rec.UseHardwareDecode,
		DecoderPreference:       streaming.DecoderPreference,
		OSD: pipeline.OSDConfig{
			ShowTimestamp:  streaming.OSD.ShowTimestamp,
			ShowCameraName: streaming.OSD.ShowCameraName,
			FontSize:       streaming.OSD.FontSize,
			ColorR:         streaming.OSD.ColorR,
			ColorG:         streaming.OSD.ColorG,
			ColorB:         streaming.OSD.ColorB,
		},
		RecordingRoot: root,
	}

	pipe, err := pipeline.New(params, s.log)
	if err != nil {
		s.recordFailure(err)
		return err
	}

	// The surface handle must be installed before the pipeline reaches
	// PLAYING, so the first frame the presenting element renders already
	// has a window to render into (spec.md §6 "before any frame is
	// rendered"). See Pipeline.SetWindowHandle for what the call does with
	// the handle.
	if surfaceHandle != 0 {
		pipe.SetWindowHandle(surfaceHandle)
	}

	if err := pipe.Start(ctx); err != nil {
		s.recordFailure(err)
		return err
	}

	s.mu.Lock()
	s.pipe = pipe
	s.attempts = 0 // spec.md §4.2: a successful connect resets the counter
	s.lastError = nil
	s.connectedAt = time.Now()
	s.mu.Unlock()

	if enableRecording {
		if err := pipe.SetMode(pipeline.Both); err == nil {
			if _, err := pipe.StartRecording(); err != nil {
				s.log.Warn().Err(err).Msg("could not start recording on connect")
			}
		}
	}

	return nil
}

// Disconnect stops the pipeline and is the cancellation primitive for any
// pending reconnect (spec.md §5). Idempotent.
func (s *CameraSupervisor) Disconnect() error {
	s.mu.Lock()
	s.wantConnected = false
	pipe := s.pipe
	s.pipe = nil
	s.mu.Unlock()

	if pipe == nil {
		return nil
	}
	return pipe.Stop()
}

// SetSurfaceHandle updates the handle used by the next Connect/Reconnect,
// without itself touching a live pipeline. The Host Adapter calls this
// before Reconnect as part of its rebind sequence (spec.md §4.5).
func (s *CameraSupervisor) SetSurfaceHandle(handle uintptr) {
	s.mu.Lock()
	s.surfaceHandle = handle
	s.mu.Unlock()
}

// Reconnect disconnects, waits the configured delay, then connects again.
func (s *CameraSupervisor) Reconnect(ctx context.Context) error {
	s.Disconnect()

	s.mu.Lock()
	// This reconnect wants the camera up again; a Disconnect that lands
	// during the wait below clears the flag and drops the reconnect.
	s.wantConnected = true
	delay := time.Duration(s.record.Reconnect.DelaySeconds) * time.Second
	surfaceHandle := s.surfaceHandle
	enableRecording := s.enableRecording
	s.mu.Unlock()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	cancelled := !s.wantConnected
	s.mu.Unlock()
	if cancelled {
		return fmt.Errorf("supervisor: reconnect cancelled by disconnect")
	}

	return s.Connect(ctx, surfaceHandle, enableRecording)
}

// recordFailure records err as the last error and increments the attempt
// counter used by the reconnect policy of spec.md §4.2; handleServeFailure
// decides between another reconnect and terminal error.
func (s *CameraSupervisor) recordFailure(err error) {
	s.mu.Lock()
	s.lastError = err
	s.attempts++
	attempts := s.attempts
	maxAttempts := s.record.Reconnect.Attempts
	s.mu.Unlock()

	s.log.Error().Err(err).Int("attempt", attempts).Int("max_attempts", maxAttempts).Msg("camera connection failed")
}

// CheckHealth reports connected AND (no frame tracked OR last frame
// within timeout), per spec.md §4.2.
func (s *CameraSupervisor) CheckHealth(timeout time.Duration) bool {
	s.mu.Lock()
	pipe := s.pipe
	s.mu.Unlock()

	if pipe == nil {
		return false
	}
	if pipe.Status().State != pipeline.Running && pipe.Status().State != pipeline.Degraded {
		return false
	}
	_, lastFrame := pipe.FrameStats()
	if lastFrame.IsZero() {
		return true
	}
	return time.Since(lastFrame) <= timeout
}

// Stats reports the current observable state of the supervised camera,
// per spec.md §4.2 "stats()".
func (s *CameraSupervisor) Stats() Status {
	s.mu.Lock()
	pipe := s.pipe
	lastErr := s.lastError
	connectedAt := s.connectedAt
	s.mu.Unlock()

	st := Status{CameraID: s.cameraID, LastError: lastErr}
	if pipe == nil {
		st.PipelineState = pipeline.Idle
		return st
	}
	frames, _ := pipe.FrameStats()
	st.PipelineState = pipe.Status().State
	st.FramesReceived = frames
	if !connectedAt.IsZero() {
		st.UptimeSeconds = time.Since(connectedAt).Seconds()
	}
	return st
}

// Pipeline returns the currently built pipeline, or nil if disconnected.
// Used by the Recording Coordinator and Host Adapter to issue commands
// without the Supervisor owning those callers' logic.
func (s *CameraSupervisor) Pipeline() *pipeline.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe
}

// Serve implements suture.Service: it blocks while connected, and on
// pipeline failure applies the reconnect policy until the attempt budget
// is exhausted, at which point it returns suture.ErrDoNotRestart so the
// root supervisor does not keep respawning a terminally failed camera.
func (s *CameraSupervisor) Serve(ctx context.Context) error {
	s.mu.Lock()
	rec := s.record
	s.mu.Unlock()

	if err := s.Connect(ctx, s.surfaceHandle, s.enableRecording); err != nil {
		if err := s.handleServeFailure(ctx, rec); err != nil {
			return err
		}
	}

	<-ctx.Done()
	s.Disconnect()
	return nil
}

func (s *CameraSupervisor) handleServeFailure(ctx context.Context, rec config.CameraRecord) error {
	s.mu.Lock()
	attempts := s.attempts
	maxAttempts := rec.Reconnect.Attempts
	delay := time.Duration(rec.Reconnect.DelaySeconds) * time.Second
	s.mu.Unlock()

	if attempts >= maxAttempts {
		s.log.Error().Int("attempts", attempts).Msg("reconnect budget exhausted, camera entering terminal error")
		return suture.ErrDoNotRestart
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Reconnect(ctx)
}
