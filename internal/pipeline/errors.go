package pipeline

import "fmt"

// The error kinds of spec.md §7, surfaced by the Camera Supervisor to the
// host. Each wraps enough context to explain itself in a log line without
// the caller inspecting framework internals.

// PipelineBuildError reports that one or more required elements could not
// be constructed. Fatal for the camera until config/environment changes.
type PipelineBuildError struct {
	Reason          string
	MissingElements []string
}

func (e *PipelineBuildError) Error() string {
	if len(e.MissingElements) > 0 {
		return fmt.Sprintf("pipeline build failed: %s (missing: %v)", e.Reason, e.MissingElements)
	}
	return fmt.Sprintf("pipeline build failed: %s", e.Reason)
}

// StartupTimeout reports that the READY->PAUSED->PLAYING transition did
// not settle within the bounded wait. Recoverable via reconnect.
type StartupTimeout struct {
	LastBusError error
}

func (e *StartupTimeout) Error() string {
	if e.LastBusError != nil {
		return fmt.Sprintf("pipeline startup timed out: last bus error: %v", e.LastBusError)
	}
	return "pipeline startup timed out"
}

func (e *StartupTimeout) Unwrap() error { return e.LastBusError }

// SourceError reports the RTSP source refused, timed out, or disconnected.
// Triggers the Supervisor's reconnect policy.
type SourceError struct {
	RTSPCode int // 0 if unknown
	Detail   string
}

func (e *SourceError) Error() string {
	if e.RTSPCode != 0 {
		return fmt.Sprintf("rtsp source error (code %d): %s", e.RTSPCode, e.Detail)
	}
	return fmt.Sprintf("rtsp source error: %s", e.Detail)
}

// DecoderError reports a decode element fault. Recoverable by rebuilding
// with the next candidate in decoder_preference.
type DecoderError struct {
	Decoder string
	Detail  string
}

func (e *DecoderError) Error() string {
	return fmt.Sprintf("decoder %q error: %s", e.Decoder, e.Detail)
}

// RecordingIoError reports a filesystem fault on the record branch.
// Recording stops; preview is unaffected.
type RecordingIoError struct {
	Path  string
	Errno error
}

func (e *RecordingIoError) Error() string {
	return fmt.Sprintf("recording io error at %q: %v", e.Path, e.Errno)
}

func (e *RecordingIoError) Unwrap() error { return e.Errno }

// NoDecoderAvailable reports that none of decoder_preference's candidates
// were registered. Fatal for the camera.
type NoDecoderAvailable struct {
	Tried []string
}

func (e *NoDecoderAvailable) Error() string {
	return fmt.Sprintf("no decoder available, tried: %v", e.Tried)
}

// ConfigError reports a malformed or duplicate camera_id, rejected at the
// API boundary before any pipeline is built.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// ErrWrongMode is returned by StartRecording when the pipeline's current
// mode is StreamingOnly (SPEC_FULL.md §13 Open Question (a): denied, not
// auto-warned-and-proceed).
type ErrWrongMode struct {
	Current Mode
}

func (e *ErrWrongMode) Error() string {
	return fmt.Sprintf("start_recording denied in mode %s: call set_mode(Both) first", e.Current)
}

// ErrNotRunning is returned by operations that require PipelineState >= Running.
type ErrNotRunning struct {
	Current State
}

func (e *ErrNotRunning) Error() string {
	return fmt.Sprintf("operation requires Running state, pipeline is %s", e.Current)
}
