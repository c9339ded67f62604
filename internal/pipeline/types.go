// Package pipeline implements the Unified Pipeline (spec.md §4.1): a
// per-camera graph built once, whose display and record branches are
// always instantiated and gated only by valves, so mode switches never
// restart the upstream RTSP session.
package pipeline

import "time"

// Mode is the policy over the two branch valves (spec.md §3 PipelineMode).
type Mode int

const (
	StreamingOnly Mode = iota
	RecordingOnly
	Both
)

func (m Mode) String() string {
	switch m {
	case StreamingOnly:
		return "streaming_only"
	case RecordingOnly:
		return "recording_only"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// State is the pipeline's externally observable lifecycle (spec.md §3 PipelineState).
type State int

const (
	Idle State = iota
	Connecting
	Running
	Degraded
	Error
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Running:
		return "running"
	case Degraded:
		return "degraded"
	case Error:
		return "error"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RecordingStatus guards segment rotation (spec.md §3 RecordingStatus).
type RecordingStatus int

const (
	RecordingStopped RecordingStatus = iota
	Recording
	RecordingPaused
	RecordingError
)

func (r RecordingStatus) String() string {
	switch r {
	case RecordingStopped:
		return "stopped"
	case Recording:
		return "recording"
	case RecordingPaused:
		return "paused"
	case RecordingError:
		return "error"
	default:
		return "unknown"
	}
}

// Segment describes one recording file, open or closed (spec.md §3 Segment).
type Segment struct {
	CameraID  string
	Path      string
	StartedAt time.Time
	EndedAt   time.Time // zero value while open
	ByteSize  int64
}

// Open reports whether the segment has not yet been closed.
func (s Segment) Open() bool { return s.EndedAt.IsZero() }

// OSDConfig is the subset of StreamingConfig the overlay rendering needs.
type OSDConfig struct {
	ShowTimestamp  bool
	ShowCameraName bool
	FontSize       int
	ColorR         uint8
	ColorG         uint8
	ColorB         uint8
}

// Params configures one pipeline build (spec.md §4.1, §6).
type Params struct {
	CameraID               string
	CameraName             string
	RTSPURL                string // credentials already injected by the Supervisor
	LatencyMS              int
	TCPTimeoutMS           int
	BufferSizeBytes        int
	UseHardwareAcceleration bool
	DecoderPreference      []string
	OSD                    OSDConfig
	FileDuration           time.Duration // default 600s, segment rotation period
	RecordingRoot          string
	RecordingExt           string // "mp4", "mkv", "avi" — default "mp4"
}
