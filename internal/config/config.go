// Package config implements the Configuration Store: typed access to the
// camera list and streaming parameters backed by a YAML or JSON file on
// disk (format picked by file extension), per spec.md §3 and §6.
package config

import (
	"fmt"
	"regexp"
)

// cameraIDPattern enforces spec.md §3: camera_id is alphanumeric+underscore.
var cameraIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ReconnectPolicy controls how a Camera Supervisor retries a failed connect.
type ReconnectPolicy struct {
	Attempts      int `yaml:"attempts" json:"attempts"`
	DelaySeconds  int `yaml:"delay_seconds" json:"delay_seconds"`
}

// CameraRecord is the persistent identity of one camera, per spec.md §3.
type CameraRecord struct {
	CameraID          string          `yaml:"camera_id" json:"camera_id"`
	Name              string          `yaml:"name" json:"name"`
	RTSPURL           string          `yaml:"rtsp_url" json:"rtsp_url"`
	Username          string          `yaml:"username,omitempty" json:"username,omitempty"`
	Password          string          `yaml:"password,omitempty" json:"password,omitempty"`
	Enabled           bool            `yaml:"enabled" json:"enabled"`
	RecordingEnabled  bool            `yaml:"recording_enabled" json:"recording_enabled"`
	UseHardwareDecode bool            `yaml:"use_hardware_decode" json:"use_hardware_decode"`
	Reconnect         ReconnectPolicy `yaml:"reconnect" json:"reconnect"`
}

// Clone returns a deep copy safe to hand to a caller.
func (c CameraRecord) Clone() CameraRecord { return c }

func validateCameraID(id string) error {
	if id == "" || !cameraIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidCameraID, id)
	}
	return nil
}

// OSDConfig controls the on-screen-display overlay, per spec.md §4.1.4.
type OSDConfig struct {
	ShowTimestamp  bool  `yaml:"show_timestamp" json:"show_timestamp"`
	ShowCameraName bool  `yaml:"show_camera_name" json:"show_camera_name"`
	FontSize       int   `yaml:"font_size" json:"font_size"`
	ColorR         uint8 `yaml:"color_r" json:"color_r"`
	ColorG         uint8 `yaml:"color_g" json:"color_g"`
	ColorB         uint8 `yaml:"color_b" json:"color_b"`
}

// StreamingConfig holds process-wide streaming defaults, per spec.md §3.
type StreamingConfig struct {
	LatencyMS               int      `yaml:"latency_ms" json:"latency_ms"`
	TCPTimeoutMS            int      `yaml:"tcp_timeout_ms" json:"tcp_timeout_ms"`
	BufferSizeBytes         int      `yaml:"buffer_size_bytes" json:"buffer_size_bytes"`
	UseHardwareAcceleration bool     `yaml:"use_hardware_acceleration" json:"use_hardware_acceleration"`
	DecoderPreference       []string `yaml:"decoder_preference" json:"decoder_preference"`
	OSD                     OSDConfig `yaml:"osd" json:"osd"`
}

// DefaultStreamingConfig mirrors the defaults spec.md's examples assume.
func DefaultStreamingConfig() StreamingConfig {
	return StreamingConfig{
		LatencyMS:               200,
		TCPTimeoutMS:            10000,
		BufferSizeBytes:         2 * 1024 * 1024,
		UseHardwareAcceleration: true,
		DecoderPreference:       []string{"nvh264dec", "vaapih264dec", "avdec_h264"},
		OSD: OSDConfig{
			ShowTimestamp:  true,
			ShowCameraName: true,
			FontSize:       18,
			ColorR:         255, ColorG: 255, ColorB: 255,
		},
	}
}

// AppConfig is the top-level "app" section of the persisted configuration, per spec.md §6.
type AppConfig struct {
	AppName                 string `yaml:"app_name" json:"app_name"`
	Version                 string `yaml:"version" json:"version"`
	DefaultLayout            string `yaml:"default_layout" json:"default_layout"`
	RecordingPath            string `yaml:"recording_path" json:"recording_path"`
	LogLevel                 string `yaml:"log_level" json:"log_level"`
	UseHardwareAcceleration  bool   `yaml:"use_hardware_acceleration" json:"use_hardware_acceleration"`
	MaxReconnectAttempts     int    `yaml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
	ReconnectDelaySeconds    int    `yaml:"reconnect_delay" json:"reconnect_delay"`
}

// CameraPatch describes a partial update to a CameraRecord; nil fields are left unchanged.
type CameraPatch struct {
	Name              *string
	RTSPURL           *string
	Username          *string
	Password          *string
	Enabled           *bool
	RecordingEnabled  *bool
	UseHardwareDecode *bool
	Reconnect         *ReconnectPolicy
}

func (p CameraPatch) apply(rec CameraRecord) CameraRecord {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.RTSPURL != nil {
		rec.RTSPURL = *p.RTSPURL
	}
	if p.Username != nil {
		rec.Username = *p.Username
	}
	if p.Password != nil {
		rec.Password = *p.Password
	}
	if p.Enabled != nil {
		rec.Enabled = *p.Enabled
	}
	if p.RecordingEnabled != nil {
		rec.RecordingEnabled = *p.RecordingEnabled
	}
	if p.UseHardwareDecode != nil {
		rec.UseHardwareDecode = *p.UseHardwareDecode
	}
	if p.Reconnect != nil {
		rec.Reconnect = *p.Reconnect
	}
	return rec
}
