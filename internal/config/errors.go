package config

import "errors"

var (
	// ErrDuplicateCameraID is returned by AddCamera for an existing camera_id.
	ErrDuplicateCameraID = errors.New("config: duplicate camera_id")
	// ErrCameraNotFound is returned by RemoveCamera/UpdateCamera for an unknown camera_id.
	ErrCameraNotFound = errors.New("config: camera not found")
	// ErrInvalidCameraID is returned when a camera_id fails the alphanumeric+underscore check.
	ErrInvalidCameraID = errors.New("config: invalid camera_id")
	// ErrUnsupportedFormat is returned by Load/Save for an extension other than .yaml/.yml/.json.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
)
