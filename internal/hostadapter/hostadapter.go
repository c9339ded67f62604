// Package hostadapter implements the Host Adapter (spec.md §4.5): the
// mapping between a UI "channel slot" and a Camera Supervisor. It
// indirects through camera_id so no component holds a back-pointer into
// the UI (spec.md §9 "Cyclic UI<->supervisor references avoided").
package hostadapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/pipeline"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/supervisor"
)

// healthCheckTimeout is the "no frame in N seconds" window used to derive
// HealthHint, matching the threshold the daemon's /healthz endpoint uses.
const healthCheckTimeout = 10 * time.Second

// HealthHint is a badge color a host can render for a channel slot without
// re-deriving the policy itself (SPEC_FULL.md §12 "grid-view health badge").
type HealthHint string

const (
	HealthGreen  HealthHint = "green"
	HealthYellow HealthHint = "yellow"
	HealthRed    HealthHint = "red"
)

// deriveHealthHint combines check_health with RecordingStatus the way the
// original grid view colored its camera tiles: an unhealthy or erroring
// camera is red, a healthy camera paused mid-recording is yellow (it is
// not doing what it was asked to do), anything else healthy is green.
func deriveHealthHint(healthy bool, recStatus pipeline.RecordingStatus) HealthHint {
	if !healthy || recStatus == pipeline.RecordingError {
		return HealthRed
	}
	if recStatus == pipeline.RecordingPaused {
		return HealthYellow
	}
	return HealthGreen
}

// Binding is the current state of one channel slot (spec.md §3 ChannelBinding).
type Binding struct {
	ChannelIndex  int
	CameraID      string
	SurfaceHandle uintptr
	HealthHint    HealthHint
}

// SupervisorLookup resolves a camera_id to its CameraSupervisor, without
// the Adapter owning the supervision tree itself.
type SupervisorLookup func(cameraID string) (*supervisor.CameraSupervisor, bool)

// Adapter owns one Binding per channel_index and propagates surface
// handle changes to the bound Supervisor.
type Adapter struct {
	lookup SupervisorLookup
	log    zerolog.Logger

	mu       sync.RWMutex
	bindings map[int]*Binding
}

// New creates an empty Host Adapter.
func New(lookup SupervisorLookup, log zerolog.Logger) *Adapter {
	return &Adapter{
		lookup:   lookup,
		log:      log,
		bindings: make(map[int]*Binding),
	}
}

// Bind assigns cameraID and surfaceHandle to channelIndex. If the channel
// was already displaying a different camera, that camera's supervisor is
// disconnected; the newly bound camera is then given the surface handle
// and reconnected, per the rebind sequence in spec.md §4.5, since go-gst's
// video sinks cannot always safely re-parent a live sink.
func (a *Adapter) Bind(ctx context.Context, channelIndex int, cameraID string, surfaceHandle uintptr) error {
	a.mu.Lock()
	prior := a.bindings[channelIndex]
	a.mu.Unlock()

	if prior != nil && prior.CameraID != "" && prior.CameraID != cameraID {
		if cs, ok := a.lookup(prior.CameraID); ok {
			if err := cs.Disconnect(); err != nil {
				a.log.Warn().Err(err).Str("camera_id", prior.CameraID).Msg("hostadapter: failed to disconnect prior binding")
			}
		}
	}

	a.mu.Lock()
	a.bindings[channelIndex] = &Binding{ChannelIndex: channelIndex, CameraID: cameraID, SurfaceHandle: surfaceHandle}
	a.mu.Unlock()

	cs, ok := a.lookup(cameraID)
	if !ok {
		return fmt.Errorf("hostadapter: camera %q is not registered", cameraID)
	}
	cs.SetSurfaceHandle(surfaceHandle)
	return cs.Reconnect(ctx)
}

// Rebind updates only the surface handle for a channel already bound to a
// camera, following the same disconnect -> update -> reconnect sequence.
func (a *Adapter) Rebind(ctx context.Context, channelIndex int, surfaceHandle uintptr) error {
	a.mu.Lock()
	b, ok := a.bindings[channelIndex]
	a.mu.Unlock()
	if !ok || b.CameraID == "" {
		return fmt.Errorf("hostadapter: channel %d has no camera bound", channelIndex)
	}

	cs, found := a.lookup(b.CameraID)
	if !found {
		return fmt.Errorf("hostadapter: camera %q is not registered", b.CameraID)
	}

	if err := cs.Disconnect(); err != nil {
		a.log.Warn().Err(err).Str("camera_id", b.CameraID).Msg("hostadapter: rebind disconnect failed")
	}

	a.mu.Lock()
	b.SurfaceHandle = surfaceHandle
	a.mu.Unlock()

	cs.SetSurfaceHandle(surfaceHandle)
	return cs.Reconnect(ctx)
}

// Unbind clears a channel's binding and disconnects its camera.
func (a *Adapter) Unbind(channelIndex int) error {
	a.mu.Lock()
	b, ok := a.bindings[channelIndex]
	delete(a.bindings, channelIndex)
	a.mu.Unlock()
	if !ok || b.CameraID == "" {
		return nil
	}
	cs, found := a.lookup(b.CameraID)
	if !found {
		return nil
	}
	return cs.Disconnect()
}

// Get returns the current binding for a channel, if any, with HealthHint
// freshly derived from the bound camera's live state.
func (a *Adapter) Get(channelIndex int) (Binding, bool) {
	a.mu.RLock()
	b, ok := a.bindings[channelIndex]
	a.mu.RUnlock()
	if !ok {
		return Binding{}, false
	}
	out := *b
	out.HealthHint = a.healthHintFor(b.CameraID)
	return out, true
}

// All returns every current binding, each with a freshly derived HealthHint.
func (a *Adapter) All() []Binding {
	a.mu.RLock()
	snapshot := make([]*Binding, 0, len(a.bindings))
	for _, b := range a.bindings {
		snapshot = append(snapshot, b)
	}
	a.mu.RUnlock()

	out := make([]Binding, 0, len(snapshot))
	for _, b := range snapshot {
		bound := *b
		bound.HealthHint = a.healthHintFor(b.CameraID)
		out = append(out, bound)
	}
	return out
}

// healthHintFor derives the badge color for cameraID's current state,
// defaulting to red when the camera isn't registered or has no live
// pipeline to report from.
func (a *Adapter) healthHintFor(cameraID string) HealthHint {
	if cameraID == "" {
		return HealthRed
	}
	cs, ok := a.lookup(cameraID)
	if !ok {
		return HealthRed
	}
	healthy := cs.CheckHealth(healthCheckTimeout)
	pipe := cs.Pipeline()
	if pipe == nil {
		return deriveHealthHint(healthy, pipeline.RecordingStopped)
	}
	return deriveHealthHint(healthy, pipe.Status().RecordingStatus)
}
