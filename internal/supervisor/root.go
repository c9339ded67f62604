package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/config"
)

// Root is the process-wide supervision tree: one suture.Supervisor hosting
// one CameraSupervisor per enabled camera. It mirrors the Add/Remove/
// Get shape of an OTP-style supervisor while delegating the actual
// restart scheduling to suture.
type Root struct {
	log zerolog.Logger

	mu       sync.RWMutex
	sup      *suture.Supervisor
	cameras  map[string]*CameraSupervisor
	tokens   map[string]suture.ServiceToken
	running  bool
}

// NewRoot creates an empty root supervisor.
func NewRoot(log zerolog.Logger) *Root {
	return &Root{
		log:     log,
		sup:     suture.New("nvr-cameras", suture.Spec{}),
		cameras: make(map[string]*CameraSupervisor),
		tokens:  make(map[string]suture.ServiceToken),
	}
}

// Add registers a camera supervisor. If the root is already running, it
// is started immediately.
func (r *Root) Add(cs *CameraSupervisor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cameras[cs.Name()] = cs
	r.tokens[cs.Name()] = r.sup.Add(cs)
}

// Remove stops and unregisters a camera supervisor.
func (r *Root) Remove(cameraID string) error {
	r.mu.Lock()
	token, ok := r.tokens[cameraID]
	cs := r.cameras[cameraID]
	delete(r.tokens, cameraID)
	delete(r.cameras, cameraID)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if cs != nil {
		cs.Disconnect()
	}
	return r.sup.Remove(token)
}

// Get returns the supervisor for a camera_id, if registered.
func (r *Root) Get(cameraID string) (*CameraSupervisor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs, ok := r.cameras[cameraID]
	return cs, ok
}

// All returns every registered supervisor.
func (r *Root) All() []*CameraSupervisor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*CameraSupervisor, 0, len(r.cameras))
	for _, cs := range r.cameras {
		out = append(out, cs)
	}
	return out
}

// Run blocks, serving every registered camera, until ctx is cancelled.
func (r *Root) Run(ctx context.Context) error {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	return r.sup.Serve(ctx)
}

// LoadFromConfig registers a supervisor for every enabled camera in store.
func (r *Root) LoadFromConfig(store *config.Store, recordingRoot string) {
	streaming := store.GetStreamingConfig()
	for _, rec := range store.GetEnabledCameras() {
		cs := New(rec, streaming, recordingRoot, r.log)
		r.Add(cs)
	}
}

// HealthSnapshot aggregates CheckHealth across every registered camera,
// keyed by camera_id.
func (r *Root) HealthSnapshot(timeout time.Duration) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.cameras))
	for id, cs := range r.cameras {
		out[id] = cs.CheckHealth(timeout)
	}
	return out
}
