package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/pipeline"
)

// Lookup resolves a camera_id to its live Pipeline. The Coordinator holds
// only weak references (by camera_id, spec.md §3) — it never owns or
// frees a pipeline, it only issues commands through this accessor, which
// a *supervisor.Root satisfies via its per-camera CameraSupervisor.Pipeline().
type Lookup func(cameraID string) (*pipeline.Pipeline, bool)

// Coordinator is the Recording Coordinator (spec.md §4.3): segment
// rotation itself lives in the Pipeline (it owns the valve/EOS protocol);
// this package schedules start/stop/pause/resume across cameras and
// handles retention and disk accounting, which are filesystem-level
// concerns independent of any single pipeline.
type Coordinator struct {
	root string
	log  zerolog.Logger
	lookup Lookup

	mu     sync.Mutex
	active map[string]struct{} // camera_ids with recording started through this Coordinator
}

// New creates a Coordinator rooted at recordingRoot, using lookup to find
// each camera's live pipeline.
func New(recordingRoot string, lookup Lookup, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		root:   recordingRoot,
		log:    log,
		lookup: lookup,
		active: make(map[string]struct{}),
	}
}

func (c *Coordinator) pipelineFor(cameraID string) (*pipeline.Pipeline, error) {
	pipe, ok := c.lookup(cameraID)
	if !ok || pipe == nil {
		return nil, fmt.Errorf("recording: camera %q has no live pipeline", cameraID)
	}
	return pipe, nil
}

// Start delegates to the camera's pipeline: switch to Both mode (so the
// display branch keeps running) and open the record valve.
func (c *Coordinator) Start(cameraID string) (pipeline.Segment, error) {
	pipe, err := c.pipelineFor(cameraID)
	if err != nil {
		return pipeline.Segment{}, err
	}
	if err := pipe.SetMode(pipeline.Both); err != nil {
		return pipeline.Segment{}, err
	}
	seg, err := pipe.StartRecording()
	if err != nil {
		return pipeline.Segment{}, err
	}
	c.mu.Lock()
	c.active[cameraID] = struct{}{}
	c.mu.Unlock()
	return seg, nil
}

// Stop finalizes the camera's open segment.
func (c *Coordinator) Stop(cameraID string) error {
	pipe, err := c.pipelineFor(cameraID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.active, cameraID)
	c.mu.Unlock()
	return pipe.StopRecording()
}

// Pause suspends recording on a camera without finalizing the segment.
func (c *Coordinator) Pause(cameraID string) error {
	pipe, err := c.pipelineFor(cameraID)
	if err != nil {
		return err
	}
	return pipe.PauseRecording()
}

// Resume continues a previously paused recording.
func (c *Coordinator) Resume(cameraID string) error {
	pipe, err := c.pipelineFor(cameraID)
	if err != nil {
		return err
	}
	return pipe.ResumeRecording()
}

// StopAll stops every actively-recording camera, never partial-failing
// the caller: individual failures are logged and reported in aggregate
// (spec.md §4.3).
func (c *Coordinator) StopAll(ctx context.Context) error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	var (
		errMu sync.Mutex
		errs  []error
	)
	g, _ := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := c.Stop(id); err != nil {
				c.log.Error().Err(err).Str("camera_id", id).Msg("stop_all: camera failed to stop cleanly")
				errMu.Lock()
				errs = append(errs, fmt.Errorf("camera %s: %w", id, err))
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// ActiveCameras returns the camera_ids currently recording through this Coordinator.
func (c *Coordinator) ActiveCameras() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.active))
	for id := range c.active {
		out = append(out, id)
	}
	return out
}

// ActivePaths returns the currently open segment path for every actively
// recording camera, suitable to pass as RetentionSweep's activePaths so a
// sweep can never delete a segment a pipeline still has open (spec.md §8
// "Retention safety"), independent of the mtime-recency heuristic.
func (c *Coordinator) ActivePaths() map[string]struct{} {
	paths := make(map[string]struct{})
	for _, id := range c.ActiveCameras() {
		pipe, err := c.pipelineFor(id)
		if err != nil {
			continue
		}
		seg := pipe.Status().Segment
		if seg != nil && seg.Open() {
			paths[seg.Path] = struct{}{}
		}
	}
	return paths
}
