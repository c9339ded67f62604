package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/rs/zerolog"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/media"
)

const (
	startupTimeout = 5 * time.Second
	stopTimeout    = 2 * time.Second
	rotationPeriod = 10 * time.Second
	osdPeriod      = 1 * time.Second
)

// Pipeline is one camera's Unified Pipeline: a single built graph whose
// display and record branches are always present, gated by valves
// (spec.md §4.1). All exported methods are safe for concurrent use; they
// serialize through mu so that commands issued by a single caller are
// processed in issue order (spec.md §5).
type Pipeline struct {
	params Params
	log    zerolog.Logger

	mu          sync.Mutex
	gstPipeline *gst.Pipeline
	el          *elements
	ctrl        *controlSurface
	bus         *media.BusWatcher
	busCtx      context.Context
	busCancel   context.CancelFunc

	state       State
	mode        Mode
	recStatus   RecordingStatus
	segment     *Segment
	lastBusErr  error

	rotationStop chan struct{}
	osdStop      chan struct{}
	eosWait      chan struct{} // closed when the awaited branch EOS is observed

	windowHandle uintptr
	stats        frameStats
}

// New builds the pipeline's graph and its bus watcher but does not start
// it. Call Start to transition to Running.
func New(p Params, log zerolog.Logger) (*Pipeline, error) {
	if p.FileDuration <= 0 {
		p.FileDuration = 600 * time.Second
	}
	if p.RecordingExt == "" {
		p.RecordingExt = "mp4"
	}

	gstPipeline, el, err := build(p, log)
	if err != nil {
		return nil, err
	}

	pl := &Pipeline{
		params:      p,
		log:         log,
		gstPipeline: gstPipeline,
		el:          el,
		ctrl:        newControlSurface(el),
		state:       Idle,
		mode:        StreamingOnly,
		recStatus:   RecordingStopped,
	}
	pl.installFrameProbe()
	return pl, nil
}

// Start transitions READY -> PAUSED -> PLAYING, waiting up to 5s for an
// ASYNC transition to settle, and starts the bus listener actor
// (spec.md §4.1.1, §5).
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = Connecting

	p.busCtx, p.busCancel = context.WithCancel(ctx)
	p.bus = media.NewBusWatcher(p.gstPipeline.GetPipelineBus(), p.handleBusEvent)
	go p.bus.Run(p.busCtx)

	for _, target := range []gst.State{gst.StateReady, gst.StatePaused, gst.StatePlaying} {
		if err := p.gstPipeline.SetState(target); err != nil {
			p.failStartup(err)
			return &StartupTimeout{LastBusError: p.lastBusErr}
		}
	}

	if !p.waitForPlaying(startupTimeout) {
		p.failStartup(nil)
		return &StartupTimeout{LastBusError: p.lastBusErr}
	}

	p.state = Running
	p.rotationStop = make(chan struct{})
	p.osdStop = make(chan struct{})
	go p.runRotationTicker()
	go p.runOSDTicker()

	return nil
}

func (p *Pipeline) waitForPlaying(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ret, cur, _ := p.gstPipeline.GetState(gst.ClockTime(100 * time.Millisecond))
		if ret == gst.StateChangeFailure {
			return false
		}
		if cur == gst.StatePlaying {
			return true
		}
	}
	return false
}

func (p *Pipeline) failStartup(err error) {
	if err != nil {
		p.lastBusErr = err
	}
	p.state = Error
	p.gstPipeline.SetState(gst.StateNull)
}

// Stop tears the pipeline down, finalizing any open recording first.
// Idempotent.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Stopped {
		return nil
	}

	if p.recStatus == Recording || p.recStatus == RecordingPaused {
		p.stopRecordingLocked()
	}

	if p.rotationStop != nil {
		close(p.rotationStop)
		p.rotationStop = nil
	}
	if p.osdStop != nil {
		close(p.osdStop)
		p.osdStop = nil
	}
	if p.busCancel != nil {
		p.busCancel()
	}

	p.gstPipeline.SetState(gst.StateNull)
	p.state = Stopped
	return nil
}

// Status returns a point-in-time snapshot of pipeline state.
type Status struct {
	State           State
	Mode            Mode
	RecordingStatus RecordingStatus
	Segment         *Segment
	LastError       error
}

func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		State:           p.state,
		Mode:            p.mode,
		RecordingStatus: p.recStatus,
		Segment:         p.segment,
		LastError:       p.lastBusErr,
	}
}

// SetWindowHandle records the host-provided surface handle and passes it
// to the presenting element when that element value implements
// SetWindowHandle(uintptr) (see videoOverlay); otherwise the handle is
// only recorded. No handler for the "prepare-window-handle" bus message
// is installed.
func (p *Pipeline) SetWindowHandle(handle uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windowHandle = handle
	if ov, ok := videoOverlay(p.el.videoSink); ok {
		ov.SetWindowHandle(handle)
	}
}

func (p *Pipeline) handleBusEvent(ev media.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case media.EventError:
		p.lastBusErr = ev.Err
		p.log.Error().Err(ev.Err).Str("camera_id", p.params.CameraID).Str("element", ev.Element).Msg("pipeline bus error")
		if p.recStatus == Recording {
			p.abortRecordingLocked()
		}
		p.state = Error
		p.gstPipeline.SetState(gst.StateReady)
		p.state = Idle

	case media.EventEOS:
		if p.eosWait != nil && ev.Element == p.el.fileSink.GetName() {
			close(p.eosWait)
			p.eosWait = nil
		}

	case media.EventStateChanged:
		// Informational only; PipelineState is owned by this struct, not
		// mirrored 1:1 from every internal element transition.

	case media.EventWarning:
		p.log.Warn().Err(ev.Err).Str("camera_id", p.params.CameraID).Str("element", ev.Element).Msg("pipeline bus warning")
	}
}

// videoOverlay type-asserts the sink element value to an interface with a
// SetWindowHandle(uintptr) method, reporting false when it has none.
func videoOverlay(elem *gst.Element) (interface{ SetWindowHandle(uintptr) }, bool) {
	ov, ok := any(elem).(interface{ SetWindowHandle(uintptr) })
	return ov, ok
}

func (p *Pipeline) String() string {
	return fmt.Sprintf("pipeline(camera=%s, state=%s)", p.params.CameraID, p.state)
}
