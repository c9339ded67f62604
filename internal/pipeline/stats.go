package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/go-gst/go-gst/gst"
)

// frameStats tracks presented-frame throughput for the Camera Supervisor's
// check_health/stats operations (spec.md §4.2), via a buffer probe on the
// display branch's caps-negotiated pad rather than an appsink, since the
// present sink here is a direct video sink, not an application callback.
type frameStats struct {
	count       atomic.Int64
	lastFrameAt atomic.Int64 // unix nanos
}

func (f *frameStats) onBuffer() {
	f.count.Add(1)
	f.lastFrameAt.Store(time.Now().UnixNano())
}

// FrameStats returns the total frames observed on the display branch and
// the wall-clock time of the most recent one.
func (p *Pipeline) FrameStats() (count int64, lastFrameAt time.Time) {
	n := p.stats.lastFrameAt.Load()
	if n == 0 {
		return p.stats.count.Load(), time.Time{}
	}
	return p.stats.count.Load(), time.Unix(0, n)
}

// installFrameProbe attaches a buffer probe on the caps filter's src pad,
// downstream of decode/convert/overlay/scale, so the counter reflects
// frames actually reaching presentation.
func (p *Pipeline) installFrameProbe() {
	pad := p.el.capsFilter.GetStaticPad("src")
	if pad == nil {
		return
	}
	pad.AddProbe(gst.PadProbeTypeBuffer, func(pad *gst.Pad, info *gst.PadProbeInfo) gst.PadProbeReturn {
		p.stats.onBuffer()
		return gst.PadProbeOK
	})
}
