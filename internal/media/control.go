package media

import "github.com/go-gst/go-gst/gst"

// PropertyElement is the minimal element behavior the Unified Pipeline's
// control surface depends on: setting a property, and for a sink that
// terminates a branch, reaching its pad to push EOS. Pipeline control
// logic (mode switching, start/stop/rotate recording) talks through this
// interface instead of *gst.Element directly, so that logic can be
// unit-tested against a fake instead of requiring a live GStreamer
// install — the same problem the original solved for its Python UI by
// mocking the whole gi module (_tests/mock_gi.py).
type PropertyElement interface {
	SetProperty(name string, value interface{}) error
	GetStaticPad(name string) EventSink
}

// EventSink is the minimal pad behavior the recording sub-protocol needs:
// pushing a synthetic end-of-stream so a branch's muxer/sink drains and
// finalizes its trailer cleanly (spec.md §4.1.5).
type EventSink interface {
	SendEOS()
}

// WrapElement adapts a real *gst.Element to PropertyElement. A nil
// element wraps to a nil PropertyElement, so "not built" and "no fake
// supplied" behave the same way to a caller that checks for nil.
func WrapElement(el *gst.Element) PropertyElement {
	if el == nil {
		return nil
	}
	return gstPropertyElement{el: el}
}

type gstPropertyElement struct{ el *gst.Element }

func (g gstPropertyElement) SetProperty(name string, value interface{}) error {
	g.el.SetProperty(name, value)
	return nil
}

func (g gstPropertyElement) GetStaticPad(name string) EventSink {
	pad := g.el.GetStaticPad(name)
	if pad == nil {
		return nil
	}
	return gstEventSink{pad: pad}
}

type gstEventSink struct{ pad *gst.Pad }

func (g gstEventSink) SendEOS() {
	g.pad.SendEvent(gst.NewEOSEvent())
}
