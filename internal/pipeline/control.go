package pipeline

import "github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/media"

// controlSurface is the narrow set of element operations the mode and
// recording sub-protocols need, expressed through media's interface seam
// (PropertyElement/EventSink) so that logic can be unit-tested with a fake
// instead of a live GStreamer install.
type controlSurface struct {
	displayValve media.PropertyElement
	recordValve  media.PropertyElement
	fileSink     media.PropertyElement
}

func newControlSurface(el *elements) *controlSurface {
	return &controlSurface{
		displayValve: media.WrapElement(el.displayValve),
		recordValve:  media.WrapElement(el.recordValve),
		fileSink:     media.WrapElement(el.fileSink),
	}
}
