package pipeline

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/media"
)

// fakeElement is a media.PropertyElement that records property writes
// instead of touching a live GStreamer element, so the mode and recording
// sub-protocols can be exercised without a GStreamer install (grounded on
// the original's approach of mocking the whole gi module for its own
// tests, _tests/mock_gi.py).
type fakeElement struct {
	mu    sync.Mutex
	props map[string]interface{}
	pad   *fakeEventSink
}

func newFakeElement() *fakeElement {
	return &fakeElement{props: make(map[string]interface{}), pad: &fakeEventSink{}}
}

func (f *fakeElement) SetProperty(name string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[name] = value
	return nil
}

func (f *fakeElement) GetStaticPad(name string) media.EventSink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pad
}

func (f *fakeElement) property(name string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.props[name]
}

// fakeEventSink counts EOS pushes so a test can assert one happened
// without requiring a live muxer/filesink to drain. onSend, if set, runs
// synchronously from SendEOS — tests use it to close the pipeline's
// eosWait channel immediately, standing in for the real bus watcher
// observing the muxer's EOS message.
type fakeEventSink struct {
	mu     sync.Mutex
	sent   int
	onSend func()
}

func (f *fakeEventSink) SendEOS() {
	f.mu.Lock()
	f.sent++
	cb := f.onSend
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *fakeEventSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

// testPipeline builds a bare Pipeline wired to fake control-surface
// elements, bypassing build() entirely so no GStreamer elements are ever
// constructed. Only the fields the mode/recording logic touches are set.
func testPipeline(params Params) (*Pipeline, *fakeElement, *fakeElement, *fakeElement) {
	display := newFakeElement()
	record := newFakeElement()
	fileSink := newFakeElement()

	p := &Pipeline{
		params: params,
		log:    zerolog.Nop(),
		ctrl: &controlSurface{
			displayValve: display,
			recordValve:  record,
			fileSink:     fileSink,
		},
		state:     Running,
		mode:      StreamingOnly,
		recStatus: RecordingStopped,
	}
	return p, display, record, fileSink
}
