package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetModeValvePolicy(t *testing.T) {
	cases := []struct {
		mode        Mode
		displayDrop bool
		recordDrop  bool
	}{
		{StreamingOnly, false, true},
		{RecordingOnly, true, true},
		{Both, false, true},
	}

	for _, tc := range cases {
		p, display, record, _ := testPipeline(Params{CameraID: "cam1"})
		require.NoError(t, p.SetMode(tc.mode))
		assert.Equal(t, tc.displayDrop, display.property("drop"), "mode %s display valve", tc.mode)
		assert.Equal(t, tc.recordDrop, record.property("drop"), "mode %s record valve", tc.mode)
		assert.Equal(t, tc.mode, p.Mode())
	}
}

func TestSetModeIdempotent(t *testing.T) {
	p, display, _, _ := testPipeline(Params{CameraID: "cam1"})
	require.NoError(t, p.SetMode(Both))
	require.NoError(t, p.SetMode(Both))
	assert.Equal(t, false, display.property("drop"))
	assert.Equal(t, Both, p.Mode())
}

func TestSetModeRejectedWhenNotRunning(t *testing.T) {
	p, _, _, _ := testPipeline(Params{CameraID: "cam1"})
	p.state = Idle
	err := p.SetMode(Both)
	assert.Error(t, err)
	var notRunning *ErrNotRunning
	assert.ErrorAs(t, err, &notRunning)
}

func TestSetModeStreamingOnlyStopsActiveRecording(t *testing.T) {
	p, _, record, fileSink := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	fileSink.pad.onSend = func() {
		p.mu.Lock()
		wait := p.eosWait
		p.mu.Unlock()
		if wait != nil {
			close(wait)
		}
	}

	require.NoError(t, p.SetMode(Both))
	_, err := p.StartRecording()
	require.NoError(t, err)
	require.Equal(t, Recording, p.Status().RecordingStatus)

	require.NoError(t, p.SetMode(StreamingOnly))

	assert.Equal(t, RecordingStopped, p.Status().RecordingStatus)
	assert.Equal(t, true, record.property("drop"))
	assert.Equal(t, 1, fileSink.pad.count())
}
