package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withInstantEOS(p *Pipeline, fileSink *fakeElement) {
	fileSink.pad.onSend = func() {
		p.mu.Lock()
		wait := p.eosWait
		p.mu.Unlock()
		if wait != nil {
			close(wait)
		}
	}
}

func TestStartRecordingRejectsStreamingOnly(t *testing.T) {
	p, _, _, _ := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	_, err := p.StartRecording()
	assert.Error(t, err)
	var wrongMode *ErrWrongMode
	assert.ErrorAs(t, err, &wrongMode)
}

func TestStartRecordingRejectsNotRunning(t *testing.T) {
	p, _, _, _ := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	p.state = Idle
	_, err := p.StartRecording()
	assert.Error(t, err)
	var notRunning *ErrNotRunning
	assert.ErrorAs(t, err, &notRunning)
}

func TestStartRecordingIsIdempotent(t *testing.T) {
	p, _, _, _ := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	require.NoError(t, p.SetMode(Both))

	first, err := p.StartRecording()
	require.NoError(t, err)
	second, err := p.StartRecording()
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.StartedAt, second.StartedAt)
}

func TestStartRecordingOpensValveAndArmsFileSink(t *testing.T) {
	p, _, record, fileSink := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	require.NoError(t, p.SetMode(RecordingOnly))

	seg, err := p.StartRecording()
	require.NoError(t, err)

	assert.Equal(t, false, record.property("drop"))
	assert.Equal(t, seg.Path, fileSink.property("location"))
	assert.True(t, seg.Open())
}

func TestPauseResumeRecordingPreservesSegment(t *testing.T) {
	p, _, record, _ := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	require.NoError(t, p.SetMode(Both))
	seg, err := p.StartRecording()
	require.NoError(t, err)

	require.NoError(t, p.PauseRecording())
	assert.Equal(t, RecordingPaused, p.Status().RecordingStatus)
	assert.Equal(t, true, record.property("drop"))

	require.NoError(t, p.ResumeRecording())
	assert.Equal(t, Recording, p.Status().RecordingStatus)
	assert.Equal(t, false, record.property("drop"))
	assert.Equal(t, seg.Path, p.Status().Segment.Path)
}

func TestPauseRecordingNoOpWhenNotRecording(t *testing.T) {
	p, _, record, _ := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	require.NoError(t, p.PauseRecording())
	assert.Nil(t, record.property("drop"))
	assert.Equal(t, RecordingStopped, p.Status().RecordingStatus)
}

func TestStopRecordingFinalizesSegmentAndIsIdempotent(t *testing.T) {
	p, _, record, fileSink := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	withInstantEOS(p, fileSink)
	require.NoError(t, p.SetMode(Both))
	_, err := p.StartRecording()
	require.NoError(t, err)

	require.NoError(t, p.StopRecording())
	assert.Equal(t, RecordingStopped, p.Status().RecordingStatus)
	assert.Equal(t, true, record.property("drop"))
	assert.False(t, p.Status().Segment.Open())
	assert.Equal(t, 1, fileSink.pad.count())

	require.NoError(t, p.StopRecording())
	assert.Equal(t, 1, fileSink.pad.count(), "second stop is a no-op, no extra EOS pushed")
}

func TestMaybeRotateNoOpWhenNotRecording(t *testing.T) {
	p, _, _, fileSink := testPipeline(Params{CameraID: "cam1", RecordingRoot: t.TempDir()})
	withInstantEOS(p, fileSink)
	p.maybeRotate()
	assert.Equal(t, 0, fileSink.pad.count())
}

func TestMaybeRotateRotatesAfterFileDuration(t *testing.T) {
	p, _, _, fileSink := testPipeline(Params{
		CameraID:      "cam1",
		RecordingRoot: t.TempDir(),
		FileDuration:  10 * time.Millisecond,
	})
	withInstantEOS(p, fileSink)
	require.NoError(t, p.SetMode(Both))
	first, err := p.StartRecording()
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	p.maybeRotate()

	assert.Equal(t, Recording, p.Status().RecordingStatus)
	assert.False(t, p.Status().Segment.StartedAt.Before(first.StartedAt), "rotation opens a new segment no earlier than the one it replaced")
	assert.Equal(t, 1, fileSink.pad.count(), "rotation pushes exactly one EOS to finalize the replaced segment")
}

func TestMaybeRotateSkipsBeforeFileDurationElapses(t *testing.T) {
	p, _, _, fileSink := testPipeline(Params{
		CameraID:      "cam1",
		RecordingRoot: t.TempDir(),
		FileDuration:  time.Hour,
	})
	withInstantEOS(p, fileSink)
	require.NoError(t, p.SetMode(Both))
	first, err := p.StartRecording()
	require.NoError(t, err)

	p.maybeRotate()

	assert.Equal(t, first.Path, p.Status().Segment.Path)
	assert.Equal(t, 0, fileSink.pad.count())
}
