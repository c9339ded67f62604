package pipeline

import (
	"time"
)

// StartRecording opens the record valve after arming the FileSink with a
// freshly computed segment path, per spec.md §4.1.5. Precondition:
// pipeline Running and mode != StreamingOnly (SPEC_FULL.md §13(a)).
func (p *Pipeline) StartRecording() (Segment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running && p.state != Degraded {
		return Segment{}, &ErrNotRunning{Current: p.state}
	}
	if p.mode == StreamingOnly {
		return Segment{}, &ErrWrongMode{Current: p.mode}
	}
	if p.recStatus == Recording {
		return *p.segment, nil // already recording: idempotent no-op
	}

	now := time.Now()
	if p.segment != nil && now.Before(p.segment.StartedAt) {
		now = p.segment.StartedAt // monotone segments, spec.md §8
	}

	path, err := segmentPath(p.params.RecordingRoot, p.params.CameraID, p.params.RecordingExt, now)
	if err != nil {
		return Segment{}, &RecordingIoError{Path: path, Errno: err}
	}

	p.ctrl.fileSink.SetProperty("location", path)
	p.ctrl.recordValve.SetProperty("drop", false)

	seg := Segment{CameraID: p.params.CameraID, Path: path, StartedAt: now}
	p.segment = &seg
	p.recStatus = Recording
	return seg, nil
}

// PauseRecording closes the record valve without finalizing the open
// segment, so buffers are dropped but the muxer keeps the file open.
// Resume reopens the valve into the same segment.
func (p *Pipeline) PauseRecording() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recStatus != Recording {
		return nil
	}
	p.ctrl.recordValve.SetProperty("drop", true)
	p.recStatus = RecordingPaused
	return nil
}

// ResumeRecording reopens the record valve on a segment paused by
// PauseRecording.
func (p *Pipeline) ResumeRecording() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recStatus != RecordingPaused {
		return nil
	}
	p.ctrl.recordValve.SetProperty("drop", false)
	p.recStatus = Recording
	return nil
}

// StopRecording closes the record valve and drives the muxer/filesink to
// a clean trailer via EOS, per spec.md §4.1.5. A paused segment is
// finalized the same way. It is idempotent.
func (p *Pipeline) StopRecording() error {
	p.mu.Lock()
	if p.recStatus != Recording && p.recStatus != RecordingPaused {
		p.mu.Unlock()
		return nil
	}
	p.stopRecordingLocked()
	p.mu.Unlock()
	return nil
}

// stopRecordingLocked must be called with mu held. It releases mu while
// waiting for the EOS confirmation so the bus listener (which also needs
// mu) can make progress, then reacquires it before returning.
func (p *Pipeline) stopRecordingLocked() {
	p.ctrl.recordValve.SetProperty("drop", true)

	wait := make(chan struct{})
	p.eosWait = wait

	sinkPad := p.ctrl.fileSink.GetStaticPad("sink")

	p.mu.Unlock()
	if sinkPad != nil {
		sinkPad.SendEOS()
	}
	select {
	case <-wait:
	case <-time.After(stopTimeout): // SPEC_FULL.md §13(b): best-effort cap
	}
	p.mu.Lock()

	p.eosWait = nil
	if p.segment != nil {
		p.segment.EndedAt = time.Now()
	}
	p.recStatus = RecordingStopped
}

// abortRecordingLocked marks the current segment finalized-by-abort after
// a bus ERROR, per spec.md §4.1.6: the last segment is left with a
// best-effort truncated trailer, never overwritten.
func (p *Pipeline) abortRecordingLocked() {
	p.ctrl.recordValve.SetProperty("drop", true)
	if p.segment != nil {
		p.segment.EndedAt = time.Now()
	}
	p.recStatus = RecordingError
}

// runRotationTicker fires every 10s and rotates the open segment once it
// has run for file_duration, per spec.md §4.1.5 and §5 "Rotation ticker".
func (p *Pipeline) runRotationTicker() {
	ticker := time.NewTicker(rotationPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.rotationStop:
			return
		case <-ticker.C:
			p.maybeRotate()
		}
	}
}

func (p *Pipeline) maybeRotate() {
	p.mu.Lock()
	if p.recStatus != Recording || p.segment == nil {
		p.mu.Unlock()
		return
	}
	elapsed := time.Since(p.segment.StartedAt)
	if elapsed < p.params.FileDuration {
		p.mu.Unlock()
		return
	}

	p.stopRecordingLocked() // closes valve, waits EOS, finalizes segment

	now := time.Now()
	path, err := segmentPath(p.params.RecordingRoot, p.params.CameraID, p.params.RecordingExt, now)
	if err != nil {
		p.lastBusErr = &RecordingIoError{Path: path, Errno: err}
		p.mu.Unlock()
		return
	}

	p.ctrl.fileSink.SetProperty("location", path)
	p.ctrl.recordValve.SetProperty("drop", false)
	seg := Segment{CameraID: p.params.CameraID, Path: path, StartedAt: now}
	p.segment = &seg
	p.recStatus = Recording
	p.mu.Unlock()
}
