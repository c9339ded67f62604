package pipeline

// SetMode applies the valve policy table of spec.md §4.1.2. It is
// idempotent and legal in any state >= Running. If recording is active
// while switching to StreamingOnly, recording is stopped first so the
// open segment is finalized before the valves change.
func (p *Pipeline) SetMode(m Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running && p.state != Degraded {
		return &ErrNotRunning{Current: p.state}
	}

	if m == StreamingOnly && p.recStatus == Recording {
		p.stopRecordingLocked()
	}

	p.mode = m
	p.applyModeLocked(m)
	return nil
}

// applyModeLocked sets display_valve.drop per the table; opening
// record_valve is left to StartRecording, so every mode closes it here
// unless a recording is in progress (spec.md §4.1.2 "record starts
// separately").
func (p *Pipeline) applyModeLocked(m Mode) {
	switch m {
	case StreamingOnly:
		p.ctrl.displayValve.SetProperty("drop", false)
	case RecordingOnly:
		p.ctrl.displayValve.SetProperty("drop", true)
	case Both:
		p.ctrl.displayValve.SetProperty("drop", false)
	}
	if p.recStatus != Recording {
		p.ctrl.recordValve.SetProperty("drop", true)
	}
}

// Mode returns the currently applied mode.
func (p *Pipeline) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}
