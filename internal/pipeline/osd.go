package pipeline

import (
	"fmt"
	"time"
)

// runOSDTicker updates the overlay text at 1 Hz, per spec.md §4.1.4 and
// §5 "OSD ticker": pure property mutation, no synchronization with the
// video data path.
func (p *Pipeline) runOSDTicker() {
	if !p.params.OSD.ShowTimestamp && !p.params.OSD.ShowCameraName {
		return
	}

	ticker := time.NewTicker(osdPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.osdStop:
			return
		case now := <-ticker.C:
			p.updateOSDText(now)
		}
	}
}

func (p *Pipeline) updateOSDText(now time.Time) {
	p.mu.Lock()
	el := p.el
	name := p.params.CameraName
	showName := p.params.OSD.ShowCameraName
	showTS := p.params.OSD.ShowTimestamp
	p.mu.Unlock()

	var text string
	switch {
	case showName && showTS:
		text = fmt.Sprintf("%s | %s", name, now.Format("2006-01-02 15:04:05"))
	case showName:
		text = name
	case showTS:
		text = now.Format("2006-01-02 15:04:05")
	}

	el.overlay.SetProperty("text", text)
}
