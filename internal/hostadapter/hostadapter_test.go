package hostadapter

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/pipeline"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/supervisor"
)

func noLookup(string) (*supervisor.CameraSupervisor, bool) { return nil, false }

func TestBindUnknownCameraReturnsError(t *testing.T) {
	a := New(noLookup, zerolog.Nop())
	err := a.Bind(nil, 0, "cam1", 42) //nolint:staticcheck // nil ctx acceptable for this unit test path
	assert.Error(t, err)
}

func TestUnbindUnknownChannelIsNoop(t *testing.T) {
	a := New(noLookup, zerolog.Nop())
	assert.NoError(t, a.Unbind(5))
}

func TestGetMissingBinding(t *testing.T) {
	a := New(noLookup, zerolog.Nop())
	_, ok := a.Get(1)
	assert.False(t, ok)
}

func TestAllEmptyByDefault(t *testing.T) {
	a := New(noLookup, zerolog.Nop())
	assert.Empty(t, a.All())
}

func TestHealthHintUnregisteredCameraIsRed(t *testing.T) {
	a := New(noLookup, zerolog.Nop())
	assert.Equal(t, HealthRed, a.healthHintFor("cam1"))
}

func TestDeriveHealthHint(t *testing.T) {
	assert.Equal(t, HealthRed, deriveHealthHint(false, pipeline.RecordingStopped))
	assert.Equal(t, HealthRed, deriveHealthHint(true, pipeline.RecordingError))
	assert.Equal(t, HealthYellow, deriveHealthHint(true, pipeline.RecordingPaused))
	assert.Equal(t, HealthGreen, deriveHealthHint(true, pipeline.RecordingStopped))
	assert.Equal(t, HealthGreen, deriveHealthHint(true, pipeline.Recording))
}
