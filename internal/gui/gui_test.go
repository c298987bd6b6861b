package gui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"model-viewer/panel"
)

func TestSliderFormat(t *testing.T) {
	cases := []struct {
		step float32
		want string
	}{
		{1, "%.0f"},
		{0.1, "%.1f"},
		{0.01, "%.2f"},
		{0.25, "%.2f"},
		{0.001, "%.3f"},
		{1e-9, "%.6f"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sliderFormat(tc.step), "step %v", tc.step)
	}
}

func TestSyncFolder(t *testing.T) {
	f := panel.New("Debug", nil).AddFolder("Camera").Close()

	syncFolder(f, true)
	assert.True(t, f.IsOpen())
	syncFolder(f, true)
	assert.True(t, f.IsOpen())
	syncFolder(f, false)
	assert.False(t, f.IsOpen())
}
