package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildOverlay_Empty(t *testing.T) {
	o := BuildOverlay(nil)
	require.Equal(t, DustClean, o.Level)
	require.NotNil(t, o.Markers)
	require.Empty(t, o.Markers)
	require.Empty(t, o.Summary())
}

func TestBuildOverlay_SingleHighSpot(t *testing.T) {
	o := BuildOverlay([]Detection{{X: 100, Y: 100, Width: 40, Height: 40, Confidence: 0.9}})

	require.Equal(t, DustHigh, o.Level)
	require.Len(t, o.Markers, 1)

	m := o.Markers[0]
	require.Equal(t, 80.0, m.Left)
	require.Equal(t, 80.0, m.Top)
	require.Equal(t, 40.0, m.Width)
	require.Equal(t, 40.0, m.Height)
	require.Equal(t, MarkerRed, m.Color)
	require.Equal(t, "90%", m.Label)
	require.Equal(t, 80.0, m.LabelLeft)
	require.Equal(t, 55.0, m.LabelTop)
	require.Equal(t, "1 dust spot(s) detected - HIGH level", o.Summary())
}

func TestBuildOverlay_GeometryAndColors(t *testing.T) {
	dets := []Detection{
		{X: 10, Y: 20, Width: 4, Height: 6, Confidence: 0.7},
		{X: 50.5, Y: 60, Width: 11, Height: 3, Confidence: 0.71},
		{X: 0, Y: 0, Width: 2, Height: 2, Confidence: 0.123},
	}
	o := BuildOverlay(dets)

	require.Len(t, o.Markers, len(dets))
	for i, d := range dets {
		require.Equal(t, d.X-d.Width/2, o.Markers[i].Left)
		require.Equal(t, d.Y-d.Height/2, o.Markers[i].Top)
	}
	require.Equal(t, MarkerAmber, o.Markers[0].Color)
	require.Equal(t, MarkerRed, o.Markers[1].Color)
	require.Equal(t, "12%", o.Markers[2].Label)
	require.Equal(t, DustModerate, o.Level)
}

func TestBuildOverlay_DoesNotMutateInput(t *testing.T) {
	dets := []Detection{{X: 1, Y: 2, Width: 3, Height: 4, Confidence: 0.5}}
	before := dets[0]
	_ = BuildOverlay(dets)
	require.Equal(t, before, dets[0])
}

func TestConfidenceLabel_Rounds(t *testing.T) {
	require.Equal(t, "0%", ConfidenceLabel(0))
	require.Equal(t, "100%", ConfidenceLabel(1))
	require.Equal(t, "88%", ConfidenceLabel(0.875))
	require.Equal(t, "87%", ConfidenceLabel(0.8749))
}
