package textmetrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"reloverlay/internal/overlay"
)

var _ overlay.Measurer = (*Metrics)(nil)

func TestMeasureIsCentered(t *testing.T) {
	m, err := New(Size)
	require.NoError(t, err)

	b := m.Measure("owns")
	require.Greater(t, b.Width, 0.0)
	require.Greater(t, b.Height, 0.0)
	require.InDelta(t, -b.Width/2, b.X, 1e-9)
	require.InDelta(t, -b.Height/2, b.Y, 1e-9)
}

func TestMeasureGrowsWithText(t *testing.T) {
	m, err := New(Size)
	require.NoError(t, err)

	short, long := m.Measure("a"), m.Measure("a, much longer label")
	require.Greater(t, long.Width, short.Width)
	require.Equal(t, short.Height, long.Height)

	empty := m.Measure("")
	require.Zero(t, empty.Width)
	require.Equal(t, short.Height, empty.Height)
}

func TestLargerFaceIsLarger(t *testing.T) {
	small, err := New(Size)
	require.NoError(t, err)
	large, err := New(Size * 2)
	require.NoError(t, err)

	require.Greater(t, large.Measure("label").Width, small.Measure("label").Width)
	require.Greater(t, large.LineHeight(), small.LineHeight())
}

func TestMeasureConcurrently(t *testing.T) {
	m, err := New(Size)
	require.NoError(t, err)
	want := m.Measure("uses")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := m.Measure("uses"); got != want {
					t.Errorf("got %+v, want %+v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
