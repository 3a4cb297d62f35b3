package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparklineKeepsWindow(t *testing.T) {
	s := NewSparkline(3)
	for _, v := range []uint64{1, 2, 3, 4} {
		s.Push(v)
	}
	assert.Equal(t, 3, s.Len())
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, uint64(4), last)
	assert.Equal(t, "▁▄█", s.Blocks())
}

func TestSparklineTrend(t *testing.T) {
	s := NewSparkline(8)
	assert.Equal(t, 0, s.Trend())
	_, ok := s.Last()
	assert.False(t, ok)

	s.Push(10_000_000)
	s.Push(20_000_000)
	assert.Equal(t, 1, s.Trend())
	s.Push(5_000_000)
	assert.Equal(t, -1, s.Trend())
	s.Push(5_000_000)
	assert.Equal(t, 0, s.Trend())
}

func TestSparklineFlatAndPadded(t *testing.T) {
	s := NewSparkline(4)
	s.Push(7)
	s.Push(7)
	assert.Equal(t, "▄▄  ", s.Blocks())
	assert.Equal(t, "    ", NewSparkline(4).Blocks())
}
