package bar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.Local)
}

func TestSeriesSorted(t *testing.T) {
	s := Series{
		{Timestamp: day(3), Close: 3},
		{Timestamp: day(1), Close: 1},
		{Timestamp: day(2), Close: 2},
	}

	sorted := s.Sorted()
	assert.Equal(t, []float64{1, 2, 3}, sorted.Closes())
	// 原序列不受影响
	assert.Equal(t, 3.0, s[0].Close)
}

func TestSeriesNormalize(t *testing.T) {
	t.Run("重复时间戳保留最后一条", func(t *testing.T) {
		s := Series{
			{Timestamp: day(1), Close: 10},
			{Timestamp: day(2), Close: 20},
			{Timestamp: day(1), Close: 11},
		}

		out := s.Normalize()
		assert.Len(t, out, 2)
		assert.Equal(t, 11.0, out[0].Close)
		assert.Equal(t, 20.0, out[1].Close)
	})

	t.Run("空序列", func(t *testing.T) {
		out := Series{}.Normalize()
		assert.Len(t, out, 0)
	})
}
