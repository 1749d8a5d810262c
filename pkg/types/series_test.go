package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeries_LastHeight(t *testing.T) {
	_, ok := Series{}.LastHeight()
	assert.False(t, ok)

	s := Series{{Height: 0}, {Height: 1}, {Height: 2}}
	height, ok := s.LastHeight()
	assert.True(t, ok)
	assert.Equal(t, int64(2), height)
}

func TestSeries_From(t *testing.T) {
	s := Series{{Height: 0}, {Height: 1}, {Height: 2}, {Height: 3}}

	assert.Equal(t, s, s.From(0))
	assert.Equal(t, Series{{Height: 2}, {Height: 3}}, s.From(2))
	assert.Empty(t, s.From(4), "offset past the end clamps to empty")
	assert.Empty(t, s.From(100))
	assert.Equal(t, s, s.From(-1))
}

func TestAnomaly_String(t *testing.T) {
	a := Anomaly{Index: 3, Height: 4, PrevHeight: 2}
	assert.Equal(t, "unexpected height 4 after 2 (row 3)", a.String())
}
