package services

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	origin := orb.Point{0, 0}

	// one thousandth of a degree of latitude is about 111m
	d := DistanceMeters(origin, []float64{0, 0.001})
	assert.InDelta(t, 111.3, d, 1.5)

	assert.Equal(t, 0.0, DistanceMeters(origin, []float64{0, 0}))

	// malformed coordinates
	assert.Equal(t, 0.0, DistanceMeters(origin, nil))
	assert.Equal(t, 0.0, DistanceMeters(origin, []float64{10}))
}
