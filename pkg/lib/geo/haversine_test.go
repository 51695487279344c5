package geo_test

import (
	"testing"

	"locamat/pkg/lib/geo"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	dakar := geo.Point{Lat: 14.7167, Lng: -17.4677}
	thies := geo.Point{Lat: 14.7910, Lng: -16.9359}

	assert.Zero(t, geo.Distance(dakar, dakar))
	assert.InDelta(t, 57.8, geo.Distance(dakar, thies), 1.0)
	assert.InDelta(t, geo.Distance(dakar, thies), geo.Distance(thies, dakar), 1e-9)

	// a quarter of a meridian
	assert.InDelta(t, 10007.5, geo.Distance(geo.Point{}, geo.Point{Lat: 90}), 1.0)
}

func TestPointValid(t *testing.T) {
	assert.True(t, geo.Point{Lat: 45, Lng: 120}.Valid())
	assert.False(t, geo.Point{Lat: 91}.Valid())
	assert.False(t, geo.Point{Lng: -181}.Valid())
}
