package Govector

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryStateMachine(t *testing.T) {
	var g Geometry
	assert.False(t, g.hasNative())

	_, err := g.WKT()
	assert.ErrorIs(t, err, ErrEmptyGeometry)

	require.NoError(t, g.attach(&memGeometry{geom: orb.Point{1, 2}}))
	assert.True(t, g.hasNative())
	assert.ErrorIs(t, g.attach(&memGeometry{geom: orb.Point{3, 4}}), ErrGeometryAttached)

	og, err := g.Orb()
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 2}, og)
}

func TestGeometryAttachNil(t *testing.T) {
	var g Geometry
	require.NoError(t, g.attach(nil))
	assert.True(t, g.hasNative())
	assert.True(t, g.IsEmpty())
	assert.ErrorIs(t, g.attach(nil), ErrGeometryAttached)

	_, err := g.Bound()
	assert.ErrorIs(t, err, ErrEmptyGeometry)
}

func TestGeometryOrbIsCopy(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 1}}
	var g Geometry
	require.NoError(t, g.attach(&memGeometry{geom: line}))

	og, err := g.Orb()
	require.NoError(t, err)
	og.(orb.LineString)[0] = orb.Point{9, 9}

	again, err := g.Orb()
	require.NoError(t, err)
	assert.Equal(t, line, again)
	assert.Equal(t, GeomLineString, g.Type())
}

func TestGeomTypeOf(t *testing.T) {
	cases := map[GeomType]orb.Geometry{
		GeomPoint:           orb.Point{},
		GeomLineString:      orb.LineString{},
		GeomPolygon:         orb.Polygon{},
		GeomMultiPoint:      orb.MultiPoint{},
		GeomMultiLineString: orb.MultiLineString{},
		GeomMultiPolygon:    orb.MultiPolygon{},
		GeomCollection:      orb.Collection{},
	}
	for want, g := range cases {
		assert.Equal(t, want, geomTypeOf(g), want.String())
	}
	assert.Equal(t, GeomUnknown, geomTypeOf(nil))
}
