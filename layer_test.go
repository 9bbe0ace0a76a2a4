package Govector

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMemoryLayer(t *testing.T) {
	t.Run("Schema", func(t *testing.T) {
		layer := newLakeLayer(t)
		assert.Equal(t, "lakes", layer.Name())
		assert.Equal(t, GeomPolygon, layer.GeometryType())
		assert.Equal(t, 3, layer.FieldCount())
		assert.Equal(t, 3, layer.FeatureCount())
		assert.Equal(t, lakeFields, layer.FieldDefns())
		assert.NotEqual(t, layer.ID(), newLakeLayer(t).ID())

		defn, ok := layer.FieldDefn(1)
		require.True(t, ok)
		assert.Equal(t, "area", defn.Name)
		_, ok = layer.FieldDefn(3)
		assert.False(t, ok)
	})

	t.Run("DuplicateField", func(t *testing.T) {
		_, err := CreateMemoryLayer("dup", GeomPoint,
			FieldDefn{Name: "a", Type: FieldString},
			FieldDefn{Name: "a", Type: FieldReal},
		)
		assert.Error(t, err)
	})

	t.Run("DuplicateFieldIgnoresCase", func(t *testing.T) {
		_, err := CreateMemoryLayer("dup", GeomPoint,
			FieldDefn{Name: "Name", Type: FieldString},
			FieldDefn{Name: "NAME", Type: FieldString},
		)
		assert.Error(t, err)
	})

	t.Run("EmptyFieldName", func(t *testing.T) {
		_, err := CreateMemoryLayer("empty", GeomPoint, FieldDefn{Type: FieldString})
		assert.Error(t, err)
	})

	t.Run("InvalidFieldType", func(t *testing.T) {
		_, err := CreateMemoryLayer("bad", GeomPoint, FieldDefn{Name: "x", Type: FieldType(99)})
		assert.Error(t, err)
	})
}

func TestLayerAddFeature(t *testing.T) {
	layer, err := CreateMemoryLayer("mixed", GeomPoint,
		FieldDefn{Name: "name", Type: FieldString},
		FieldDefn{Name: "depth", Type: FieldInteger64},
		FieldDefn{Name: "surveyed", Type: FieldDate},
		FieldDefn{Name: "tags", Type: FieldStringList},
		FieldDefn{Name: "blob", Type: FieldBinary},
	)
	require.NoError(t, err)

	t.Run("UnknownField", func(t *testing.T) {
		_, err := layer.AddFeature(orb.Point{}, map[string]interface{}{"nope": "x"})
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("WrongType", func(t *testing.T) {
		_, err := layer.AddFeature(orb.Point{}, map[string]interface{}{"name": 12})
		assert.Error(t, err)
		_, err = layer.AddFeature(orb.Point{}, map[string]interface{}{"depth": 1.5})
		assert.Error(t, err)
	})

	t.Run("OtherKindsReadAsText", func(t *testing.T) {
		fid, err := layer.AddFeature(orb.Point{1, 1}, map[string]interface{}{
			"name":     "buoy",
			"depth":    int64(210),
			"surveyed": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			"tags":     []string{"a", "b"},
			"blob":     []byte{0xde, 0xad},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), fid)

		feature := nextFeature(t, layer)
		props, err := feature.Properties()
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{
			"name":     "buoy",
			"depth":    "210",
			"surveyed": "2024/05/01",
			"tags":     "(2:a,b)",
			"blob":     "DEAD",
		}, props)
	})

	t.Run("GeometryIsCopied", func(t *testing.T) {
		line := orb.LineString{{0, 0}, {1, 1}}
		l, err := CreateMemoryLayer("lines", GeomLineString)
		require.NoError(t, err)
		_, err = l.AddFeature(line, nil)
		require.NoError(t, err)
		line[0] = orb.Point{5, 5}

		feature := nextFeature(t, l)
		g, err := feature.Geometry()
		require.NoError(t, err)
		og, err := g.Orb()
		require.NoError(t, err)
		assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, og)
	})
}

func TestLayerClose(t *testing.T) {
	t.Run("InUse", func(t *testing.T) {
		layer := newLakeLayer(t)
		feature, err := layer.NextFeature()
		require.NoError(t, err)
		assert.Equal(t, int64(1), layer.LiveFeatures())

		err = layer.Close()
		assert.ErrorIs(t, err, ErrLayerInUse)
		assert.False(t, layer.IsClosed())

		feature.Close()
		require.NoError(t, layer.Close())
		assert.True(t, layer.IsClosed())
		assert.NoError(t, layer.Close())
	})

	t.Run("OperationsAfterClose", func(t *testing.T) {
		layer := newLakeLayer(t)
		require.NoError(t, layer.Close())

		_, err := layer.NextFeature()
		assert.ErrorIs(t, err, ErrLayerClosed)
		assert.ErrorIs(t, layer.ResetReading(), ErrLayerClosed)
		_, err = layer.AddFeature(nil, nil)
		assert.ErrorIs(t, err, ErrLayerClosed)
		assert.ErrorIs(t, layer.PrintLayerInfo(&bytes.Buffer{}), ErrLayerClosed)
		assert.Zero(t, layer.FeatureCount())
		assert.Zero(t, layer.FieldCount())
		assert.Equal(t, "lakes", layer.Name())
	})
}

func TestLayerIterateFeatures(t *testing.T) {
	t.Run("All", func(t *testing.T) {
		layer := newLakeLayer(t)
		var names []string
		err := layer.IterateFeatures(func(feature *Feature) error {
			v, ok, err := feature.Field("name")
			require.NoError(t, err)
			require.True(t, ok)
			names = append(names, v.String())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Lake Erie", "Lake Huron", "Unmapped"}, names)

		stats := layer.NativeStats()
		assert.Equal(t, int64(3), stats.FeaturesDestroyed)
		assert.Zero(t, layer.LiveFeatures())
	})

	t.Run("StopsOnError", func(t *testing.T) {
		layer := newLakeLayer(t)
		stop := errors.New("stop")
		var seen *Feature
		err := layer.IterateFeatures(func(feature *Feature) error {
			seen = feature
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.False(t, seen.IsValid())
		assert.Equal(t, int64(1), layer.NativeStats().FeaturesCreated)
		assert.Zero(t, layer.LiveFeatures())
	})

	t.Run("ReleasesOnPanic", func(t *testing.T) {
		layer := newLakeLayer(t)
		func() {
			defer func() {
				assert.Equal(t, "boom", recover())
			}()
			_ = layer.IterateFeatures(func(*Feature) error {
				panic("boom")
			})
		}()

		stats := layer.NativeStats()
		assert.Equal(t, int64(1), stats.FeaturesCreated)
		assert.Equal(t, int64(1), stats.FeaturesDestroyed)
		assert.Zero(t, layer.LiveFeatures())
		assert.NoError(t, layer.Close())
	})

	t.Run("RestartsFromBeginning", func(t *testing.T) {
		layer := newLakeLayer(t)
		nextFeature(t, layer)
		count := 0
		require.NoError(t, layer.IterateFeatures(func(*Feature) error {
			count++
			return nil
		}))
		assert.Equal(t, 3, count)
	})
}

func TestLayerPrintLayerInfo(t *testing.T) {
	layer := newLakeLayer(t)
	var buf bytes.Buffer
	require.NoError(t, layer.PrintLayerInfo(&buf))

	out := buf.String()
	assert.Contains(t, out, "图层名称: lakes")
	assert.Contains(t, out, "要素数量: 3")
	assert.Contains(t, out, "Polygon")
	assert.Contains(t, out, "Lake Erie")
	assert.Contains(t, out, "25744")
	assert.Contains(t, out, "<INTEGER>")
	assert.Contains(t, out, "NULL")
	assert.Zero(t, layer.LiveFeatures())
}

func TestLayerPrintLayerInfoMultiByte(t *testing.T) {
	layer, err := CreateMemoryLayer("湖泊", GeomPoint, FieldDefn{Name: "名称", Type: FieldString})
	require.NoError(t, err)
	long := strings.Repeat("五大湖", 20)
	_, err = layer.AddFeature(orb.Point{-82.4, 44.8}, map[string]interface{}{"名称": long})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, layer.PrintLayerInfo(&buf))
	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "五大湖五大湖")
	assert.NotContains(t, out, long)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "苏必利尔湖", truncate("苏必利尔湖", 5))
	assert.Equal(t, "苏必...", truncate("苏必利尔湖和休伦湖", 5))
}
