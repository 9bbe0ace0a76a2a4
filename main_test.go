package Govector

import (
	"io"
	"log"
	"os"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	SetLogger(log.New(io.Discard, "", 0))
	os.Exit(m.Run())
}

var (
	lakeErie = orb.Polygon{{
		{-83.47, 41.67}, {-78.86, 42.89}, {-79.05, 42.60}, {-82.51, 41.38}, {-83.47, 41.67},
	}}
	lakeHuron = orb.Polygon{{
		{-84.75, 45.92}, {-81.42, 45.27}, {-81.71, 43.00}, {-82.43, 43.00}, {-84.75, 45.92},
	}}
)

var lakeFields = []FieldDefn{
	{Name: "name", Type: FieldString, Width: 80},
	{Name: "area", Type: FieldReal, Width: 12, Precision: 2},
	{Name: "depth", Type: FieldInteger},
}

// newLakeLayer 创建包含三个要素的内存图层，第三个要素没有几何
func newLakeLayer(t *testing.T) *Layer {
	t.Helper()
	layer, err := CreateMemoryLayer("lakes", GeomPolygon, lakeFields...)
	require.NoError(t, err)

	_, err = layer.AddFeature(lakeErie, map[string]interface{}{
		"name":  "Lake Erie",
		"area":  25744.0,
		"depth": 64,
	})
	require.NoError(t, err)
	_, err = layer.AddFeature(lakeHuron, map[string]interface{}{
		"name": "Lake Huron",
		"area": 59600.0,
	})
	require.NoError(t, err)
	_, err = layer.AddFeature(nil, map[string]interface{}{
		"name": "Unmapped",
	})
	require.NoError(t, err)
	return layer
}

// nextFeature 读取下一个要素并在测试结束时释放
func nextFeature(t *testing.T, layer *Layer) *Feature {
	t.Helper()
	feature, err := layer.NextFeature()
	require.NoError(t, err)
	require.NotNil(t, feature)
	t.Cleanup(feature.Close)
	return feature
}
