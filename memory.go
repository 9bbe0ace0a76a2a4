/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Govector

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// ==================== 内存图层 ====================

// CreateMemoryLayer 创建纯Go实现的内存图层，行为与OGR Memory驱动一致：
// FID从0开始，每次NextFeature返回一个新的要素副本
func CreateMemoryLayer(layerName string, geomType GeomType, fields ...FieldDefn) (*Layer, error) {
	ml := &memLayer{
		name:     layerName,
		geomType: geomType,
		index:    make(map[string]int, len(fields)),
	}
	for _, defn := range fields {
		if defn.Name == "" {
			return nil, textErr("字段名为空")
		}
		// 与OGR一样，字段名不区分大小写
		key := strings.ToLower(defn.Name)
		if _, exists := ml.index[key]; exists {
			return nil, fmtErr("字段 %s 重复", defn.Name)
		}
		if _, known := fieldTypeNames[defn.Type]; !known {
			return nil, fmtErr("字段 %s 类型无效: %d", defn.Name, int(defn.Type))
		}
		ml.index[key] = len(ml.fields)
		ml.fields = append(ml.fields, defn)
	}
	layer := newLayer(ml)
	debugf("创建内存图层 %s (%s)，字段数 %d", layerName, layer.ID(), len(fields))
	return layer, nil
}

type memRecord struct {
	fid    int64
	values []interface{}
	geom   orb.Geometry
}

type memLayer struct {
	name     string
	geomType GeomType
	fields   []FieldDefn
	index    map[string]int
	records  []memRecord
	cursor   int
	stats    handleStats
}

func (ml *memLayer) Name() string              { return ml.name }
func (ml *memLayer) GeometryType() GeomType    { return ml.geomType }
func (ml *memLayer) FieldCount() int           { return len(ml.fields) }
func (ml *memLayer) FieldDefn(i int) FieldDefn { return ml.fields[i] }
func (ml *memLayer) FeatureCount() int         { return len(ml.records) }
func (ml *memLayer) ResetReading()             { ml.cursor = 0 }
func (ml *memLayer) Stats() *handleStats       { return &ml.stats }

func (ml *memLayer) NextFeature() nativeFeature {
	if ml.cursor >= len(ml.records) {
		return nil
	}
	rec := ml.records[ml.cursor]
	ml.cursor++

	values := make([]interface{}, len(rec.values))
	copy(values, rec.values)
	var geom orb.Geometry
	if rec.geom != nil {
		geom = orb.Clone(rec.geom)
	}
	ml.stats.created.Add(1)
	return &memFeature{
		layer:  ml,
		fid:    rec.fid,
		values: values,
		geom:   geom,
	}
}

func (ml *memLayer) AddFeature(geom orb.Geometry, values map[string]interface{}) (int64, error) {
	rec := memRecord{
		fid:    int64(len(ml.records)),
		values: make([]interface{}, len(ml.fields)),
	}
	for name, v := range values {
		i, ok := ml.index[strings.ToLower(name)]
		if !ok {
			return -1, annotate(ErrUnknownField, "%s", name)
		}
		converted, err := coerceFieldValue(ml.fields[i].Type, v)
		if err != nil {
			return -1, wrapErr("字段 %s 赋值失败", err, name)
		}
		rec.values[i] = converted
	}
	if geom != nil {
		rec.geom = orb.Clone(geom)
	}
	ml.records = append(ml.records, rec)
	return rec.fid, nil
}

func (ml *memLayer) Close() error {
	ml.records = nil
	ml.cursor = 0
	return nil
}

// coerceFieldValue 把Go值转换为字段类型对应的存储值，nil表示未设置
func coerceFieldValue(t FieldType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case FieldString, FieldWideString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case FieldReal:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case FieldInteger, FieldInteger64:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case FieldDate, FieldTime, FieldDateTime:
		if tm, ok := v.(time.Time); ok {
			return tm, nil
		}
	case FieldBinary:
		if b, ok := v.([]byte); ok {
			return append([]byte(nil), b...), nil
		}
	case FieldIntegerList, FieldInteger64List:
		switch l := v.(type) {
		case []int64:
			return append([]int64(nil), l...), nil
		case []int:
			out := make([]int64, len(l))
			for i, n := range l {
				out[i] = int64(n)
			}
			return out, nil
		}
	case FieldRealList:
		if l, ok := v.([]float64); ok {
			return append([]float64(nil), l...), nil
		}
	case FieldStringList, FieldWideStringList:
		if l, ok := v.([]string); ok {
			return append([]string(nil), l...), nil
		}
	}
	return nil, fmtErr("类型 %T 不能写入 %s 字段", v, t)
}

// ==================== 内存要素 ====================

type memFeature struct {
	layer     *memLayer
	fid       int64
	values    []interface{}
	geom      orb.Geometry
	destroyed bool
}

func (mf *memFeature) FID() int64 { return mf.fid }

func (mf *memFeature) FieldIndex(name string) int {
	if i, ok := mf.layer.index[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

func (mf *memFeature) FieldCount() int               { return len(mf.layer.fields) }
func (mf *memFeature) FieldDefn(index int) FieldDefn { return mf.layer.fields[index] }
func (mf *memFeature) IsFieldSet(index int) bool     { return mf.values[index] != nil }

// FieldAsString 与OGR_F_GetFieldAsString一样对任意类型给出文本形式
func (mf *memFeature) FieldAsString(index int) string {
	switch v := mf.values[index].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', 15, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		switch mf.layer.fields[index].Type {
		case FieldDate:
			return v.Format("2006/01/02")
		case FieldTime:
			return v.Format("15:04:05")
		default:
			return v.Format("2006/01/02 15:04:05")
		}
	case []byte:
		return strings.ToUpper(hex.EncodeToString(v))
	case []int64:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return listString(parts)
	case []float64:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.FormatFloat(n, 'g', 15, 64)
		}
		return listString(parts)
	case []string:
		return listString(v)
	default:
		return ""
	}
}

func listString(parts []string) string {
	return "(" + strconv.Itoa(len(parts)) + ":" + strings.Join(parts, ",") + ")"
}

// FieldAsDouble 与OGR_F_GetFieldAsDouble一样，无法转换时返回0
func (mf *memFeature) FieldAsDouble(index int) float64 {
	switch v := mf.values[index].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (mf *memFeature) GeometryRef() nativeGeometry {
	mf.layer.stats.geomFetch.Add(1)
	if mf.geom == nil {
		return nil
	}
	return &memGeometry{geom: mf.geom}
}

func (mf *memFeature) Destroy() {
	if mf.destroyed {
		mf.layer.stats.doubles.Add(1)
		return
	}
	mf.destroyed = true
	mf.values = nil
	mf.geom = nil
	mf.layer.stats.destroyed.Add(1)
}

// ==================== 内存几何 ====================

type memGeometry struct {
	geom orb.Geometry
}

func (mg *memGeometry) Type() GeomType {
	return geomTypeOf(mg.geom)
}

func (mg *memGeometry) WKT() (string, error) {
	return wkt.MarshalString(mg.geom), nil
}

func (mg *memGeometry) JSON() (string, error) {
	data, err := json.Marshal(geojson.NewGeometry(mg.geom))
	if err != nil {
		return "", wrapErr("导出GeoJSON失败", err)
	}
	return string(data), nil
}

func (mg *memGeometry) Orb() (orb.Geometry, error) {
	return orb.Clone(mg.geom), nil
}
