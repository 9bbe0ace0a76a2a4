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
	"fmt"
	"sync/atomic"

	"github.com/paulmach/orb"
)

// FieldType 字段类型，取值与OGR的OGRFieldType一致
type FieldType int

const (
	FieldInteger        FieldType = 0
	FieldIntegerList    FieldType = 1
	FieldReal           FieldType = 2
	FieldRealList       FieldType = 3
	FieldString         FieldType = 4
	FieldStringList     FieldType = 5
	FieldWideString     FieldType = 6
	FieldWideStringList FieldType = 7
	FieldBinary         FieldType = 8
	FieldDate           FieldType = 9
	FieldTime           FieldType = 10
	FieldDateTime       FieldType = 11
	FieldInteger64      FieldType = 12
	FieldInteger64List  FieldType = 13
)

var fieldTypeNames = map[FieldType]string{
	FieldInteger:        "Integer",
	FieldIntegerList:    "IntegerList",
	FieldReal:           "Real",
	FieldRealList:       "RealList",
	FieldString:         "String",
	FieldStringList:     "StringList",
	FieldWideString:     "WideString",
	FieldWideStringList: "WideStringList",
	FieldBinary:         "Binary",
	FieldDate:           "Date",
	FieldTime:           "Time",
	FieldDateTime:       "DateTime",
	FieldInteger64:      "Integer64",
	FieldInteger64List:  "Integer64List",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// FieldDefn 字段定义
type FieldDefn struct {
	Name      string
	Type      FieldType
	Width     int
	Precision int
}

// GeomType 几何类型，取值与OGRwkbGeometryType的二维类型一致
type GeomType int

const (
	GeomUnknown         GeomType = 0
	GeomPoint           GeomType = 1
	GeomLineString      GeomType = 2
	GeomPolygon         GeomType = 3
	GeomMultiPoint      GeomType = 4
	GeomMultiLineString GeomType = 5
	GeomMultiPolygon    GeomType = 6
	GeomCollection      GeomType = 7
)

func (t GeomType) String() string {
	switch t {
	case GeomPoint:
		return "Point"
	case GeomLineString:
		return "Line String"
	case GeomPolygon:
		return "Polygon"
	case GeomMultiPoint:
		return "Multi Point"
	case GeomMultiLineString:
		return "Multi Line String"
	case GeomMultiPolygon:
		return "Multi Polygon"
	case GeomCollection:
		return "Geometry Collection"
	default:
		return "Unknown (any)"
	}
}

// geomTypeOf 获取orb几何对应的GeomType
func geomTypeOf(g orb.Geometry) GeomType {
	switch g.(type) {
	case orb.Point:
		return GeomPoint
	case orb.LineString:
		return GeomLineString
	case orb.Polygon, orb.Ring, orb.Bound:
		return GeomPolygon
	case orb.MultiPoint:
		return GeomMultiPoint
	case orb.MultiLineString:
		return GeomMultiLineString
	case orb.MultiPolygon:
		return GeomMultiPolygon
	case orb.Collection:
		return GeomCollection
	default:
		return GeomUnknown
	}
}

// nativeLayer 原生图层句柄
type nativeLayer interface {
	Name() string
	GeometryType() GeomType
	FieldCount() int
	FieldDefn(index int) FieldDefn
	FeatureCount() int
	ResetReading()
	// NextFeature 返回一个新分配、由调用方拥有的要素句柄；读完时返回nil
	NextFeature() nativeFeature
	Stats() *handleStats
	Close() error
}

// nativeFeatureWriter 支持写入要素的原生图层
type nativeFeatureWriter interface {
	AddFeature(geom orb.Geometry, values map[string]interface{}) (int64, error)
}

// nativeFeature 原生要素句柄，Destroy之后不可再使用
type nativeFeature interface {
	FID() int64
	// FieldIndex 字段不存在时返回-1
	FieldIndex(name string) int
	FieldCount() int
	FieldDefn(index int) FieldDefn
	IsFieldSet(index int) bool
	FieldAsString(index int) string
	FieldAsDouble(index int) float64
	// GeometryRef 返回要素持有的几何引用，没有几何时返回nil
	GeometryRef() nativeGeometry
	Destroy()
}

// nativeGeometry 原生几何引用，生命周期属于所在要素
type nativeGeometry interface {
	Type() GeomType
	WKT() (string, error)
	JSON() (string, error)
	Orb() (orb.Geometry, error)
}

// NativeStats 原生句柄计数
type NativeStats struct {
	// FeaturesCreated 已分配的要素句柄数
	FeaturesCreated int64
	// FeaturesDestroyed 已释放的要素句柄数
	FeaturesDestroyed int64
	// DoubleDestroys 重复释放次数，正常情况下恒为0
	DoubleDestroys int64
	// GeometryFetches 从要素获取几何引用的次数
	GeometryFetches int64
}

// Live 尚未释放的要素句柄数
func (s NativeStats) Live() int64 {
	return s.FeaturesCreated - s.FeaturesDestroyed
}

type handleStats struct {
	created   atomic.Int64
	destroyed atomic.Int64
	doubles   atomic.Int64
	geomFetch atomic.Int64
}

func (s *handleStats) snapshot() NativeStats {
	return NativeStats{
		FeaturesCreated:   s.created.Load(),
		FeaturesDestroyed: s.destroyed.Load(),
		DoubleDestroys:    s.doubles.Load(),
		GeometryFetches:   s.geomFetch.Load(),
	}
}
