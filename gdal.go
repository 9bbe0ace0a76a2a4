//go:build gdal

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

/*
#cgo pkg-config: gdal
#include <stdlib.h>
#include "gdal.h"
#include "ogr_api.h"
#include "ogr_srs_api.h"
#include "cpl_conv.h"
*/
import "C"
import (
	"sync"
	"unsafe"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

var registerOnce sync.Once

func registerDrivers() {
	registerOnce.Do(func() {
		C.GDALAllRegister()
		C.OGRRegisterAll()
	})
}

// ==================== 图层 ====================

type gdalLayer struct {
	layer   C.OGRLayerH
	dataset C.OGRDataSourceH
	stats   handleStats
}

// OpenLayer 打开矢量文件中的图层，未指定图层名时取第一个图层
func OpenLayer(filePath string, layerName ...string) (*Layer, error) {
	registerDrivers()

	cPath := C.CString(filePath)
	defer C.free(unsafe.Pointer(cPath))

	dataset := C.OGROpen(cPath, C.int(0), nil) // 0表示只读
	if dataset == nil {
		return nil, fmtErr("无法打开文件: %s", filePath)
	}

	var layer C.OGRLayerH
	if len(layerName) > 0 && layerName[0] != "" {
		cLayerName := C.CString(layerName[0])
		defer C.free(unsafe.Pointer(cLayerName))
		layer = C.OGR_DS_GetLayerByName(dataset, cLayerName)
		if layer == nil {
			C.OGR_DS_Destroy(dataset)
			return nil, fmtErr("无法找到图层: %s", layerName[0])
		}
	} else {
		if C.OGR_DS_GetLayerCount(dataset) == 0 {
			C.OGR_DS_Destroy(dataset)
			return nil, fmtErr("文件中没有图层: %s", filePath)
		}
		layer = C.OGR_DS_GetLayer(dataset, C.int(0))
	}

	gl := &gdalLayer{layer: layer, dataset: dataset}
	l := newLayer(gl)
	debugf("打开图层 %s (%s)", l.Name(), filePath)
	return l, nil
}

// CreateGDALMemoryLayer 通过OGR Memory驱动创建内存图层
func CreateGDALMemoryLayer(layerName string, geomType GeomType, fields ...FieldDefn) (*Layer, error) {
	registerDrivers()

	var driver C.OGRSFDriverH
	for _, name := range []string{"Memory", "MEM"} {
		driverName := C.CString(name)
		driver = C.OGRGetDriverByName(driverName)
		C.free(unsafe.Pointer(driverName))
		if driver != nil {
			break
		}
	}
	if driver == nil {
		return nil, textErr("无法获取Memory驱动")
	}

	dsName := C.CString("")
	defer C.free(unsafe.Pointer(dsName))

	dataset := C.OGR_Dr_CreateDataSource(driver, dsName, nil)
	if dataset == nil {
		return nil, textErr("创建数据源失败")
	}

	cLayerName := C.CString(layerName)
	defer C.free(unsafe.Pointer(cLayerName))

	layer := C.OGR_DS_CreateLayer(dataset, cLayerName, nil, C.OGRwkbGeometryType(geomType), nil)
	if layer == nil {
		C.OGR_DS_Destroy(dataset)
		return nil, textErr("创建图层失败")
	}

	for _, defn := range fields {
		cName := C.CString(defn.Name)
		fieldDefn := C.OGR_Fld_Create(cName, C.OGRFieldType(defn.Type))
		C.free(unsafe.Pointer(cName))
		if defn.Width > 0 {
			C.OGR_Fld_SetWidth(fieldDefn, C.int(defn.Width))
		}
		if defn.Precision > 0 {
			C.OGR_Fld_SetPrecision(fieldDefn, C.int(defn.Precision))
		}
		result := C.OGR_L_CreateField(layer, fieldDefn, C.int(1))
		C.OGR_Fld_Destroy(fieldDefn)
		if result != C.OGRERR_NONE {
			C.OGR_DS_Destroy(dataset)
			return nil, fmtErr("创建字段 %s 失败，错误码: %d", defn.Name, int(result))
		}
	}

	return newLayer(&gdalLayer{layer: layer, dataset: dataset}), nil
}

func (gl *gdalLayer) Name() string {
	name := C.OGR_L_GetName(gl.layer)
	if name == nil {
		return ""
	}
	return C.GoString(name)
}

func (gl *gdalLayer) GeometryType() GeomType {
	defn := C.OGR_L_GetLayerDefn(gl.layer)
	return GeomType(C.OGR_GT_Flatten(C.OGR_FD_GetGeomType(defn)))
}

func (gl *gdalLayer) FieldCount() int {
	return int(C.OGR_FD_GetFieldCount(C.OGR_L_GetLayerDefn(gl.layer)))
}

func (gl *gdalLayer) FieldDefn(index int) FieldDefn {
	defn := C.OGR_L_GetLayerDefn(gl.layer)
	return fieldDefnFromC(C.OGR_FD_GetFieldDefn(defn, C.int(index)))
}

func (gl *gdalLayer) FeatureCount() int {
	return int(C.OGR_L_GetFeatureCount(gl.layer, C.int(1))) // 1表示强制计算
}

func (gl *gdalLayer) ResetReading() {
	C.OGR_L_ResetReading(gl.layer)
}

func (gl *gdalLayer) NextFeature() nativeFeature {
	feature := C.OGR_L_GetNextFeature(gl.layer)
	if feature == nil {
		return nil
	}
	gl.stats.created.Add(1)
	return &gdalFeature{feature: feature, stats: &gl.stats}
}

func (gl *gdalLayer) Stats() *handleStats {
	return &gl.stats
}

// AddFeature 创建要素并写入图层，几何通过WKB传给OGR
func (gl *gdalLayer) AddFeature(geom orb.Geometry, values map[string]interface{}) (int64, error) {
	defn := C.OGR_L_GetLayerDefn(gl.layer)
	feature := C.OGR_F_Create(defn)
	if feature == nil {
		return -1, textErr("创建要素失败")
	}
	defer C.OGR_F_Destroy(feature)

	for name, v := range values {
		if err := setGDALField(feature, name, v); err != nil {
			return -1, err
		}
	}

	if geom != nil {
		data, err := wkb.Marshal(geom)
		if err != nil {
			return -1, wrapErr("几何转WKB失败", err)
		}
		cData := C.CBytes(data)
		defer C.free(cData)
		var hGeom C.OGRGeometryH
		if C.OGR_G_CreateFromWkb(cData, nil, &hGeom, C.int(len(data))) != C.OGRERR_NONE {
			return -1, textErr("WKB转OGR几何失败")
		}
		if C.OGR_F_SetGeometryDirectly(feature, hGeom) != C.OGRERR_NONE {
			return -1, textErr("设置几何失败")
		}
	}

	if result := C.OGR_L_CreateFeature(gl.layer, feature); result != C.OGRERR_NONE {
		return -1, fmtErr("创建要素失败，错误码: %d", int(result))
	}
	return int64(C.OGR_F_GetFID(feature)), nil
}

func setGDALField(feature C.OGRFeatureH, name string, v interface{}) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	index := C.OGR_F_GetFieldIndex(feature, cName)
	if index < 0 {
		return annotate(ErrUnknownField, "%s", name)
	}
	fieldType := FieldType(C.OGR_Fld_GetType(C.OGR_F_GetFieldDefnRef(feature, index)))
	converted, err := coerceFieldValue(fieldType, v)
	if err != nil {
		return wrapErr("字段 %s 赋值失败", err, name)
	}
	switch value := converted.(type) {
	case nil:
		C.OGR_F_SetFieldNull(feature, index)
	case string:
		cValue := C.CString(value)
		defer C.free(unsafe.Pointer(cValue))
		C.OGR_F_SetFieldString(feature, index, cValue)
	case float64:
		C.OGR_F_SetFieldDouble(feature, index, C.double(value))
	case int64:
		C.OGR_F_SetFieldInteger64(feature, index, C.GIntBig(value))
	default:
		return fmtErr("GDAL图层暂不支持写入 %s 字段", fieldType)
	}
	return nil
}

func (gl *gdalLayer) Close() error {
	if gl.dataset != nil {
		C.OGR_DS_Destroy(gl.dataset)
		gl.dataset = nil
		gl.layer = nil
	}
	return nil
}

func fieldDefnFromC(fieldDefn C.OGRFieldDefnH) FieldDefn {
	if fieldDefn == nil {
		return FieldDefn{}
	}
	return FieldDefn{
		Name:      C.GoString(C.OGR_Fld_GetNameRef(fieldDefn)),
		Type:      FieldType(C.OGR_Fld_GetType(fieldDefn)),
		Width:     int(C.OGR_Fld_GetWidth(fieldDefn)),
		Precision: int(C.OGR_Fld_GetPrecision(fieldDefn)),
	}
}

// ==================== 要素 ====================

type gdalFeature struct {
	feature C.OGRFeatureH
	stats   *handleStats
}

func (gf *gdalFeature) FID() int64 {
	return int64(C.OGR_F_GetFID(gf.feature))
}

func (gf *gdalFeature) FieldIndex(name string) int {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return int(C.OGR_F_GetFieldIndex(gf.feature, cName))
}

func (gf *gdalFeature) FieldCount() int {
	return int(C.OGR_F_GetFieldCount(gf.feature))
}

func (gf *gdalFeature) FieldDefn(index int) FieldDefn {
	return fieldDefnFromC(C.OGR_F_GetFieldDefnRef(gf.feature, C.int(index)))
}

func (gf *gdalFeature) IsFieldSet(index int) bool {
	return C.OGR_F_IsFieldSetAndNotNull(gf.feature, C.int(index)) != 0
}

func (gf *gdalFeature) FieldAsString(index int) string {
	return C.GoString(C.OGR_F_GetFieldAsString(gf.feature, C.int(index)))
}

func (gf *gdalFeature) FieldAsDouble(index int) float64 {
	return float64(C.OGR_F_GetFieldAsDouble(gf.feature, C.int(index)))
}

func (gf *gdalFeature) GeometryRef() nativeGeometry {
	gf.stats.geomFetch.Add(1)
	geom := C.OGR_F_GetGeometryRef(gf.feature)
	if geom == nil {
		return nil
	}
	return &gdalGeometry{geom: geom}
}

func (gf *gdalFeature) Destroy() {
	if gf.feature == nil {
		gf.stats.doubles.Add(1)
		return
	}
	C.OGR_F_Destroy(gf.feature)
	gf.feature = nil
	gf.stats.destroyed.Add(1)
}

// ==================== 几何 ====================

// gdalGeometry 借用要素的几何，不负责释放
type gdalGeometry struct {
	geom C.OGRGeometryH
}

func (gg *gdalGeometry) Type() GeomType {
	return GeomType(C.OGR_GT_Flatten(C.OGR_G_GetGeometryType(gg.geom)))
}

func (gg *gdalGeometry) WKT() (string, error) {
	var cWkt *C.char
	if C.OGR_G_ExportToWkt(gg.geom, &cWkt) != C.OGRERR_NONE {
		return "", textErr("导出WKT失败")
	}
	defer C.CPLFree(unsafe.Pointer(cWkt))
	return C.GoString(cWkt), nil
}

func (gg *gdalGeometry) JSON() (string, error) {
	cJSON := C.OGR_G_ExportToJson(gg.geom)
	if cJSON == nil {
		return "", textErr("导出GeoJSON失败")
	}
	defer C.CPLFree(unsafe.Pointer(cJSON))
	return C.GoString(cJSON), nil
}

func (gg *gdalGeometry) Orb() (orb.Geometry, error) {
	size := C.OGR_G_WkbSize(gg.geom)
	if size <= 0 {
		return nil, textErr("几何WKB长度为0")
	}
	buf := (*C.uchar)(C.malloc(C.size_t(size)))
	defer C.free(unsafe.Pointer(buf))
	if C.OGR_G_ExportToWkb(gg.geom, C.wkbNDR, buf) != C.OGRERR_NONE {
		return nil, textErr("导出WKB失败")
	}
	g, err := wkb.Unmarshal(C.GoBytes(unsafe.Pointer(buf), C.int(size)))
	if err != nil {
		return nil, wrapErr("解析WKB失败", err)
	}
	return g, nil
}
