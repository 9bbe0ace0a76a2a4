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
	"runtime"

	"github.com/paulmach/orb/geojson"
)

// Feature 图层中的一条要素。
// Feature独占一个原生要素句柄，Close时释放且只释放一次；
// 它借用所属的Layer，Layer必须比它的所有要素活得更久。
type Feature struct {
	layer    *Layer
	handle   nativeFeature
	geometry Geometry
}

// wrapFeature 接管一个刚从原生图层取得的要素句柄。
// 调用方保证handle是新分配的且没有其它所有者，这里不做校验。
func wrapFeature(layer *Layer, handle nativeFeature) *Feature {
	if handle == nil {
		return nil
	}
	f := &Feature{
		layer:  layer,
		handle: handle,
	}
	layer.acquireFeature()
	runtime.SetFinalizer(f, (*Feature).finalize)
	return f
}

// Layer 获取所属图层
func (f *Feature) Layer() *Layer {
	return f.layer
}

// IsValid 要素是否还未释放
func (f *Feature) IsValid() bool {
	return f != nil && f.handle != nil
}

// FID 获取要素ID
func (f *Feature) FID() int64 {
	if !f.IsValid() {
		return -1
	}
	return f.handle.FID()
}

// Field 按名称读取字段值。
// 字段不存在时ok为false且err为nil；字段类型不是文本或浮点时返回*UnsupportedFieldTypeError。
func (f *Feature) Field(name string) (value FieldValue, ok bool, err error) {
	if !f.IsValid() {
		return FieldValue{}, false, ErrFeatureClosed
	}
	index := f.handle.FieldIndex(name)
	if index < 0 {
		return FieldValue{}, false, nil
	}
	value, err = f.fieldByIndex(index)
	if err != nil {
		return FieldValue{}, false, err
	}
	return value, true, nil
}

func (f *Feature) fieldByIndex(index int) (FieldValue, error) {
	defn := f.handle.FieldDefn(index)
	switch defn.Type {
	case FieldString:
		return StringValue(f.handle.FieldAsString(index)), nil
	case FieldReal:
		return RealValue(f.handle.FieldAsDouble(index)), nil
	default:
		return FieldValue{}, &UnsupportedFieldTypeError{Field: defn.Name, Type: defn.Type}
	}
}

// IsFieldSet 字段是否存在且已赋值
func (f *Feature) IsFieldSet(name string) bool {
	if !f.IsValid() {
		return false
	}
	index := f.handle.FieldIndex(name)
	return index >= 0 && f.handle.IsFieldSet(index)
}

// FieldNames 获取所有字段名
func (f *Feature) FieldNames() []string {
	if !f.IsValid() {
		return nil
	}
	count := f.handle.FieldCount()
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, f.handle.FieldDefn(i).Name)
	}
	return names
}

// Fields 读取全部字段，遇到不支持的字段类型时返回错误
func (f *Feature) Fields() (map[string]FieldValue, error) {
	if !f.IsValid() {
		return nil, ErrFeatureClosed
	}
	count := f.handle.FieldCount()
	values := make(map[string]FieldValue, count)
	for i := 0; i < count; i++ {
		value, err := f.fieldByIndex(i)
		if err != nil {
			return nil, err
		}
		values[f.handle.FieldDefn(i).Name] = value
	}
	return values, nil
}

// Properties 读取全部字段为通用属性表，未设置的字段为nil，
// 文本和浮点以外的类型按文本读取
func (f *Feature) Properties() (map[string]interface{}, error) {
	if !f.IsValid() {
		return nil, ErrFeatureClosed
	}
	count := f.handle.FieldCount()
	props := make(map[string]interface{}, count)
	for i := 0; i < count; i++ {
		defn := f.handle.FieldDefn(i)
		if !f.handle.IsFieldSet(i) {
			props[defn.Name] = nil
			continue
		}
		value, err := f.fieldByIndex(i)
		if err != nil {
			props[defn.Name] = f.handle.FieldAsString(i)
			continue
		}
		props[defn.Name] = value.Interface()
	}
	return props, nil
}

// Geometry 获取要素几何。第一次调用时从原生要素取几何引用，之后复用。
// 返回值只在要素Close之前有效。
func (f *Feature) Geometry() (*Geometry, error) {
	if !f.IsValid() {
		return nil, ErrFeatureClosed
	}
	if !f.geometry.hasNative() {
		if err := f.geometry.attach(f.handle.GeometryRef()); err != nil {
			return nil, err
		}
	}
	return &f.geometry, nil
}

// WKT 几何导出为WKT
func (f *Feature) WKT() (string, error) {
	g, err := f.Geometry()
	if err != nil {
		return "", err
	}
	return g.WKT()
}

// JSON 几何导出为GeoJSON
func (f *Feature) JSON() (string, error) {
	g, err := f.Geometry()
	if err != nil {
		return "", err
	}
	return g.JSON()
}

// GeoJSON 转换为geojson要素，属性取自Properties
func (f *Feature) GeoJSON() (*geojson.Feature, error) {
	g, err := f.Geometry()
	if err != nil {
		return nil, err
	}
	var out *geojson.Feature
	if g.IsEmpty() {
		out = geojson.NewFeature(nil)
	} else {
		og, err := g.Orb()
		if err != nil {
			return nil, wrapErr("转换几何失败", err)
		}
		out = geojson.NewFeature(og)
	}
	props, err := f.Properties()
	if err != nil {
		return nil, err
	}
	out.ID = f.FID()
	out.Properties = props
	return out, nil
}

// Close 释放原生要素句柄，可以重复调用
func (f *Feature) Close() {
	if !f.IsValid() {
		return
	}
	runtime.SetFinalizer(f, nil)
	f.release()
}

func (f *Feature) release() {
	f.handle.Destroy()
	f.handle = nil
	f.geometry.released = true
	f.layer.releaseFeature()
}

func (f *Feature) finalize() {
	if f.handle == nil {
		return
	}
	logf("要素 %d 未调用Close，由finalizer释放 (图层 %s)", f.handle.FID(), f.layer.Name())
	f.release()
}
