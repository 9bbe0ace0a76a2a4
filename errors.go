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
	"errors"
	"fmt"
)

const packageName = "govector: "

var (
	// ErrLayerClosed 图层已关闭
	ErrLayerClosed = textErr("图层已关闭")
	// ErrLayerInUse 图层仍有未关闭的要素，不能关闭
	ErrLayerInUse = textErr("图层仍有未关闭的要素")
	// ErrFeatureClosed 要素已释放
	ErrFeatureClosed = textErr("要素已释放")
	// ErrGeometryAttached 几何已经绑定过原生句柄
	ErrGeometryAttached = textErr("几何已绑定")
	// ErrEmptyGeometry 要素没有几何
	ErrEmptyGeometry = textErr("几何为空")
	// ErrGDALUnavailable 编译时未启用gdal标签
	ErrGDALUnavailable = textErr("未启用GDAL支持(需要 -tags gdal)")
	// ErrReadOnlyLayer 图层不支持写入要素
	ErrReadOnlyLayer = textErr("图层只读")
	// ErrUnknownField 写入时字段不存在
	ErrUnknownField = textErr("字段不存在")
)

// UnsupportedFieldTypeError 字段类型既不是文本也不是浮点
type UnsupportedFieldTypeError struct {
	Field string
	Type  FieldType
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("%s不支持的字段类型: %s (%s)", packageName, e.Type, e.Field)
}

// FieldValueMismatchError 读取FieldValue时请求了错误的类型
type FieldValueMismatchError struct {
	Want FieldKind
	Got  FieldKind
}

func (e *FieldValueMismatchError) Error() string {
	return fmt.Sprintf("%s字段值类型不匹配: 需要%s, 实际为%s", packageName, e.Want, e.Got)
}

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...interface{}) error {
	return fmt.Errorf(packageName+format, a...)
}

func wrapErr(text string, err error, a ...interface{}) error {
	return fmt.Errorf(packageName+text+": %w", append(a, err)...)
}

// annotate 在哨兵错误后追加上下文，保留errors.Is
func annotate(sentinel error, format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, a...)...)
}
