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
	"strconv"
)

// FieldKind FieldValue的变体
type FieldKind int

const (
	StringKind FieldKind = iota
	RealKind
)

func (k FieldKind) String() string {
	switch k {
	case StringKind:
		return "StringValue"
	case RealKind:
		return "RealValue"
	default:
		return "FieldKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// FieldValue 单个属性值，只有文本和浮点两种
type FieldValue struct {
	kind FieldKind
	text string
	real float64
}

// StringValue 创建文本值
func StringValue(s string) FieldValue {
	return FieldValue{kind: StringKind, text: s}
}

// RealValue 创建浮点值
func RealValue(v float64) FieldValue {
	return FieldValue{kind: RealKind, real: v}
}

// Kind 获取值的变体
func (v FieldValue) Kind() FieldKind {
	return v.kind
}

// AsString 获取文本值，类型不符时返回*FieldValueMismatchError
func (v FieldValue) AsString() (string, error) {
	if v.kind != StringKind {
		return "", &FieldValueMismatchError{Want: StringKind, Got: v.kind}
	}
	return v.text, nil
}

// AsReal 获取浮点值，类型不符时返回*FieldValueMismatchError
func (v FieldValue) AsReal() (float64, error) {
	if v.kind != RealKind {
		return 0, &FieldValueMismatchError{Want: RealKind, Got: v.kind}
	}
	return v.real, nil
}

// Interface 以string或float64返回
func (v FieldValue) Interface() interface{} {
	if v.kind == RealKind {
		return v.real
	}
	return v.text
}

func (v FieldValue) String() string {
	if v.kind == RealKind {
		return strconv.FormatFloat(v.real, 'g', -1, 64)
	}
	return v.text
}
