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
	"github.com/paulmach/orb"
)

type geometryState int

const (
	geometryUninitialized geometryState = iota
	geometryInitialized
)

// Geometry 要素几何的包装，首次访问时才绑定原生几何引用。
// 原生几何属于要素，要素Close之后Geometry不可再使用。
type Geometry struct {
	state  geometryState
	native nativeGeometry
	// released 要素已Close，native不可再访问
	released bool
}

// hasNative 是否已经绑定过原生几何
func (g *Geometry) hasNative() bool {
	return g.state == geometryInitialized
}

// attach 绑定原生几何，只允许一次；native可以为nil(要素没有几何)
func (g *Geometry) attach(native nativeGeometry) error {
	if g.state != geometryUninitialized {
		return ErrGeometryAttached
	}
	g.state = geometryInitialized
	g.native = native
	return nil
}

func (g *Geometry) check() error {
	if g.released {
		return ErrFeatureClosed
	}
	if g.state != geometryInitialized || g.native == nil {
		return ErrEmptyGeometry
	}
	return nil
}

// IsEmpty 要素是否没有几何。要素Close之后结果不变，
// 但WKT/JSON等会返回ErrFeatureClosed
func (g *Geometry) IsEmpty() bool {
	return g.native == nil
}

// Type 获取几何类型
func (g *Geometry) Type() GeomType {
	if g.check() != nil {
		return GeomUnknown
	}
	return g.native.Type()
}

// WKT 导出为WKT
func (g *Geometry) WKT() (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	return g.native.WKT()
}

// JSON 导出为GeoJSON几何
func (g *Geometry) JSON() (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	return g.native.JSON()
}

// Orb 转换为orb.Geometry，返回的是独立副本
func (g *Geometry) Orb() (orb.Geometry, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	return g.native.Orb()
}

// Bound 获取外包矩形
func (g *Geometry) Bound() (orb.Bound, error) {
	og, err := g.Orb()
	if err != nil {
		return orb.Bound{}, err
	}
	return og.Bound(), nil
}
