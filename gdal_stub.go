//go:build !gdal

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

// OpenLayer 需要使用 -tags gdal 编译才能打开文件
func OpenLayer(filePath string, layerName ...string) (*Layer, error) {
	return nil, annotate(ErrGDALUnavailable, "%s", filePath)
}

// CreateGDALMemoryLayer 需要使用 -tags gdal 编译，未启用时请使用CreateMemoryLayer
func CreateGDALMemoryLayer(layerName string, geomType GeomType, fields ...FieldDefn) (*Layer, error) {
	return nil, annotate(ErrGDALUnavailable, "%s", layerName)
}
