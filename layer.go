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
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Layer 包装原生图层。
// 由它产生的Feature借用它，所有Feature关闭之前Layer不能关闭。
type Layer struct {
	id     uuid.UUID
	name   string
	native nativeLayer
	live   atomic.Int64
	closed bool
}

func newLayer(native nativeLayer) *Layer {
	return &Layer{
		id:     uuid.New(),
		name:   native.Name(),
		native: native,
	}
}

// ID 图层的唯一标识，用于日志和导出任务
func (l *Layer) ID() uuid.UUID {
	return l.id
}

// Name 获取图层名称
func (l *Layer) Name() string {
	return l.name
}

// IsClosed 图层是否已关闭
func (l *Layer) IsClosed() bool {
	return l.closed
}

// GeometryType 获取几何类型
func (l *Layer) GeometryType() GeomType {
	if l.closed {
		return GeomUnknown
	}
	return l.native.GeometryType()
}

// FieldCount 获取字段数量
func (l *Layer) FieldCount() int {
	if l.closed {
		return 0
	}
	return l.native.FieldCount()
}

// FieldDefn 获取字段定义
func (l *Layer) FieldDefn(index int) (FieldDefn, bool) {
	if l.closed || index < 0 || index >= l.native.FieldCount() {
		return FieldDefn{}, false
	}
	return l.native.FieldDefn(index), true
}

// FieldDefns 获取全部字段定义
func (l *Layer) FieldDefns() []FieldDefn {
	count := l.FieldCount()
	defns := make([]FieldDefn, 0, count)
	for i := 0; i < count; i++ {
		defns = append(defns, l.native.FieldDefn(i))
	}
	return defns
}

// FeatureCount 获取要素数量
func (l *Layer) FeatureCount() int {
	if l.closed {
		return 0
	}
	return l.native.FeatureCount()
}

// ResetReading 重置读取位置
func (l *Layer) ResetReading() error {
	if l.closed {
		return ErrLayerClosed
	}
	l.native.ResetReading()
	return nil
}

// NextFeature 获取下一个要素，读完时返回nil, nil。
// 返回的要素由调用方负责Close。
func (l *Layer) NextFeature() (*Feature, error) {
	if l.closed {
		return nil, ErrLayerClosed
	}
	handle := l.native.NextFeature()
	if handle == nil {
		return nil, nil
	}
	return wrapFeature(l, handle), nil
}

// IterateFeatures 从头遍历所有要素，每个要素在回调返回后释放
func (l *Layer) IterateFeatures(callback func(feature *Feature) error) error {
	if err := l.ResetReading(); err != nil {
		return err
	}
	for {
		feature, err := l.NextFeature()
		if err != nil {
			return err
		}
		if feature == nil {
			return nil
		}
		if err := visitFeature(feature, callback); err != nil {
			return err
		}
	}
}

// visitFeature 调用回调后释放要素，回调panic时同样释放
func visitFeature(feature *Feature, callback func(feature *Feature) error) error {
	defer feature.Close()
	return callback(feature)
}

// AddFeature 向图层写入一个要素，返回新要素的FID
func (l *Layer) AddFeature(geom orb.Geometry, values map[string]interface{}) (int64, error) {
	if l.closed {
		return -1, ErrLayerClosed
	}
	writer, ok := l.native.(nativeFeatureWriter)
	if !ok {
		return -1, ErrReadOnlyLayer
	}
	return writer.AddFeature(geom, values)
}

// LiveFeatures 尚未关闭的要素数量
func (l *Layer) LiveFeatures() int64 {
	return l.live.Load()
}

// NativeStats 获取原生句柄计数
func (l *Layer) NativeStats() NativeStats {
	return l.native.Stats().snapshot()
}

func (l *Layer) acquireFeature() {
	l.live.Add(1)
}

func (l *Layer) releaseFeature() {
	l.live.Add(-1)
}

// Close 关闭图层，仍有未关闭的要素时返回ErrLayerInUse
func (l *Layer) Close() error {
	if l.closed {
		return nil
	}
	if n := l.live.Load(); n > 0 {
		return annotate(ErrLayerInUse, "图层 %s 还有 %d 个要素", l.name, n)
	}
	l.closed = true
	if err := l.native.Close(); err != nil {
		return wrapErr("关闭图层 %s 失败", err, l.name)
	}
	debugf("图层 %s (%s) 已关闭", l.name, l.id)
	return nil
}

// PrintLayerInfo 打印图层信息
func (l *Layer) PrintLayerInfo(w io.Writer) error {
	if l.closed {
		return ErrLayerClosed
	}
	fmt.Fprintf(w, "图层信息:\n")
	fmt.Fprintf(w, "  图层名称: %s\n", l.Name())
	fmt.Fprintf(w, "  要素数量: %d\n", l.FeatureCount())
	fmt.Fprintf(w, "  几何类型: %s\n", l.GeometryType())
	fmt.Fprintf(w, "  字段数量: %d\n", l.FieldCount())

	fmt.Fprintf(w, "\n字段定义表:\n")
	fmt.Fprintf(w, "%-4s %-20s %-15s %-8s %-6s\n", "序号", "字段名", "字段类型", "宽度", "精度")
	fmt.Fprintln(w, strings.Repeat("-", 65))
	for i, defn := range l.FieldDefns() {
		fmt.Fprintf(w, "%-4d %-20s %-15s %-8d %-6d\n",
			i+1, defn.Name, defn.Type, defn.Width, defn.Precision)
	}

	fmt.Fprintf(w, "\n前10个要素的属性数据:\n")
	return l.printFirstFeatures(w, 10)
}

// printFirstFeatures 打印前n个要素的属性数据
func (l *Layer) printFirstFeatures(w io.Writer, n int) error {
	if err := l.ResetReading(); err != nil {
		return err
	}
	defer l.native.ResetReading()

	defns := l.FieldDefns()
	if len(defns) == 0 {
		fmt.Fprintln(w, "  没有属性字段")
		return nil
	}

	fmt.Fprintf(w, "%-6s", "FID")
	for _, defn := range defns {
		fmt.Fprintf(w, "%-16s", truncate(defn.Name, 15))
	}
	fmt.Fprintf(w, "%-15s\n", "几何类型")
	fmt.Fprintln(w, strings.Repeat("-", 6+len(defns)*16+15))

	for i := 0; i < n; i++ {
		feature, err := l.NextFeature()
		if err != nil {
			return err
		}
		if feature == nil {
			break
		}
		printFeatureRow(w, feature, defns)
	}

	if total := l.FeatureCount(); total > n {
		fmt.Fprintf(w, "\n... 还有 %d 个要素（仅显示前%d个）\n", total-n, n)
	}
	return nil
}

// printFeatureRow 打印一行要素属性，打印后释放要素
func printFeatureRow(w io.Writer, feature *Feature, defns []FieldDefn) {
	defer feature.Close()
	fmt.Fprintf(w, "%-6d", feature.FID())
	for _, defn := range defns {
		text := "<NULL>"
		value, ok, err := feature.Field(defn.Name)
		switch {
		case err != nil:
			text = "<" + strings.ToUpper(defn.Type.String()) + ">"
		case ok:
			text = value.String()
		}
		fmt.Fprintf(w, "%-16s", truncate(text, 15))
	}
	geomName := "NULL"
	if g, err := feature.Geometry(); err == nil && !g.IsEmpty() {
		geomName = g.Type().String()
	}
	fmt.Fprintf(w, "%-15s\n", geomName)
}

// truncate 按字符截断，避免截断多字节字符
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}
