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
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	exportFIDColumn  = "fid"
	exportWKTColumn  = "geom_wkt"
	exportJSONColumn = "geom_json"
	exportTaskColumn = "task_id"
)

// ExportOptions 导出参数
type ExportOptions struct {
	// BatchSize 每个事务插入的行数，<=0时使用配置中的export_batch_size
	BatchSize int
	// Pool 几何序列化使用的工作池，nil时使用全局工作池
	Pool *WorkerPool
}

// ExportResult 导出结果
type ExportResult struct {
	TaskID        string
	Table         string
	Rows          int
	SkippedFields []string
}

// exportColumn 字段到数据库列的映射
type exportColumn struct {
	Field  string
	Column string
	DBType string
}

// ExportLayer 将图层的要素导出到数据库表。
// 文本字段映射为TEXT，浮点字段映射为DOUBLE PRECISION，其它类型的字段跳过；
// 几何分别以WKT和GeoJSON存入geom_wkt、geom_json两列。
func ExportLayer(db *gorm.DB, layer *Layer, tableName string, opts *ExportOptions) (*ExportResult, error) {
	if db == nil {
		return nil, textErr("数据库连接为空")
	}
	if layer == nil {
		return nil, textErr("图层为空")
	}
	if layer.IsClosed() {
		return nil, ErrLayerClosed
	}
	if tableName == "" {
		return nil, textErr("表名为空")
	}

	batchSize := currentConfig().ExportBatchSize
	pool := (*WorkerPool)(nil)
	if opts != nil {
		if opts.BatchSize > 0 {
			batchSize = opts.BatchSize
		}
		pool = opts.Pool
	}
	if batchSize <= 0 {
		batchSize = defaultExportBatchSize
	}
	if pool == nil {
		pool = GetWorkerPool()
	}

	result := &ExportResult{
		TaskID: uuid.New().String(),
		Table:  tableName,
	}

	columns, skipped := analyzeLayerColumns(layer)
	result.SkippedFields = skipped
	for _, name := range skipped {
		logf("[%s] 字段 %s 类型不支持导出，已跳过", result.TaskID, name)
	}

	if err := db.Exec(createTableSQL(tableName, columns)).Error; err != nil {
		return nil, wrapErr("创建表 %s 失败", err, tableName)
	}

	insertSQL := insertRowSQL(tableName, columns)
	// 批内要素保持打开，直到几何序列化完成
	pending := make([]*Feature, 0, batchSize)
	closePending := func() {
		for _, feature := range pending {
			feature.Close()
		}
		pending = pending[:0]
	}
	defer closePending()

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		rows, err := buildRows(pending, columns, pool, result.TaskID)
		closePending()
		if err != nil {
			return err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			for _, row := range rows {
				if err := tx.Exec(insertSQL, row...).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return wrapErr("插入数据失败", err)
		}
		result.Rows += len(rows)
		debugf("[%s] 已写入 %d 行到 %s", result.TaskID, result.Rows, tableName)
		return nil
	}

	if err := layer.ResetReading(); err != nil {
		return result, err
	}
	for {
		feature, err := layer.NextFeature()
		if err != nil {
			return result, err
		}
		if feature == nil {
			break
		}
		pending = append(pending, feature)
		if len(pending) >= batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	logf("[%s] 成功将图层 %s 的 %d 个要素保存到表: %s", result.TaskID, layer.Name(), result.Rows, tableName)
	return result, nil
}

// analyzeLayerColumns 分析图层字段，返回可导出的列和被跳过的字段名
func analyzeLayerColumns(layer *Layer) ([]exportColumn, []string) {
	reserved := map[string]bool{
		exportFIDColumn:  true,
		exportWKTColumn:  true,
		exportJSONColumn: true,
		exportTaskColumn: true,
	}
	var columns []exportColumn
	var skipped []string
	for _, defn := range layer.FieldDefns() {
		var dbType string
		switch defn.Type {
		case FieldString:
			dbType = "TEXT"
		case FieldReal:
			dbType = "DOUBLE PRECISION"
		default:
			skipped = append(skipped, defn.Name)
			continue
		}
		column := strings.ToLower(defn.Name)
		for reserved[column] {
			column = "attr_" + column
		}
		reserved[column] = true
		columns = append(columns, exportColumn{Field: defn.Name, Column: column, DBType: dbType})
	}
	return columns, skipped
}

// buildRows 读取一批要素的属性，并在工作池中并发序列化几何。
// 每个要素只由一个goroutine访问，返回的行与要素顺序一致。
func buildRows(features []*Feature, columns []exportColumn, pool *WorkerPool, taskID string) ([][]interface{}, error) {
	rows := make([][]interface{}, len(features))
	for i, feature := range features {
		row, err := featureAttributes(feature, columns)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}

	errs := make([]error, len(features))
	var wg sync.WaitGroup
	for i, feature := range features {
		wg.Add(1)
		go func(i int, feature *Feature) {
			defer wg.Done()
			wktText, jsonText, err := featureGeometry(feature, pool)
			if err != nil {
				errs[i] = err
				return
			}
			rows[i] = append(rows[i], wktText, jsonText, taskID)
		}(i, feature)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// featureAttributes 读取fid和可导出字段，未设置的字段写入NULL
func featureAttributes(feature *Feature, columns []exportColumn) ([]interface{}, error) {
	row := make([]interface{}, 0, len(columns)+4)
	row = append(row, feature.FID())
	for _, col := range columns {
		if !feature.IsFieldSet(col.Field) {
			row = append(row, nil)
			continue
		}
		value, ok, err := feature.Field(col.Field)
		if err != nil {
			return nil, wrapErr("读取要素 %d 字段 %s 失败", err, feature.FID(), col.Field)
		}
		if !ok {
			row = append(row, nil)
			continue
		}
		row = append(row, value.Interface())
	}
	return row, nil
}

func featureGeometry(feature *Feature, pool *WorkerPool) (interface{}, interface{}, error) {
	wktText, err := serializeGeometry(pool, feature.WKT)
	if err != nil {
		return nil, nil, wrapErr("要素 %d 导出WKT失败", err, feature.FID())
	}
	jsonText, err := serializeGeometry(pool, feature.JSON)
	if err != nil {
		return nil, nil, wrapErr("要素 %d 导出GeoJSON失败", err, feature.FID())
	}
	return wktText, jsonText, nil
}

// serializeGeometry 在工作池中执行几何序列化，没有几何时返回nil
func serializeGeometry(pool *WorkerPool, serialize func() (string, error)) (interface{}, error) {
	data, err := pool.Execute(func() ([]byte, error) {
		text, err := serialize()
		return []byte(text), err
	})
	if errors.Is(err, ErrEmptyGeometry) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func createTableSQL(tableName string, columns []exportColumn) string {
	defs := []string{quoteIdent(exportFIDColumn) + " BIGINT"}
	for _, col := range columns {
		defs = append(defs, quoteIdent(col.Column)+" "+col.DBType)
	}
	defs = append(defs,
		quoteIdent(exportWKTColumn)+" TEXT",
		quoteIdent(exportJSONColumn)+" TEXT",
		quoteIdent(exportTaskColumn)+" TEXT",
	)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(tableName), strings.Join(defs, ", "))
}

func insertRowSQL(tableName string, columns []exportColumn) string {
	names := []string{quoteIdent(exportFIDColumn)}
	for _, col := range columns {
		names = append(names, quoteIdent(col.Column))
	}
	names = append(names, quoteIdent(exportWKTColumn), quoteIdent(exportJSONColumn), quoteIdent(exportTaskColumn))
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(tableName), strings.Join(names, ", "), marks)
}
