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
	"encoding/xml"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Config 配置文件结构，默认位于 <UserConfigDir>/Govector/config.xml
type Config struct {
	XMLName         xml.Name `xml:"config"`
	WorkerPoolSize  int      `xml:"worker_pool_size"`
	ExportBatchSize int      `xml:"export_batch_size"`
	Verbose         bool     `xml:"verbose"`
}

const (
	defaultExportBatchSize = 500
	configDirName          = "Govector"
	configFileName         = "config.xml"
)

var (
	configMu   sync.RWMutex
	MainConfig = DefaultConfig()
)

// DefaultConfig 默认配置，WorkerPoolSize为0表示按CPU核心数计算
func DefaultConfig() Config {
	return Config{
		ExportBatchSize: defaultExportBatchSize,
	}
}

// LoadConfig 读取XML配置文件，未填写的项使用默认值
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	xmlFile, err := os.Open(path)
	if err != nil {
		return cfg, wrapErr("打开配置文件失败", err)
	}
	defer xmlFile.Close()

	if err := xml.NewDecoder(xmlFile).Decode(&cfg); err != nil {
		return DefaultConfig(), wrapErr("解析配置文件 %s 失败", err, path)
	}
	if cfg.WorkerPoolSize < 0 {
		return DefaultConfig(), fmtErr("worker_pool_size不能为负数: %d", cfg.WorkerPoolSize)
	}
	if cfg.ExportBatchSize <= 0 {
		cfg.ExportBatchSize = defaultExportBatchSize
	}
	return cfg, nil
}

// LoadUserConfig 读取用户配置目录下的配置文件，文件不存在时返回默认配置
func LoadUserConfig() (Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfig(), wrapErr("无法获取用户配置目录", err)
	}
	cfg, err := LoadConfig(filepath.Join(configDir, configDirName, configFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// SetConfig 设置全局配置
func SetConfig(cfg Config) {
	configMu.Lock()
	defer configMu.Unlock()
	MainConfig = cfg
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return MainConfig
}
