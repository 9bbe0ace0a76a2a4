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
	"log"
	"os"
	"sync"
)

var (
	loggerMu sync.RWMutex
	logger   = log.New(os.Stderr, "[Govector] ", log.LstdFlags)
)

// SetLogger 替换包内日志输出，传nil时恢复默认
func SetLogger(l *log.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		l = log.New(os.Stderr, "[Govector] ", log.LstdFlags)
	}
	logger = l
}

func logf(format string, args ...interface{}) {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	l.Printf(format, args...)
}

// debugf 只在配置了verbose时输出
func debugf(format string, args ...interface{}) {
	if !currentConfig().Verbose {
		return
	}
	logf(format, args...)
}
