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
	"sync"
	"sync/atomic"
)

// WorkerPool 限制同时进行的原生调用数量
type WorkerPool struct {
	semaphore chan struct{}
	size      int
	inUse     atomic.Int32
	peak      atomic.Int32
}

var (
	workerPool     *WorkerPool
	workerPoolOnce sync.Once
)

// GetWorkerPool 获取全局工作池（单例），大小取自配置的worker_pool_size
func GetWorkerPool() *WorkerPool {
	workerPoolOnce.Do(func() {
		workerPool = NewWorkerPool(currentConfig().WorkerPoolSize)
	})
	return workerPool
}

// NewWorkerPool 创建工作池，size<=0时按CPU核心数*2计算，范围4~16
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU() * 2
		if size < 4 {
			size = 4
		}
		if size > 16 {
			size = 16
		}
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, size),
		size:      size,
	}
}

// Size 工作槽数量
func (p *WorkerPool) Size() int {
	return p.size
}

// Peak 同时占用工作槽数量的历史最大值
func (p *WorkerPool) Peak() int {
	return int(p.peak.Load())
}

// Acquire 获取工作槽
func (p *WorkerPool) Acquire() {
	p.semaphore <- struct{}{}
	n := p.inUse.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

// Release 释放工作槽
func (p *WorkerPool) Release() {
	p.inUse.Add(-1)
	<-p.semaphore
}

// Execute 在工作池中执行一次原生调用
func (p *WorkerPool) Execute(fn func() ([]byte, error)) ([]byte, error) {
	p.Acquire()
	defer p.Release()
	return fn()
}
