/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package memory

import (
	"github.com/prometheus/prometheus/util/pool"
)

// PoolAllocator recycles buffers through size-bucketed sync.Pools.
type PoolAllocator[T any] struct {
	pool *pool.Pool
}

// NewPoolAllocator buckets buffers from minSize to maxSize items, each bucket
// factor times larger than the previous one. Requests above maxSize bypass the pool.
func NewPoolAllocator[T any](minSize, maxSize int, factor float64) *PoolAllocator[T] {
	return &PoolAllocator[T]{
		pool: pool.New(
			minSize, maxSize, factor,
			func(size int) interface{} {
				return make([]T, 0, size)
			}),
	}
}

// Allocate implements Allocator
func (p *PoolAllocator[T]) Allocate(n int) []T {
	if n <= 0 {
		return nil
	}
	buf := p.pool.Get(n).([]T)
	if cap(buf) < n {
		// a foreign buffer landed in a larger bucket
		return make([]T, 0, n)
	}
	return buf[:0]
}

// Resize implements Allocator
func (p *PoolAllocator[T]) Resize(buf []T, n int) []T {
	keep := min(len(buf), n)
	if cap(buf) >= n && cap(buf) <= 2*max(n, 1) {
		return buf[:keep]
	}
	out := append(p.Allocate(n), buf[:keep]...)
	p.Deallocate(buf)
	return out
}

// Deallocate implements Allocator
func (p *PoolAllocator[T]) Deallocate(buf []T) {
	if cap(buf) == 0 {
		return
	}
	clear(buf[:cap(buf)])
	p.pool.Put(buf[:0])
}
