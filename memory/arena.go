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
	"slices"
	"unsafe"
)

// DefaultSlabItems is the slab size used when NewArena is given a non-positive size.
const DefaultSlabItems = 4096

type block struct {
	slab, off, size int
}

// Arena carves item buffers out of large slabs and reuses freed ranges with a
// first-fit free list. Adjacent free ranges of the same slab are coalesced.
// Slabs are never returned to the heap until Reset.
//
// Arena is not safe for concurrent use.
type Arena[T any] struct {
	slabItems int
	itemSize  int
	slabs     [][]T
	free      []block // ordered by (slab, off)
	used      map[*T]block
	retained  int
	inUse     int
	metrics   *Metrics
}

func NewArena[T any](slabItems int, metrics *Metrics) *Arena[T] {
	if slabItems <= 0 {
		slabItems = DefaultSlabItems
	}
	var zero T
	return &Arena[T]{
		slabItems: slabItems,
		itemSize:  int(unsafe.Sizeof(zero)),
		used:      make(map[*T]block),
		metrics:   metrics,
	}
}

// RetainedBytes is the size of all slabs.
func (a *Arena[T]) RetainedBytes() int {
	return a.retained * a.itemSize
}

// InUseBytes is the size of all buffers currently handed out.
func (a *Arena[T]) InUseBytes() int {
	return a.inUse * a.itemSize
}

// FreeBytes is the part of the slabs available for new buffers.
func (a *Arena[T]) FreeBytes() int {
	return (a.retained - a.inUse) * a.itemSize
}

// Allocate implements Allocator
func (a *Arena[T]) Allocate(n int) []T {
	if n <= 0 {
		return nil
	}
	for i, b := range a.free {
		if b.size < n {
			continue
		}
		if b.size == n {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i] = block{slab: b.slab, off: b.off + n, size: b.size - n}
		}
		a.metrics.allocated(false)
		return a.take(block{slab: b.slab, off: b.off, size: n})
	}

	size := max(a.slabItems, n)
	a.slabs = append(a.slabs, make([]T, size))
	a.retained += size
	slab := len(a.slabs) - 1
	if size > n {
		a.free = append(a.free, block{slab: slab, off: n, size: size - n})
	}
	a.metrics.allocated(true)
	return a.take(block{slab: slab, off: 0, size: n})
}

// Resize implements Allocator. Buffers shrink in place and grow in place when
// the range right behind them is free.
func (a *Arena[T]) Resize(buf []T, n int) []T {
	keep := min(len(buf), n)
	b, ok := a.lookup(buf)
	if !ok {
		out := append(a.Allocate(n), buf[:keep]...)
		return out
	}
	switch {
	case n == b.size:
		return buf[:keep]
	case n <= 0:
		a.Deallocate(buf)
		return nil
	case n < b.size:
		a.release(block{slab: b.slab, off: b.off + n, size: b.size - n})
		b.size = n
		a.used[unsafe.SliceData(buf)] = b
		return a.slabs[b.slab][b.off : b.off+keep : b.off+n]
	}

	grow := n - b.size
	if i, found := a.freeAt(b.slab, b.off+b.size); found && a.free[i].size >= grow {
		next := a.free[i]
		if next.size == grow {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i] = block{slab: next.slab, off: next.off + grow, size: next.size - grow}
		}
		b.size = n
		a.used[unsafe.SliceData(buf)] = b
		a.inUse += grow
		a.metrics.observe(a.RetainedBytes(), a.InUseBytes())
		return a.slabs[b.slab][b.off : b.off+keep : b.off+n]
	}

	out := append(a.Allocate(n), buf[:keep]...)
	a.Deallocate(buf)
	return out
}

// Deallocate implements Allocator. Buffers not handed out by this arena are ignored.
func (a *Arena[T]) Deallocate(buf []T) {
	b, ok := a.lookup(buf)
	if !ok {
		return
	}
	delete(a.used, unsafe.SliceData(buf))
	a.release(b)
}

// Reset drops every slab. Buffers handed out earlier must not be used afterwards.
func (a *Arena[T]) Reset() {
	a.slabs = nil
	a.free = nil
	a.used = make(map[*T]block)
	a.retained = 0
	a.inUse = 0
	a.metrics.observe(0, 0)
}

func (a *Arena[T]) take(b block) []T {
	buf := a.slabs[b.slab][b.off : b.off : b.off+b.size]
	a.used[unsafe.SliceData(buf)] = b
	a.inUse += b.size
	a.metrics.observe(a.RetainedBytes(), a.InUseBytes())
	return buf
}

func (a *Arena[T]) lookup(buf []T) (block, bool) {
	if cap(buf) == 0 {
		return block{}, false
	}
	b, ok := a.used[unsafe.SliceData(buf)]
	return b, ok
}

// release puts b on the free list, merging it with free neighbours.
func (a *Arena[T]) release(b block) {
	clear(a.slabs[b.slab][b.off : b.off+b.size])
	a.inUse -= b.size

	i, _ := slices.BinarySearchFunc(a.free, b, compareBlocks)
	a.free = slices.Insert(a.free, i, b)
	if i+1 < len(a.free) && adjacent(a.free[i], a.free[i+1]) {
		a.free[i].size += a.free[i+1].size
		a.free = slices.Delete(a.free, i+1, i+2)
	}
	if i > 0 && adjacent(a.free[i-1], a.free[i]) {
		a.free[i-1].size += a.free[i].size
		a.free = slices.Delete(a.free, i, i+1)
	}
	a.metrics.observe(a.RetainedBytes(), a.InUseBytes())
}

func (a *Arena[T]) freeAt(slab, off int) (int, bool) {
	return slices.BinarySearchFunc(a.free, block{slab: slab, off: off}, compareBlocks)
}

func compareBlocks(x, y block) int {
	if x.slab != y.slab {
		return x.slab - y.slab
	}
	return x.off - y.off
}

func adjacent(x, y block) bool {
	return x.slab == y.slab && x.off+x.size == y.off
}
