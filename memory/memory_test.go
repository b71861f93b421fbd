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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocator(t *testing.T) {
	var a HeapAllocator[int64]
	buf := a.Allocate(4)
	assert.Len(t, buf, 0)
	assert.Equal(t, 4, cap(buf))
	assert.Nil(t, a.Allocate(0))

	buf = append(buf, 1, 2, 3)
	grown := a.Resize(buf, 16)
	assert.Equal(t, []int64{1, 2, 3}, grown)
	assert.Equal(t, 16, cap(grown))

	shrunk := a.Resize(grown, 2)
	assert.Equal(t, []int64{1, 2}, shrunk)
	assert.Equal(t, 2, cap(shrunk))
	a.Deallocate(shrunk)
}

func TestArenaAllocateAndReuse(t *testing.T) {
	a := NewArena[int64](64, nil)
	assert.Equal(t, 0, a.RetainedBytes())

	x := a.Allocate(16)
	y := a.Allocate(16)
	assert.Equal(t, 64*8, a.RetainedBytes())
	assert.Equal(t, 32*8, a.InUseBytes())
	assert.Equal(t, 32*8, a.FreeBytes())
	assert.Len(t, x, 0)
	assert.Equal(t, 16, cap(x))

	x = append(x, 1, 2, 3)
	y = append(y, 4)
	assert.Equal(t, []int64{4}, y)

	a.Deallocate(x)
	assert.Equal(t, 16*8, a.InUseBytes())

	// the freed range is reused first-fit and comes back zeroed
	z := a.Allocate(8)
	assert.Equal(t, []int64{0, 0, 0}, z[:3])
	assert.Equal(t, 64*8, a.RetainedBytes())

	a.Deallocate(y)
	a.Deallocate(z)
	assert.Equal(t, 0, a.InUseBytes())
	assert.Equal(t, 64*8, a.FreeBytes())

	// everything coalesced back into one range
	w := a.Allocate(64)
	assert.Equal(t, 64, cap(w))
	assert.Equal(t, 64*8, a.RetainedBytes())
}

func TestArenaLargeRequestGetsOwnSlab(t *testing.T) {
	a := NewArena[int32](16, nil)
	buf := a.Allocate(100)
	assert.Equal(t, 100, cap(buf))
	assert.Equal(t, 100*4, a.RetainedBytes())
	assert.Equal(t, 0, a.FreeBytes())
}

func TestArenaResize(t *testing.T) {
	a := NewArena[int64](32, nil)
	buf := append(a.Allocate(4), 1, 2, 3, 4)

	// grows in place into the free tail of the slab
	grown := a.Resize(buf, 8)
	assert.Equal(t, []int64{1, 2, 3, 4}, grown)
	assert.Equal(t, 8, cap(grown))
	assert.Equal(t, 8*8, a.InUseBytes())
	assert.Equal(t, 32*8, a.RetainedBytes())

	blocker := a.Allocate(4)

	// no room right behind it, so it moves
	moved := a.Resize(grown, 12)
	assert.Equal(t, []int64{1, 2, 3, 4}, moved)
	assert.Equal(t, 12, cap(moved))
	assert.Equal(t, 16*8, a.InUseBytes())

	shrunk := a.Resize(moved, 2)
	assert.Equal(t, []int64{1, 2}, shrunk)
	assert.Equal(t, 2, cap(shrunk))
	assert.Equal(t, 6*8, a.InUseBytes())

	a.Deallocate(blocker)
	a.Deallocate(shrunk)
	assert.Equal(t, 0, a.InUseBytes())
	assert.Nil(t, a.Resize(nil, 0))
}

func TestArenaIgnoresForeignBuffers(t *testing.T) {
	a := NewArena[int64](32, nil)
	a.Deallocate(make([]int64, 3))
	assert.Equal(t, 0, a.InUseBytes())

	out := a.Resize([]int64{7, 8}, 4)
	assert.Equal(t, []int64{7, 8}, out)
	assert.Equal(t, 4*8, a.InUseBytes())
}

func TestArenaMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "kll")
	a := NewArena[int64](128, m)

	buf := a.Allocate(10)
	_ = a.Allocate(10)
	assert.Equal(t, float64(128*8), testutil.ToFloat64(m.retainedBytes))
	assert.Equal(t, float64(20*8), testutil.ToFloat64(m.inUseBytes))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.allocations))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.slabs))

	a.Deallocate(buf)
	assert.Equal(t, float64(10*8), testutil.ToFloat64(m.inUseBytes))

	a.Reset()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.retainedBytes))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPoolAllocator(t *testing.T) {
	p := NewPoolAllocator[float64](8, 1024, 2)
	buf := p.Allocate(5)
	assert.Len(t, buf, 0)
	assert.GreaterOrEqual(t, cap(buf), 5)

	buf = append(buf, 1, 2, 3, 4, 5)
	grown := p.Resize(buf, 100)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, grown)
	assert.GreaterOrEqual(t, cap(grown), 100)

	kept := p.Resize(grown, 90)
	assert.Equal(t, cap(grown), cap(kept))

	shrunk := p.Resize(kept, 3)
	assert.Equal(t, []float64{1, 2, 3}, shrunk)
	assert.GreaterOrEqual(t, cap(shrunk), 3)

	p.Deallocate(shrunk)
	big := p.Allocate(5000)
	assert.GreaterOrEqual(t, cap(big), 5000)
	p.Deallocate(big)
	assert.Nil(t, p.Allocate(0))
}

func TestAllocatorsSatisfyInterface(t *testing.T) {
	allocators := []Allocator[string]{
		HeapAllocator[string]{},
		NewArena[string](0, nil),
		NewPoolAllocator[string](4, 64, 2),
	}
	for _, a := range allocators {
		buf := append(a.Allocate(2), "a", "b")
		buf = a.Resize(buf, 10)
		buf = append(buf, "c")
		assert.Equal(t, []string{"a", "b", "c"}, buf)
		a.Deallocate(buf)
	}
}
