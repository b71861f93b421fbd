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

// Package kll is an implementation of a very compact quantiles sketch with lazy compaction scheme
// and nearly optimal accuracy per retained quantile.
//
// Reference: https://arxiv.org/abs/1603.05346v2 Optimal Quantile Approximation in Streams
//
// The default k of 200 yields a "single-sided" epsilon of about 1.33% and a
// "double-sided" (PMF) epsilon of about 1.65%, with a confidence of 99%.
//
// A Sketch is not safe for concurrent use. The usual pattern is one sketch per
// worker followed by a single Merge of all of them.
package kll

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"golang.org/x/exp/constraints"

	"github.com/sketchlab/kllsketch/common"
	"github.com/sketchlab/kllsketch/internal"
	"github.com/sketchlab/kllsketch/memory"
)

var (
	ErrConfig       = errors.New("invalid configuration")
	ErrInvalidState = errors.New("invalid sketch state")
	ErrEmpty        = fmt.Errorf("%w: operation is undefined for an empty sketch", ErrInvalidState)
	ErrFormat       = errors.New("malformed serialized sketch")
)

// pcgStream is the fixed PCG increment; the seed alone selects the sequence.
const pcgStream = 0xda3e39cb94b95bdb

// Sketch is a KLL quantiles sketch over ordered items.
//
// Level i holds items of weight 2^i. Level 0 is unsorted, every level above
// it is kept sorted. NaN values are never stored.
type Sketch[T constraints.Ordered] struct {
	// k controls the accuracy of the sketch and its memory space usage.
	k uint32
	// minK is the smallest k among the sketches merged into this one.
	minK     uint32
	n        uint64
	levels   [][]T
	retained int
	// capacity is TotalCapacity(k, len(levels)).
	capacity int
	minItem  T
	maxItem  T

	rng      *rand.Rand
	alloc    memory.Allocator[T]
	serde    common.ItemSketchSerde[T]
	typeCode uint8

	// view is nil whenever the levels changed since it was built.
	view *SortedView[T]
}

// NewSketch creates an empty sketch of width k.
// Larger k has smaller error but the sketch will be larger (and slower).
func NewSketch[T constraints.Ordered](k uint32, opts ...Option) (*Sketch[T], error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Sketch[T]{
		k:    k,
		minK: k,
	}
	if o.allocator == nil {
		s.alloc = memory.HeapAllocator[T]{}
	} else {
		a, ok := o.allocator.(memory.Allocator[T])
		if !ok {
			return nil, fmt.Errorf("%w: allocator %T does not hold %T items", ErrConfig, o.allocator, *new(T))
		}
		s.alloc = a
	}
	serde, typeCode, err := itemSerDe[T](&o)
	if err != nil {
		return nil, err
	}
	s.serde, s.typeCode = serde, typeCode
	seed := o.seed
	if !o.seeded {
		seed = secureRandomSeed()
	}
	s.rng = rand.New(rand.NewPCG(seed, pcgStream))
	return s, nil
}

// NewSketchWithDefault creates an empty sketch with DefaultK.
func NewSketchWithDefault[T constraints.Ordered](opts ...Option) (*Sketch[T], error) {
	return NewSketch[T](DefaultK, opts...)
}

// FromRepeatedValue builds a sketch equivalent to inserting value count times
// without doing count insertions: one item of weight 2^i is placed for every
// set bit i of count.
func FromRepeatedValue[T constraints.Ordered](value T, count uint64, k uint32, opts ...Option) (*Sketch[T], error) {
	if value != value {
		return nil, fmt.Errorf("%w: NaN cannot be inserted", ErrConfig)
	}
	s, err := NewSketch[T](k, opts...)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return s, nil
	}
	s.levels = make([][]T, internal.FloorLog2(count)+1)
	for level := range s.levels {
		if count>>level&1 == 1 {
			s.levels[level] = append(s.alloc.Allocate(1), value)
			s.retained++
		}
	}
	s.capacity = TotalCapacity(s.k, len(s.levels))
	s.n = count
	s.minItem, s.maxItem = value, value
	return s, nil
}

// Insert adds one item of weight 1. NaN values are ignored.
func (s *Sketch[T]) Insert(item T) {
	if item != item {
		return
	}
	if s.n == 0 {
		s.minItem, s.maxItem = item, item
	} else {
		s.minItem = min(s.minItem, item)
		s.maxItem = max(s.maxItem, item)
	}
	if len(s.levels) == 0 {
		s.addEmptyTopLevel()
	}
	for s.retained >= s.capacity {
		s.compressWhileUpdating()
	}
	s.appendToLevelZero(item)
	s.n++
	s.view = nil
}

// K returns the width the sketch was created with.
func (s *Sketch[T]) K() uint32 {
	return s.k
}

// TotalCount returns the number of items the sketch represents, n.
func (s *Sketch[T]) TotalCount() uint64 {
	return s.n
}

func (s *Sketch[T]) IsEmpty() bool {
	return s.n == 0
}

// NumRetained returns the number of items physically stored.
func (s *Sketch[T]) NumRetained() int {
	return s.retained
}

// IsEstimationMode reports whether compaction has discarded any information.
func (s *Sketch[T]) IsEstimationMode() bool {
	return len(s.levels) > 1
}

func (s *Sketch[T]) MinValue() (T, error) {
	if s.IsEmpty() {
		var zero T
		return zero, ErrEmpty
	}
	return s.minItem, nil
}

func (s *Sketch[T]) MaxValue() (T, error) {
	if s.IsEmpty() {
		var zero T
		return zero, ErrEmpty
	}
	return s.maxItem, nil
}

// NormalizedRankError returns the rank error bound of this sketch, which is
// governed by the smallest k merged into it.
func (s *Sketch[T]) NormalizedRankError(pmf bool) float64 {
	return NormalizedRankError(s.minK, pmf)
}

// Finish builds the sorted view that answers queries. Calling it again on an
// unmodified sketch does nothing. Inserting or merging after Finish is
// allowed: the view is dropped and rebuilt by the next query.
func (s *Sketch[T]) Finish() {
	if s.IsEmpty() || s.view != nil {
		return
	}
	s.view = newSortedView(s)
}

// SortedView returns the finalized view, building it if needed.
func (s *Sketch[T]) SortedView() (*SortedView[T], error) {
	if s.IsEmpty() {
		return nil, ErrEmpty
	}
	s.Finish()
	return s.view, nil
}

// EstimateQuantile returns the item at normalized rank q. q = 0 and q = 1
// return the exact minimum and maximum.
func (s *Sketch[T]) EstimateQuantile(q float64) (T, error) {
	view, err := s.SortedView()
	if err != nil {
		var zero T
		return zero, err
	}
	return view.Quantile(q)
}

// EstimateQuantiles answers several quantile queries at once. When qs is
// ascending the view is walked once and the result is non-decreasing.
func (s *Sketch[T]) EstimateQuantiles(qs []float64) ([]T, error) {
	view, err := s.SortedView()
	if err != nil {
		return nil, err
	}
	return view.Quantiles(qs)
}

// Rank returns the normalized rank of item: the estimated fraction of items
// less than item, or less than or equal to it when inclusive.
func (s *Sketch[T]) Rank(item T, inclusive bool) (float64, error) {
	view, err := s.SortedView()
	if err != nil {
		return 0, err
	}
	return view.Rank(item, inclusive)
}

// CDF returns the normalized ranks of the split points followed by 1.
func (s *Sketch[T]) CDF(splitPoints []T, inclusive bool) ([]float64, error) {
	view, err := s.SortedView()
	if err != nil {
		return nil, err
	}
	return view.CDF(splitPoints, inclusive)
}

// PMF returns the estimated fraction of items in each interval delimited by the split points.
func (s *Sketch[T]) PMF(splitPoints []T, inclusive bool) ([]float64, error) {
	view, err := s.SortedView()
	if err != nil {
		return nil, err
	}
	return view.PMF(splitPoints, inclusive)
}

// Iterator walks the retained items level by level with their weights.
// The sketch must not be modified while iterating.
func (s *Sketch[T]) Iterator() *Iterator[T] {
	return newIterator(s.levels)
}

// Reset empties the sketch and returns its storage to the allocator.
// The generator keeps its state.
func (s *Sketch[T]) Reset() {
	s.Release()
	var zero T
	s.minItem, s.maxItem = zero, zero
}

// Release returns every level buffer to the allocator, leaving an empty sketch.
func (s *Sketch[T]) Release() {
	s.releaseLevels()
	s.n = 0
	s.minK = s.k
	s.view = nil
}
