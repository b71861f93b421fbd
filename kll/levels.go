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

package kll

import (
	"golang.org/x/exp/constraints"

	"github.com/sketchlab/kllsketch/internal"
)

// initialLevelZeroCapacity is the size of the first level 0 buffer.
const initialLevelZeroCapacity = 4

func (s *Sketch[T]) addEmptyTopLevel() {
	s.levels = append(s.levels, nil)
	s.capacity = TotalCapacity(s.k, len(s.levels))
}

// appendToLevelZero adds item to level 0, growing the buffer to the next power
// of two but never past the room left before the next compaction.
func (s *Sketch[T]) appendToLevelZero(item T) {
	level0 := s.levels[0]
	if len(level0) == cap(level0) {
		room := len(level0) + s.capacity - s.retained
		newCap := min(max(internal.CeilPowerOf2(len(level0)+1), initialLevelZeroCapacity), room)
		level0 = s.alloc.Resize(level0, max(newCap, len(level0)+1))
	}
	s.levels[0] = append(level0, item)
	s.retained++
}

// appendToLevel copies items behind the current content of the given level.
func (s *Sketch[T]) appendToLevel(level int, items []T) {
	if len(items) == 0 {
		return
	}
	buf := s.levels[level]
	if need := len(buf) + len(items); need > cap(buf) {
		buf = s.alloc.Resize(buf, need)
	}
	s.levels[level] = append(buf, items...)
	s.retained += len(items)
}

// mergeIntoLevel merges the sorted items into the sorted level. The level is
// reallocated at its exact new size.
func (s *Sketch[T]) mergeIntoLevel(level int, items []T) {
	if len(items) == 0 {
		return
	}
	old := s.levels[level]
	merged := mergeSortedItems(s.alloc.Allocate(len(old)+len(items)), old, items)
	s.alloc.Deallocate(old)
	s.levels[level] = merged
	s.retained += len(items)
}

// truncateLevel keeps the first keep items of the given level and gives the
// rest of its storage back. Level 0 keeps up to its nominal capacity since it
// is refilled right away.
func (s *Sketch[T]) truncateLevel(level int, keep int) {
	buf := s.levels[level][:keep]
	switch {
	case level == 0:
		if nominal := max(keep, LevelCapacity(s.k, len(s.levels), 0)); cap(buf) > nominal {
			buf = s.alloc.Resize(buf, nominal)
		}
	case keep == 0:
		s.alloc.Deallocate(buf)
		buf = nil
	default:
		buf = s.alloc.Resize(buf, keep)
	}
	s.levels[level] = buf
}

func (s *Sketch[T]) releaseLevels() {
	for i := range s.levels {
		s.alloc.Deallocate(s.levels[i])
		s.levels[i] = nil
	}
	s.levels = nil
	s.retained = 0
	s.capacity = 0
}

// mergeSortedItems appends the merge of the sorted slices a and b to dst.
func mergeSortedItems[T constraints.Ordered](dst []T, a []T, b []T) []T {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j] < a[i] {
			dst = append(dst, b[j])
			j++
		} else {
			dst = append(dst, a[i])
			i++
		}
	}
	dst = append(dst, a[i:]...)
	return append(dst, b[j:]...)
}

func cloneLevels[T constraints.Ordered](levels [][]T) [][]T {
	out := make([][]T, len(levels))
	for i, items := range levels {
		out[i] = append([]T(nil), items...)
	}
	return out
}
