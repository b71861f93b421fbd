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
	"fmt"
)

// Merge folds the other sketches into s. All operands are unioned level by
// level before a single compaction pass. Nil and empty operands are skipped,
// other sketches are left untouched, and finalized operands are merged from
// their levels, not their views. s may appear among others.
func (s *Sketch[T]) Merge(others ...*Sketch[T]) {
	merged := false
	for _, other := range others {
		if other == nil || other.IsEmpty() {
			continue
		}
		levels := other.levels
		if other == s {
			levels = cloneLevels(s.levels)
		}
		s.mergeLevels(levels, other.n, other.minItem, other.maxItem, other.minK)
		merged = true
	}
	if merged {
		s.generalCompress()
		s.view = nil
	}
}

// MergeDeserialized merges a serialized sketch into s without building a
// second Sketch. The result is the same as Merge(Deserialize(buf)).
func (s *Sketch[T]) MergeDeserialized(buf []byte) error {
	if s.serde == nil {
		return fmt.Errorf("%w: no SerDe for %T items", ErrConfig, *new(T))
	}
	d, err := decode(buf, s.serde, s.typeCode)
	if err != nil {
		return err
	}
	if d.n == 0 {
		return nil
	}
	s.mergeLevels(d.levels, d.n, d.minItem, d.maxItem, d.minK)
	s.generalCompress()
	s.view = nil
	return nil
}

// mergeLevels unions the levels of another sketch into s. Level 0 items are
// appended; sorted levels above it are merged.
func (s *Sketch[T]) mergeLevels(levels [][]T, n uint64, minItem, maxItem T, minK uint32) {
	if s.IsEmpty() {
		s.minItem, s.maxItem = minItem, maxItem
	} else {
		s.minItem = min(s.minItem, minItem)
		s.maxItem = max(s.maxItem, maxItem)
	}
	for len(s.levels) < len(levels) {
		s.levels = append(s.levels, nil)
	}
	s.appendToLevel(0, levels[0])
	for level := 1; level < len(levels); level++ {
		s.mergeIntoLevel(level, levels[level])
	}
	if len(levels) > 1 {
		// otherwise the merge brings over exact items
		s.minK = min(s.minK, minK)
	}
	s.n += n
}
