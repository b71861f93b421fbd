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
	"slices"
)

// compressWhileUpdating makes room for one more item in a full sketch by
// compacting the lowest level that reached its capacity.
func (s *Sketch[T]) compressWhileUpdating() {
	level := s.findLevelToCompact()
	if level == len(s.levels)-1 {
		// compacting the top level needs a level above it
		s.addEmptyTopLevel()
	}
	s.compactLevel(level)
}

func (s *Sketch[T]) findLevelToCompact() int {
	numLevels := len(s.levels)
	for level := 0; level < numLevels; level++ {
		if len(s.levels[level]) >= LevelCapacity(s.k, numLevels, level) {
			return level
		}
	}
	// unreachable while retained >= capacity
	return numLevels - 1
}

// generalCompress runs one bottom-up pass after a merge. A level is compacted
// when the sketch holds more than its total capacity and the level holds at
// least its own capacity. A sketch exactly at capacity is the state Insert
// leaves behind and is not touched. Compacting the top level adds a level,
// and with it the capacity of a new bottom-most depth.
func (s *Sketch[T]) generalCompress() {
	numLevels := len(s.levels)
	targetItemCount := TotalCapacity(s.k, numLevels)
	for level := 0; level < numLevels; level++ {
		if s.retained <= targetItemCount || len(s.levels[level]) < LevelCapacity(s.k, numLevels, level) {
			continue
		}
		if level == numLevels-1 {
			s.levels = append(s.levels, nil)
			numLevels++
			targetItemCount += LevelCapacity(s.k, numLevels, 0)
		}
		s.compactLevel(level)
	}
	s.capacity = TotalCapacity(s.k, numLevels)
}

// compactLevel halves the given level into the one above it, which must
// exist. With an odd population the first item stays behind so that the
// total weight is preserved exactly.
func (s *Sketch[T]) compactLevel(level int) {
	items := s.levels[level]
	rawPop := len(items)
	oddPop := rawPop % 2
	adj := items[oddPop:]
	if level == 0 {
		// level zero is not sorted, so we must sort it before compacting
		slices.Sort(adj)
	}

	survivors := randomlyHalve(adj, s.rng.IntN(2))
	s.mergeIntoLevel(level+1, survivors)
	s.retained -= len(adj)
	s.truncateLevel(level, oddPop)
	s.view = nil
}

// randomlyHalve keeps every other item of the sorted items starting at offset
// (0 or 1), packing the survivors at the front of items.
func randomlyHalve[T any](items []T, offset int) []T {
	halfLength := len(items) / 2
	j := offset
	for i := 0; i < halfLength; i++ {
		items[i] = items[j]
		j += 2
	}
	return items[:halfLength]
}
