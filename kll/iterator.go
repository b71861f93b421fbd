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

// Iterator walks the retained items of a sketch with their weights, level by level.
type Iterator[T any] struct {
	levels        [][]T
	level         int
	index         int
	isInitialized bool
}

func newIterator[T any](levels [][]T) *Iterator[T] {
	return &Iterator[T]{
		levels: levels,
	}
}

func (it *Iterator[T]) Next() bool {
	if !it.isInitialized {
		it.isInitialized = true
	} else {
		it.index++
	}
	// go to next non-empty level
	for it.level < len(it.levels) && it.index >= len(it.levels[it.level]) {
		it.level++
		it.index = 0
	}
	return it.level < len(it.levels)
}

// Item returns the item at the current position.
//
// Don't call this before calling Next() for the first time
// or after getting false from Next().
func (it *Iterator[T]) Item() T {
	return it.levels[it.level][it.index]
}

// Weight is the number of inserted items the current item stands for.
func (it *Iterator[T]) Weight() uint64 {
	return uint64(1) << it.level
}
