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

type SortedViewIterator[T any] struct {
	quantiles  []T
	cumWeights []uint64
	totalN     uint64
	index      int
}

func newSortedViewIterator[T any](quantiles []T, cumWeights []uint64, totalN uint64) *SortedViewIterator[T] {
	return &SortedViewIterator[T]{
		quantiles:  quantiles,
		cumWeights: cumWeights,
		totalN:     totalN,
		index:      -1,
	}
}

func (i *SortedViewIterator[T]) Next() bool {
	i.index++
	return i.index < len(i.cumWeights)
}

func (i *SortedViewIterator[T]) Item() T {
	return i.quantiles[i.index]
}

func (i *SortedViewIterator[T]) Weight() uint64 {
	if i.index == 0 {
		return i.cumWeights[0]
	}
	return i.cumWeights[i.index] - i.cumWeights[i.index-1]
}

// NaturalRank is the total weight of the items before the current one, plus
// its own weight when inclusive.
func (i *SortedViewIterator[T]) NaturalRank(inclusive bool) uint64 {
	if inclusive {
		return i.cumWeights[i.index]
	}
	if i.index == 0 {
		return 0
	}
	return i.cumWeights[i.index-1]
}

func (i *SortedViewIterator[T]) NormalizedRank(inclusive bool) float64 {
	return float64(i.NaturalRank(inclusive)) / float64(i.totalN)
}
