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
	"math"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/sketchlab/kllsketch/internal"
)

// SortedView is the finalized, read-only form of a sketch: its retained items
// in ascending order with cumulative weights.
type SortedView[T constraints.Ordered] struct {
	quantiles  []T
	cumWeights []uint64
	totalN     uint64
	minItem    T
	maxItem    T
}

func newSortedView[T constraints.Ordered](s *Sketch[T]) *SortedView[T] {
	quantiles, cumWeights := populateFromSketch(s.levels, s.retained)
	return &SortedView[T]{
		quantiles:  quantiles,
		cumWeights: cumWeights,
		totalN:     s.n,
		minItem:    s.minItem,
		maxItem:    s.maxItem,
	}
}

// TotalCount is the n of the sketch the view was built from.
func (v *SortedView[T]) TotalCount() uint64 {
	return v.totalN
}

// NumRetained is the number of entries in the view.
func (v *SortedView[T]) NumRetained() int {
	return len(v.quantiles)
}

// Quantile returns the first item whose cumulative weight exceeds q·n, or the
// last item if none does. q = 0 and q = 1 return the exact minimum and maximum.
func (v *SortedView[T]) Quantile(q float64) (T, error) {
	if err := checkNormalizedRankBounds(q); err != nil {
		var zero T
		return zero, err
	}
	return v.quantile(q), nil
}

// Quantiles answers every q in qs. Ascending qs are answered in a single walk
// of the view.
func (v *SortedView[T]) Quantiles(qs []float64) ([]T, error) {
	for _, q := range qs {
		if err := checkNormalizedRankBounds(q); err != nil {
			return nil, err
		}
	}
	out := make([]T, len(qs))
	if !slices.IsSorted(qs) {
		for i, q := range qs {
			out[i] = v.quantile(q)
		}
		return out, nil
	}

	last := len(v.cumWeights) - 1
	index := 0
	for i, q := range qs {
		switch q {
		case 0:
			out[i] = v.minItem
		case 1:
			out[i] = v.maxItem
		default:
			rank := v.naturalRank(q)
			for index < last && v.cumWeights[index] <= rank {
				index++
			}
			out[i] = v.quantiles[index]
		}
	}
	return out, nil
}

// Rank returns the fraction of the weight of items less than item, or less
// than or equal to item when inclusive.
func (v *SortedView[T]) Rank(item T, inclusive bool) (float64, error) {
	if item != item {
		return 0, fmt.Errorf("%w: rank of NaN is undefined", ErrConfig)
	}
	return v.rank(item, inclusive), nil
}

// CDF returns the ranks of the split points, which must be strictly
// increasing, followed by 1.
func (v *SortedView[T]) CDF(splitPoints []T, inclusive bool) ([]float64, error) {
	if err := checkItems(splitPoints); err != nil {
		return nil, err
	}
	buckets := make([]float64, len(splitPoints)+1)
	for i, splitPoint := range splitPoints {
		buckets[i] = v.rank(splitPoint, inclusive)
	}
	buckets[len(splitPoints)] = 1.0
	return buckets, nil
}

// PMF returns the weight fraction of each of the len(splitPoints)+1 intervals
// the split points delimit.
func (v *SortedView[T]) PMF(splitPoints []T, inclusive bool) ([]float64, error) {
	buckets, err := v.CDF(splitPoints, inclusive)
	if err != nil {
		return nil, err
	}
	for i := len(buckets) - 1; i > 0; i-- {
		buckets[i] -= buckets[i-1]
	}
	return buckets, nil
}

// Iterator walks the view in ascending order.
func (v *SortedView[T]) Iterator() *SortedViewIterator[T] {
	return newSortedViewIterator(v.quantiles, v.cumWeights, v.totalN)
}

func (v *SortedView[T]) quantile(q float64) T {
	switch q {
	case 0:
		return v.minItem
	case 1:
		return v.maxItem
	}
	length := len(v.cumWeights)
	index := internal.FindWithInequality(v.cumWeights, 0, length-1, v.naturalRank(q), internal.InequalityGT)
	if index == -1 {
		return v.quantiles[length-1]
	}
	return v.quantiles[index]
}

// naturalRank is floor(q·n); a cumulative weight exceeds q·n exactly when it exceeds this value.
func (v *SortedView[T]) naturalRank(q float64) uint64 {
	return uint64(math.Floor(q * float64(v.totalN)))
}

func (v *SortedView[T]) rank(item T, inclusive bool) float64 {
	crit := internal.InequalityLT
	if inclusive {
		crit = internal.InequalityLE
	}
	index := internal.FindWithInequality(v.quantiles, 0, len(v.quantiles)-1, item, crit)
	if index == -1 {
		return 0 // item is below every retained item
	}
	return float64(v.cumWeights[index]) / float64(v.totalN)
}

func checkNormalizedRankBounds(q float64) error {
	if !(q >= 0 && q <= 1) {
		return fmt.Errorf("%w: normalized rank must be between 0 and 1 inclusive, got %v", ErrConfig, q)
	}
	return nil
}

func checkItems[T constraints.Ordered](items []T) error {
	for i, item := range items {
		if item != item || (i > 0 && items[i-1] >= item) {
			return fmt.Errorf("%w: split points must be unique, monotonically increasing and not NaN", ErrConfig)
		}
	}
	return nil
}

// populateFromSketch flattens the levels, tags every item with its level
// weight and sorts the result.
func populateFromSketch[T constraints.Ordered](levels [][]T, numItems int) ([]T, []uint64) {
	quantiles := make([]T, 0, numItems)
	cumWeights := make([]uint64, 0, numItems)
	runs := make([]int, 1, len(levels)+1)
	for level, items := range levels {
		if len(items) == 0 {
			continue // skip empty level
		}
		start := len(quantiles)
		quantiles = append(quantiles, items...)
		if level == 0 {
			slices.Sort(quantiles[start:])
		}
		weight := uint64(1) << level
		for range items {
			cumWeights = append(cumWeights, weight)
		}
		runs = append(runs, len(quantiles))
	}
	blockyTandemMergeSort(quantiles, cumWeights, runs, len(runs)-1)
	convertToCumulative(cumWeights)
	return quantiles, cumWeights
}

// blockyTandemMergeSort sorts items and weights together, given numRuns
// sorted runs whose boundaries are listed in runs.
func blockyTandemMergeSort[T constraints.Ordered](quantiles []T, weights []uint64, runs []int, numRuns int) {
	if numRuns <= 1 {
		return
	}
	// duplicate the input in preparation for the "ping-pong" copy reduction strategy.
	quantilesTmp := slices.Clone(quantiles)
	weightsTmp := slices.Clone(weights)
	blockyTandemMergeSortRecursion(quantilesTmp, weightsTmp, quantiles, weights, runs, 0, numRuns)
}

func blockyTandemMergeSortRecursion[T constraints.Ordered](quantilesSrc []T, weightsSrc []uint64, quantilesDst []T, weightsDst []uint64, runs []int, startingRun int, numRuns int) {
	if numRuns == 1 {
		return
	}
	numRuns1 := numRuns / 2
	numRuns2 := numRuns - numRuns1
	startingRun1 := startingRun
	startingRun2 := startingRun + numRuns1
	// swap roles of src and dst
	blockyTandemMergeSortRecursion(quantilesDst, weightsDst, quantilesSrc, weightsSrc, runs, startingRun1, numRuns1)
	blockyTandemMergeSortRecursion(quantilesDst, weightsDst, quantilesSrc, weightsSrc, runs, startingRun2, numRuns2)
	tandemMerge(quantilesSrc, weightsSrc, quantilesDst, weightsDst, runs, startingRun1, numRuns1, startingRun2, numRuns2)
}

func tandemMerge[T constraints.Ordered](quantilesSrc []T, weightsSrc []uint64, quantilesDst []T, weightsDst []uint64, runs []int, startingRun1 int, numRuns1 int, startingRun2 int, numRuns2 int) {
	fromIndex1 := runs[startingRun1]
	toIndex1 := runs[startingRun1+numRuns1] // exclusive
	fromIndex2 := runs[startingRun2]
	toIndex2 := runs[startingRun2+numRuns2] // exclusive
	iSrc1 := fromIndex1
	iSrc2 := fromIndex2
	iDst := fromIndex1

	for iSrc1 < toIndex1 && iSrc2 < toIndex2 {
		if quantilesSrc[iSrc1] < quantilesSrc[iSrc2] {
			quantilesDst[iDst] = quantilesSrc[iSrc1]
			weightsDst[iDst] = weightsSrc[iSrc1]
			iSrc1++
		} else {
			quantilesDst[iDst] = quantilesSrc[iSrc2]
			weightsDst[iDst] = weightsSrc[iSrc2]
			iSrc2++
		}
		iDst++
	}
	if iSrc1 < toIndex1 {
		copy(quantilesDst[iDst:], quantilesSrc[iSrc1:toIndex1])
		copy(weightsDst[iDst:], weightsSrc[iSrc1:toIndex1])
	} else if iSrc2 < toIndex2 {
		copy(quantilesDst[iDst:], quantilesSrc[iSrc2:toIndex2])
		copy(weightsDst[iDst:], weightsSrc[iSrc2:toIndex2])
	}
}
