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
)

const (
	// DefaultK yields a single-sided normalized rank error of about 1.33% with 99% confidence.
	DefaultK = uint32(200)
	MinK     = uint32(minLevelWidth)
	MaxK     = uint32((1 << 16) - 1)

	// minLevelWidth is the floor capacity of every level.
	minLevelWidth = 8
	// maxNumLevels bounds the level count so that every weight 2^i fits in a uint64.
	maxNumLevels = 64

	pmfCoef = 2.446
	pmfExp  = 0.9433
	cdfCoef = 2.296
	cdfExp  = 0.9723
)

var powersOfThree = []uint64{1, 3, 9, 27, 81, 243, 729, 2187, 6561, 19683, 59049, 177147, 531441,
	1594323, 4782969, 14348907, 43046721, 129140163, 387420489, 1162261467,
	3486784401, 10460353203, 31381059609, 94143178827, 282429536481,
	847288609443, 2541865828329, 7625597484987, 22876792454961, 68630377364883,
	205891132094649}

// LevelCapacity is the number of items the given level may hold in a sketch of
// numLevels levels before it becomes eligible for compaction. The top level
// holds k and every level below holds 2/3 of the one above it, but never
// fewer than 8.
func LevelCapacity(k uint32, numLevels int, level int) int {
	depth := numLevels - level - 1
	return max(minLevelWidth, int(intCapAux(k, depth)))
}

// TotalCapacity is the sum of LevelCapacity over all levels.
func TotalCapacity(k uint32, numLevels int) int {
	total := 0
	for level := 0; level < numLevels; level++ {
		total += LevelCapacity(k, numLevels, level)
	}
	return total
}

func intCapAux(k uint32, depth int) uint32 {
	if depth <= 30 {
		return intCapAuxAux(k, depth)
	}
	half := depth / 2
	rest := depth - half
	tmp := intCapAux(k, half)
	return intCapAux(tmp, rest)
}

// intCapAuxAux computes round(k * (2/3)^depth) in integer arithmetic.
func intCapAuxAux(k uint32, depth int) uint32 {
	twok := uint64(k) << 1 // pre-multiply by 2 so the rounding below stays exact
	tmp := (twok << depth) / powersOfThree[depth]
	result := (tmp + 1) >> 1
	if result <= uint64(k) {
		return uint32(result)
	}
	return k
}

// NormalizedRankError returns the rank error bound for a sketch of width k
// with 99% confidence. pmf selects the double-sided bound used by PMF queries.
func NormalizedRankError(k uint32, pmf bool) float64 {
	if pmf {
		return pmfCoef / math.Pow(float64(k), pmfExp)
	}
	return cdfCoef / math.Pow(float64(k), cdfExp)
}

// KFromEpsilon returns the smallest k whose single-sided rank error bound is
// at most epsilon, clamped to [MinK, MaxK].
func KFromEpsilon(epsilon float64) (uint32, error) {
	if !(epsilon > 0 && epsilon < 1) {
		return 0, fmt.Errorf("%w: epsilon must be in (0, 1), got %v", ErrConfig, epsilon)
	}
	k := math.Ceil(math.Pow(cdfCoef/epsilon, 1/cdfExp))
	if k > float64(MaxK) {
		return MaxK, nil
	}
	return max(MinK, uint32(k)), nil
}

func checkK(k uint32) error {
	if k < MinK || k > MaxK {
		return fmt.Errorf("%w: k must be >= %d and <= %d: %d", ErrConfig, MinK, MaxK, k)
	}
	return nil
}

func convertToCumulative(weights []uint64) uint64 {
	subtotal := uint64(0)
	for i := range weights {
		subtotal += weights[i]
		weights[i] = subtotal
	}
	return subtotal
}
