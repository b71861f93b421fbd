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

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindWithInequality(t *testing.T) {
	arr := []int{1, 3, 3, 5, 7, 9}
	last := len(arr) - 1

	testCases := []struct {
		name     string
		v        int
		crit     Inequality
		expected int
	}{
		{name: "LT below", v: 1, crit: InequalityLT, expected: -1},
		{name: "LT dup", v: 4, crit: InequalityLT, expected: 2},
		{name: "LT equal", v: 3, crit: InequalityLT, expected: 0},
		{name: "LT above", v: 100, crit: InequalityLT, expected: 5},
		{name: "LE equal", v: 3, crit: InequalityLE, expected: 2},
		{name: "LE below", v: 0, crit: InequalityLE, expected: -1},
		{name: "LE top", v: 9, crit: InequalityLE, expected: 5},
		{name: "GE equal", v: 3, crit: InequalityGE, expected: 1},
		{name: "GE between", v: 6, crit: InequalityGE, expected: 4},
		{name: "GE above", v: 10, crit: InequalityGE, expected: -1},
		{name: "GT equal", v: 3, crit: InequalityGT, expected: 3},
		{name: "GT below", v: -5, crit: InequalityGT, expected: 0},
		{name: "GT top", v: 9, crit: InequalityGT, expected: -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FindWithInequality(arr, 0, last, tc.v, tc.crit))
		})
	}
}

func TestFindWithInequalityMatchesLinearScan(t *testing.T) {
	arr := []float64{-2, -2, 0, 0.5, 0.5, 0.5, 1, 4, 8, 8, 13}
	probes := []float64{-3, -2, -1, 0, 0.25, 0.5, 0.75, 1, 2, 8, 13, 20}
	for _, crit := range []Inequality{InequalityLT, InequalityLE, InequalityGE, InequalityGT} {
		for _, v := range probes {
			expected := -1
			switch crit {
			case InequalityLT, InequalityLE:
				for i := range arr {
					if satisfies(arr[i], v, crit) {
						expected = i
					}
				}
			default:
				for i := len(arr) - 1; i >= 0; i-- {
					if satisfies(arr[i], v, crit) {
						expected = i
					}
				}
			}
			assert.Equal(t, expected, FindWithInequality(arr, 0, len(arr)-1, v, crit), "crit=%d v=%v", crit, v)
		}
	}
}

func TestFindWithInequalityEmpty(t *testing.T) {
	assert.Equal(t, -1, FindWithInequality([]string{}, 0, -1, "a", InequalityLE))
	assert.Equal(t, 0, FindWithInequality([]string{"a"}, 0, 0, "a", InequalityLE))
}
