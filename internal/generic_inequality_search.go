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
	"cmp"
)

type Inequality int64

const (
	InequalityLT Inequality = iota
	InequalityLE
	InequalityGE
	InequalityGT
)

// FindWithInequality searches the sorted arr[low..high] for v.
// LT and LE return the index of the largest item satisfying item crit v,
// GE and GT the index of the smallest item satisfying item crit v.
// It returns -1 when no item qualifies.
func FindWithInequality[C cmp.Ordered](arr []C, low int, high int, v C, crit Inequality) int {
	if len(arr) == 0 || low > high {
		return -1
	}
	lo := low
	hi := high
	for lo <= hi {
		if hi-lo <= 1 {
			return resolve(arr, lo, hi, v, crit)
		}
		mid := lo + (hi-lo)/2
		switch compare(arr, mid, mid+1, v, crit) {
		case -1:
			hi = mid
		case 1:
			lo = mid + 1
		default:
			return getIndex(mid, mid+1, crit)
		}
	}
	return -1
}

func satisfies[C cmp.Ordered](item C, v C, crit Inequality) bool {
	switch crit {
	case InequalityLT:
		return item < v
	case InequalityLE:
		return item <= v
	case InequalityGE:
		return item >= v
	case InequalityGT:
		return item > v
	default:
		panic("invalid inequality")
	}
}

func resolve[C cmp.Ordered](arr []C, lo int, hi int, v C, crit Inequality) int {
	switch crit {
	case InequalityLT, InequalityLE:
		if satisfies(arr[hi], v, crit) {
			return hi
		}
		if satisfies(arr[lo], v, crit) {
			return lo
		}
	case InequalityGE, InequalityGT:
		if satisfies(arr[lo], v, crit) {
			return lo
		}
		if satisfies(arr[hi], v, crit) {
			return hi
		}
	default:
		panic("invalid inequality")
	}
	return -1
}

// compare reports whether the boundary between arr[a] and arr[b] lies to the
// left (-1), to the right (1) or exactly between them (0).
func compare[C cmp.Ordered](arr []C, a int, b int, v C, crit Inequality) int {
	switch crit {
	case InequalityLT, InequalityGE:
		if v <= arr[a] {
			return -1
		}
		if arr[b] < v {
			return 1
		}
	case InequalityLE, InequalityGT:
		if v < arr[a] {
			return -1
		}
		if arr[b] <= v {
			return 1
		}
	default:
		panic("invalid inequality")
	}
	return 0
}

func getIndex(a int, b int, crit Inequality) int {
	switch crit {
	case InequalityLT, InequalityLE:
		return a
	case InequalityGE, InequalityGT:
		return b
	default:
		panic("invalid inequality")
	}
}
