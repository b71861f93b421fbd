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
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/sketchlab/kllsketch/common"
	"github.com/sketchlab/kllsketch/internal"
)

var (
	errTooShort          = errors.New("buffer too short")
	errSerVerMismatch    = errors.New("unsupported serial version")
	errFamilyMismatch    = errors.New("not a KLL sketch")
	errItemTypeMismatch  = errors.New("item type mismatch")
	errChecksumMismatch  = errors.New("checksum mismatch")
	errWeightMismatch    = errors.New("level weights do not add up to n")
	errItemOutOfRange    = errors.New("item outside of [min, max]")
	errLevelNotSorted    = errors.New("level is not sorted")
	errInconsistentEmpty = errors.New("inconsistent empty flag")
)

// decodedSketch is the validated content of a serialized sketch. Its levels
// are freshly decoded slices owned by the caller.
type decodedSketch[T constraints.Ordered] struct {
	k       uint32
	minK    uint32
	n       uint64
	minItem T
	maxItem T
	levels  [][]T
}

func formatError(err error) error {
	return fmt.Errorf("%w: %w", ErrFormat, err)
}

// decode parses and validates buf. Bytes past the checksum are ignored.
func decode[T constraints.Ordered](buf []byte, serde common.ItemSketchSerde[T], typeCode uint8) (*decodedSketch[T], error) {
	if len(buf) < levelsArrAdr+checksumBytes {
		return nil, formatError(errTooShort)
	}
	if v := getSerVer(buf); v != serialVersion {
		return nil, formatError(fmt.Errorf("%w: %d", errSerVerMismatch, v))
	}
	if f := getFamilyID(buf); f != internal.FamilyEnum.Kll.Id {
		return nil, formatError(fmt.Errorf("%w: family %d", errFamilyMismatch, f))
	}
	if t := getItemType(buf); t != typeCode {
		return nil, formatError(fmt.Errorf("%w: got %d, want %d", errItemTypeMismatch, t, typeCode))
	}
	d := &decodedSketch[T]{
		k:    getK(buf),
		minK: getMinK(buf),
		n:    getN(buf),
	}
	if d.k < MinK || d.k > MaxK {
		return nil, formatError(fmt.Errorf("k %d outside of [%d, %d]", d.k, MinK, MaxK))
	}
	if d.minK < MinK || d.minK > d.k {
		return nil, formatError(fmt.Errorf("min k %d outside of [%d, %d]", d.minK, MinK, d.k))
	}
	numLevels := getNumLevels(buf)

	if getEmptyFlag(buf) {
		if numLevels != 0 || d.n != 0 {
			return nil, formatError(errInconsistentEmpty)
		}
		if err := verifyChecksum(buf, levelsArrAdr); err != nil {
			return nil, err
		}
		return d, nil
	}
	if d.n == 0 {
		return nil, formatError(errInconsistentEmpty)
	}
	if numLevels < 1 || numLevels > maxNumLevels {
		return nil, formatError(fmt.Errorf("%d levels outside of [1, %d]", numLevels, maxNumLevels))
	}
	if len(buf) < levelsArrAdr+4*numLevels+checksumBytes {
		return nil, formatError(errTooShort)
	}

	counts := make([]int, numLevels)
	var weight, carry uint64
	for level := range counts {
		counts[level] = getLevelCount(buf, level)
		hi, lo := bits.Mul64(uint64(counts[level]), 1<<level)
		weight, carry = bits.Add64(weight, lo, 0)
		if hi != 0 || carry != 0 {
			return nil, formatError(errWeightMismatch)
		}
	}
	if weight != d.n {
		return nil, formatError(fmt.Errorf("%w: %d != %d", errWeightMismatch, weight, d.n))
	}

	// Walk the item sections once to find the checksum before decoding anything.
	itemsOffset := levelsArrAdr + 4*numLevels
	offset := itemsOffset
	size, err := serde.SizeOfMany(buf, offset, 2)
	if err != nil {
		return nil, formatError(err)
	}
	offset += size
	for _, count := range counts {
		size, err := serde.SizeOfMany(buf, offset, count)
		if err != nil {
			return nil, formatError(err)
		}
		offset += size
	}
	if err := verifyChecksum(buf, offset); err != nil {
		return nil, err
	}

	offset = itemsOffset
	minMax, err := serde.DeserializeManyFromSlice(buf, offset, 2)
	if err != nil {
		return nil, formatError(err)
	}
	if len(minMax) != 2 {
		return nil, formatError(errTooShort)
	}
	d.minItem, d.maxItem = minMax[0], minMax[1]
	if d.minItem != d.minItem || d.maxItem != d.maxItem || d.maxItem < d.minItem {
		return nil, formatError(fmt.Errorf("%w: min %v, max %v", errItemOutOfRange, d.minItem, d.maxItem))
	}
	size, _ = serde.SizeOfMany(buf, offset, 2)
	offset += size

	d.levels = make([][]T, numLevels)
	for level, count := range counts {
		size, _ := serde.SizeOfMany(buf, offset, count)
		items, err := serde.DeserializeManyFromSlice(buf, offset, count)
		if err != nil {
			return nil, formatError(err)
		}
		if len(items) != count {
			return nil, formatError(errTooShort)
		}
		for _, item := range items {
			// NaN fails both comparisons
			if !(item >= d.minItem && item <= d.maxItem) {
				return nil, formatError(fmt.Errorf("%w: %v at level %d", errItemOutOfRange, item, level))
			}
		}
		if level > 0 && !slices.IsSorted(items) {
			return nil, formatError(fmt.Errorf("%w: level %d", errLevelNotSorted, level))
		}
		if count > 0 {
			d.levels[level] = items
		}
		offset += size
	}
	return d, nil
}

func verifyChecksum(buf []byte, offset int) error {
	if len(buf)-offset < checksumBytes {
		return formatError(errTooShort)
	}
	stored := getChecksum(buf, offset)
	if computed := checksum(buf[:offset]); computed != stored {
		return formatError(fmt.Errorf("%w: stored %#x, computed %#x", errChecksumMismatch, stored, computed))
	}
	return nil
}

// Deserialize rebuilds a sketch from the output of Serialize. The options are
// applied as in NewSketch; the SerDe, if given, must match the one that
// serialized the sketch. Queries on the result equal those on the original.
func Deserialize[T constraints.Ordered](buf []byte, opts ...Option) (*Sketch[T], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	serde, typeCode, err := itemSerDe[T](&o)
	if err != nil {
		return nil, err
	}
	if serde == nil {
		return nil, fmt.Errorf("%w: no SerDe for %T items", ErrConfig, *new(T))
	}
	d, err := decode(buf, serde, typeCode)
	if err != nil {
		return nil, err
	}
	s, err := NewSketch[T](d.k, opts...)
	if err != nil {
		return nil, err
	}
	s.minK = d.minK
	if d.n == 0 {
		return s, nil
	}
	s.levels = make([][]T, len(d.levels))
	for level, items := range d.levels {
		if len(items) == 0 {
			continue
		}
		s.levels[level] = append(s.alloc.Allocate(len(items)), items...)
		s.retained += len(items)
	}
	s.capacity = TotalCapacity(s.k, len(s.levels))
	s.n = d.n
	s.minItem, s.maxItem = d.minItem, d.maxItem
	return s, nil
}
