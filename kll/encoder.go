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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sketchlab/kllsketch/internal"
)

// SerializedByteSize returns the exact number of bytes Serialize writes.
func (s *Sketch[T]) SerializedByteSize() (int, error) {
	if s.serde == nil {
		return 0, fmt.Errorf("%w: no SerDe for %T items", ErrConfig, *new(T))
	}
	size := levelsArrAdr + checksumBytes
	if s.IsEmpty() {
		return size, nil
	}
	size += 4 * len(s.levels)
	size += s.serde.SizeOf(s.minItem) + s.serde.SizeOf(s.maxItem)
	for _, items := range s.levels {
		for _, item := range items {
			size += s.serde.SizeOf(item)
		}
	}
	return size, nil
}

// Serialize writes the sketch into buf and returns the number of bytes
// written. buf must hold at least SerializedByteSize bytes.
func (s *Sketch[T]) Serialize(buf []byte) (int, error) {
	size, err := s.SerializedByteSize()
	if err != nil {
		return 0, err
	}
	if len(buf) < size {
		return 0, fmt.Errorf("%w: buffer of %d bytes, need %d", ErrConfig, len(buf), size)
	}
	mem := buf[:size]
	clear(mem)

	mem[serVerByteAdr] = serialVersion
	mem[familyByteAdr] = byte(internal.FamilyEnum.Kll.Id)
	mem[itemTypeByteAdr] = s.typeCode
	binary.LittleEndian.PutUint32(mem[kIntAdr:], s.k)
	binary.LittleEndian.PutUint64(mem[nLongAdr:], s.n)
	binary.LittleEndian.PutUint32(mem[minKIntAdr:], s.minK)

	offset := levelsArrAdr
	if s.IsEmpty() {
		mem[flagsByteAdr] |= emptyBitMask
	} else {
		mem[numLevelsByteAdr] = byte(len(s.levels))
		for _, items := range s.levels {
			binary.LittleEndian.PutUint32(mem[offset:], uint32(len(items)))
			offset += 4
		}
		offset += copy(mem[offset:], s.serde.SerializeOneToSlice(s.minItem))
		offset += copy(mem[offset:], s.serde.SerializeOneToSlice(s.maxItem))
		for _, items := range s.levels {
			if len(items) > 0 {
				offset += copy(mem[offset:], s.serde.SerializeManyToSlice(items))
			}
		}
	}
	binary.LittleEndian.PutUint64(mem[offset:], checksum(mem[:offset]))
	return size, nil
}

// ToSlice serializes the sketch into a new byte slice.
func (s *Sketch[T]) ToSlice() ([]byte, error) {
	size, err := s.SerializedByteSize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := s.Serialize(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteTo writes the serialized sketch to w.
func (s *Sketch[T]) WriteTo(w io.Writer) (int64, error) {
	buf, err := s.ToSlice()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}
