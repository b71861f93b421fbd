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

package common

import (
	"encoding/binary"
)

// ItemSketchLongSerDe encodes int64 items as 8 little-endian bytes.
type ItemSketchLongSerDe struct{}

// ItemSketchIntSerDe encodes int items as 8 little-endian bytes regardless of platform width.
type ItemSketchIntSerDe struct{}

// ItemSketchInt32SerDe encodes int32 items as 4 little-endian bytes.
type ItemSketchInt32SerDe struct{}

func (f ItemSketchLongSerDe) SizeOf(item int64) int {
	return 8
}

func (f ItemSketchLongSerDe) SizeOfMany(mem []byte, offsetBytes int, numItems int) (int, error) {
	return fixedSizeOfMany(mem, offsetBytes, numItems, 8)
}

func (f ItemSketchLongSerDe) SerializeOneToSlice(item int64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, uint64(item))
	return bytes
}

func (f ItemSketchLongSerDe) SerializeManyToSlice(items []int64) []byte {
	bytes := make([]byte, 8*len(items))
	for i, item := range items {
		binary.LittleEndian.PutUint64(bytes[i*8:], uint64(item))
	}
	return bytes
}

func (f ItemSketchLongSerDe) DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]int64, error) {
	if _, err := f.SizeOfMany(mem, offsetBytes, numItems); err != nil {
		return nil, err
	}
	array := make([]int64, 0, max(numItems, 0))
	for i := 0; i < numItems; i++ {
		array = append(array, int64(binary.LittleEndian.Uint64(mem[offsetBytes:])))
		offsetBytes += 8
	}
	return array, nil
}

func (f ItemSketchIntSerDe) SizeOf(item int) int {
	return 8
}

func (f ItemSketchIntSerDe) SizeOfMany(mem []byte, offsetBytes int, numItems int) (int, error) {
	return fixedSizeOfMany(mem, offsetBytes, numItems, 8)
}

func (f ItemSketchIntSerDe) SerializeOneToSlice(item int) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, uint64(int64(item)))
	return bytes
}

func (f ItemSketchIntSerDe) SerializeManyToSlice(items []int) []byte {
	bytes := make([]byte, 8*len(items))
	for i, item := range items {
		binary.LittleEndian.PutUint64(bytes[i*8:], uint64(int64(item)))
	}
	return bytes
}

func (f ItemSketchIntSerDe) DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]int, error) {
	if _, err := f.SizeOfMany(mem, offsetBytes, numItems); err != nil {
		return nil, err
	}
	array := make([]int, 0, max(numItems, 0))
	for i := 0; i < numItems; i++ {
		array = append(array, int(int64(binary.LittleEndian.Uint64(mem[offsetBytes:]))))
		offsetBytes += 8
	}
	return array, nil
}

func (f ItemSketchInt32SerDe) SizeOf(item int32) int {
	return 4
}

func (f ItemSketchInt32SerDe) SizeOfMany(mem []byte, offsetBytes int, numItems int) (int, error) {
	return fixedSizeOfMany(mem, offsetBytes, numItems, 4)
}

func (f ItemSketchInt32SerDe) SerializeOneToSlice(item int32) []byte {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, uint32(item))
	return bytes
}

func (f ItemSketchInt32SerDe) SerializeManyToSlice(items []int32) []byte {
	bytes := make([]byte, 4*len(items))
	for i, item := range items {
		binary.LittleEndian.PutUint32(bytes[i*4:], uint32(item))
	}
	return bytes
}

func (f ItemSketchInt32SerDe) DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]int32, error) {
	if _, err := f.SizeOfMany(mem, offsetBytes, numItems); err != nil {
		return nil, err
	}
	array := make([]int32, 0, max(numItems, 0))
	for i := 0; i < numItems; i++ {
		array = append(array, int32(binary.LittleEndian.Uint32(mem[offsetBytes:])))
		offsetBytes += 4
	}
	return array, nil
}
