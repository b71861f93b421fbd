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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongSerDeRoundTrip(t *testing.T) {
	serde := ItemSketchLongSerDe{}
	items := []int64{math.MinInt64, -1, 0, 1, math.MaxInt64}
	mem := serde.SerializeManyToSlice(items)
	assert.Len(t, mem, 40)

	size, err := serde.SizeOfMany(mem, 0, len(items))
	require.NoError(t, err)
	assert.Equal(t, 40, size)

	out, err := serde.DeserializeManyFromSlice(mem, 0, len(items))
	require.NoError(t, err)
	assert.Equal(t, items, out)

	out, err = serde.DeserializeManyFromSlice(mem, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, items[1:], out)
}

func TestFixedWidthSerDeBounds(t *testing.T) {
	mem := ItemSketchLongSerDe{}.SerializeManyToSlice([]int64{1, 2})

	_, err := ItemSketchLongSerDe{}.DeserializeManyFromSlice(mem, 0, 3)
	assert.Error(t, err)
	_, err = ItemSketchLongSerDe{}.DeserializeManyFromSlice(mem, 9, 1)
	assert.Error(t, err)
	_, err = ItemSketchLongSerDe{}.DeserializeManyFromSlice(mem, -1, 1)
	assert.Error(t, err)
	_, err = ItemSketchDoubleSerDe{}.SizeOfMany(mem, 0, 3)
	assert.Error(t, err)
	_, err = ItemSketchFloatSerDe{}.DeserializeManyFromSlice(mem[:3], 0, 1)
	assert.Error(t, err)
	_, err = ItemSketchInt32SerDe{}.DeserializeManyFromSlice(mem, 14, 1)
	assert.Error(t, err)

	out, err := ItemSketchInt32SerDe{}.DeserializeManyFromSlice(mem, 12, 1)
	require.NoError(t, err)
	assert.Equal(t, []int32{0}, out)
}

func TestDoubleSerDeKeepsBits(t *testing.T) {
	serde := ItemSketchDoubleSerDe{}
	items := []float64{math.Inf(-1), -0.0, 0.1, math.MaxFloat64, math.SmallestNonzeroFloat64}
	out, err := serde.DeserializeManyFromSlice(serde.SerializeManyToSlice(items), 0, len(items))
	require.NoError(t, err)
	for i := range items {
		assert.Equal(t, math.Float64bits(items[i]), math.Float64bits(out[i]))
	}
	assert.Equal(t, serde.SerializeManyToSlice(items[2:3]), serde.SerializeOneToSlice(items[2]))
}

func TestFloatAndIntSerDe(t *testing.T) {
	floats := []float32{-1.5, 0, 3.25}
	fs := ItemSketchFloatSerDe{}
	outF, err := fs.DeserializeManyFromSlice(fs.SerializeManyToSlice(floats), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, floats, outF)
	assert.Equal(t, 4, fs.SizeOf(1))

	ints := []int{-7, 0, 1 << 40}
	is := ItemSketchIntSerDe{}
	outI, err := is.DeserializeManyFromSlice(is.SerializeManyToSlice(ints), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, ints, outI)
	assert.Equal(t, is.SerializeOneToSlice(-7), is.SerializeManyToSlice(ints[:1]))
}

func TestStringSerDe(t *testing.T) {
	serde := ItemSketchStringSerDe{}
	items := []string{"", "a", "héllo", "quantile"}
	mem := serde.SerializeManyToSlice(items)

	expected := 0
	for _, s := range items {
		expected += serde.SizeOf(s)
	}
	assert.Equal(t, expected, len(mem))
	assert.Equal(t, 4, serde.SizeOf(""))
	assert.Len(t, serde.SerializeOneToSlice(""), 4)

	size, err := serde.SizeOfMany(mem, 0, len(items))
	require.NoError(t, err)
	assert.Equal(t, len(mem), size)

	out, err := serde.DeserializeManyFromSlice(mem, 0, len(items))
	require.NoError(t, err)
	assert.Equal(t, items, out)

	_, err = serde.DeserializeManyFromSlice(mem[:len(mem)-1], 0, len(items))
	assert.Error(t, err)
	_, err = serde.SizeOfMany(mem[:2], 0, 1)
	assert.Error(t, err)

	// length prefix claiming more bytes than remain
	bad := []byte{0xff, 0xff, 0xff, 0x7f, 'x'}
	_, err = serde.DeserializeManyFromSlice(bad, 0, 1)
	assert.Error(t, err)
}

func TestDefaultSerDe(t *testing.T) {
	_, code, ok := DefaultSerDe[int64]()
	assert.True(t, ok)
	assert.Equal(t, TypeLong, code)

	_, code, ok = DefaultSerDe[float64]()
	assert.True(t, ok)
	assert.Equal(t, TypeDouble, code)

	s, code, ok := DefaultSerDe[string]()
	assert.True(t, ok)
	assert.Equal(t, TypeString, code)
	assert.Equal(t, 7, s.SizeOf("abc")+s.SizeOf(""))

	_, code, ok = DefaultSerDe[uint8]()
	assert.False(t, ok)
	assert.Equal(t, TypeCustom, code)
}

func TestHashKey(t *testing.T) {
	assert.Equal(t, HashKey([]byte("seed")), HashKey([]byte("seed")))
	assert.NotEqual(t, HashKey([]byte("seed")), HashKey([]byte("seeds")))
}
