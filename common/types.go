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

// ItemSketchSerde converts sketch items to and from their little-endian wire form.
//
// DeserializeManyFromSlice and SizeOfMany must report an error instead of
// panicking when mem is too short to hold numItems items.
type ItemSketchSerde[C any] interface {
	SizeOf(item C) int
	SizeOfMany(mem []byte, offsetBytes int, numItems int) (int, error)
	SerializeManyToSlice(items []C) []byte
	SerializeOneToSlice(item C) []byte
	DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]C, error)
}

// Item type codes recorded in serialized sketches. TypeCustom marks a caller
// supplied SerDe whose item type cannot be checked on decode.
const (
	TypeCustom uint8 = iota
	TypeLong
	TypeInt
	TypeInt32
	TypeDouble
	TypeFloat
	TypeString
)

// DefaultSerDe returns the built-in SerDe for C and its type code.
// ok is false when C has no built-in SerDe.
func DefaultSerDe[C any]() (serde ItemSketchSerde[C], typeCode uint8, ok bool) {
	var zero C
	switch any(zero).(type) {
	case int64:
		serde, ok = any(ItemSketchLongSerDe{}).(ItemSketchSerde[C])
		typeCode = TypeLong
	case int:
		serde, ok = any(ItemSketchIntSerDe{}).(ItemSketchSerde[C])
		typeCode = TypeInt
	case int32:
		serde, ok = any(ItemSketchInt32SerDe{}).(ItemSketchSerde[C])
		typeCode = TypeInt32
	case float64:
		serde, ok = any(ItemSketchDoubleSerDe{}).(ItemSketchSerde[C])
		typeCode = TypeDouble
	case float32:
		serde, ok = any(ItemSketchFloatSerDe{}).(ItemSketchSerde[C])
		typeCode = TypeFloat
	case string:
		serde, ok = any(ItemSketchStringSerDe{}).(ItemSketchSerde[C])
		typeCode = TypeString
	}
	if !ok {
		return nil, TypeCustom, false
	}
	return serde, typeCode, true
}
