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
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/sketchlab/kllsketch/common"
	"github.com/sketchlab/kllsketch/memory"
)

type options struct {
	seed      uint64
	seeded    bool
	allocator any
	serde     any
}

// Option configures a Sketch at construction.
type Option func(*options)

// WithSeed makes the compaction coin flips reproducible.
// Two sketches built with the same seed from the same input are identical.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithSeedKey derives the seed from an arbitrary key, such as a group name.
func WithSeedKey(key []byte) Option {
	return WithSeed(common.HashKey(key))
}

// WithAllocator backs every level buffer with a. The item type of a must
// match the sketch's item type.
func WithAllocator[T any](a memory.Allocator[T]) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithSerDe sets the item codec used by the serialization methods. It is
// required for item types without a built-in SerDe.
func WithSerDe[T any](serde common.ItemSketchSerde[T]) Option {
	return func(o *options) {
		o.serde = serde
	}
}

// itemSerDe resolves the configured SerDe, falling back to the built-in one
// for T. A nil SerDe without error means T cannot be serialized.
func itemSerDe[T any](o *options) (common.ItemSketchSerde[T], uint8, error) {
	if o.serde == nil {
		serde, typeCode, _ := common.DefaultSerDe[T]()
		return serde, typeCode, nil
	}
	serde, ok := o.serde.(common.ItemSketchSerde[T])
	if !ok {
		return nil, 0, fmt.Errorf("%w: serde %T does not encode %T items", ErrConfig, o.serde, *new(T))
	}
	return serde, common.TypeCustom, nil
}

func secureRandomSeed() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
