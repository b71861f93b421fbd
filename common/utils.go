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
	"errors"

	"github.com/twmb/murmur3"
)

// DefaultSerdeHashSeed is the murmur3 seed used by HashKey.
const DefaultSerdeHashSeed = uint64(9001)

var errOutOfBounds = errors.New("offset out of bounds")

// HashKey hashes an arbitrary key to 64 bits with murmur3.
func HashKey(key []byte) uint64 {
	return murmur3.SeedSum64(DefaultSerdeHashSeed, key)
}

func checkBounds(offset int, reqLen int, memCap int) bool {
	return offset >= 0 && reqLen >= 0 && offset <= memCap && reqLen <= memCap-offset
}

func fixedSizeOfMany(mem []byte, offsetBytes int, numItems int, width int) (int, error) {
	if numItems <= 0 {
		return 0, nil
	}
	size := numItems * width
	if !checkBounds(offsetBytes, size, len(mem)) {
		return 0, errOutOfBounds
	}
	return size, nil
}
