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

	"github.com/cespare/xxhash/v2"
)

// Serialized layout, little-endian:
//
//	0      serial version
//	1      family id
//	2      flags
//	3      item type code
//	4-7    k
//	8-15   n
//	16-19  min k
//	20     number of levels
//	21-23  unused
//	24     item count of each level, 4 bytes per level
//	       min item, max item
//	       items, level 0 first
//	end-8  xxhash64 of all preceding bytes
//
// An empty sketch has no levels, no min/max and no items.
const (
	serVerByteAdr    = 0
	familyByteAdr    = 1
	flagsByteAdr     = 2
	itemTypeByteAdr  = 3
	kIntAdr          = 4
	nLongAdr         = 8
	minKIntAdr       = 16
	numLevelsByteAdr = 20
	levelsArrAdr     = 24

	checksumBytes = 8

	serialVersion = 1

	// Flag bit masks
	emptyBitMask = 1
)

func getSerVer(mem []byte) uint8 {
	return mem[serVerByteAdr]
}

func getFamilyID(mem []byte) int {
	return int(mem[familyByteAdr])
}

func getEmptyFlag(mem []byte) bool {
	return mem[flagsByteAdr]&emptyBitMask != 0
}

func getItemType(mem []byte) uint8 {
	return mem[itemTypeByteAdr]
}

func getK(mem []byte) uint32 {
	return binary.LittleEndian.Uint32(mem[kIntAdr:])
}

func getN(mem []byte) uint64 {
	return binary.LittleEndian.Uint64(mem[nLongAdr:])
}

func getMinK(mem []byte) uint32 {
	return binary.LittleEndian.Uint32(mem[minKIntAdr:])
}

func getNumLevels(mem []byte) int {
	return int(mem[numLevelsByteAdr])
}

func getLevelCount(mem []byte, level int) int {
	return int(binary.LittleEndian.Uint32(mem[levelsArrAdr+4*level:]))
}

func checksum(mem []byte) uint64 {
	return xxhash.Sum64(mem)
}

func getChecksum(mem []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(mem[offset:])
}
