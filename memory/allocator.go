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

// Package memory provides the allocators that back sketch level storage.
//
// A sketch never grows a level buffer past its capacity on its own. Every
// buffer it holds was handed out by an Allocator and is handed back to the
// same Allocator when it is replaced or released.
package memory

// Allocator hands out item buffers.
type Allocator[T any] interface {
	// Allocate returns an empty buffer with capacity of at least n.
	Allocate(n int) []T
	// Resize returns a buffer with capacity of at least n holding the first
	// min(len(buf), n) items of buf. buf must not be used afterwards.
	Resize(buf []T, n int) []T
	// Deallocate returns buf to the allocator.
	Deallocate(buf []T)
}

// HeapAllocator allocates a new slice every time and leaves reclamation to the garbage collector.
type HeapAllocator[T any] struct{}

func (HeapAllocator[T]) Allocate(n int) []T {
	if n <= 0 {
		return nil
	}
	return make([]T, 0, n)
}

func (a HeapAllocator[T]) Resize(buf []T, n int) []T {
	if cap(buf) == n {
		return buf[:min(len(buf), n)]
	}
	out := a.Allocate(n)
	return append(out, buf[:min(len(buf), n)]...)
}

func (HeapAllocator[T]) Deallocate([]T) {}
