/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package arena constructs backing regions for the buddy allocator, either
// on the Go heap or as anonymous memory mappings outside it.
package arena

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// Heap returns a heap-backed region of the given size. The bytes are not
// zeroed; the allocator's bookkeeping lives outside the arena and never
// reads its contents.
func Heap(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	return dirtmake.Bytes(size, size), nil
}

func checkSize(size int) error {
	if size <= 0 || size&(size-1) != 0 {
		return fmt.Errorf("arena: size must be a positive power of two, got %d", size)
	}
	return nil
}
