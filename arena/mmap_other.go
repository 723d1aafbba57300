//go:build !unix

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

package arena

import "errors"

// ErrNotSupported is returned by Map on platforms without mmap.
var ErrNotSupported = errors.New("arena: mmap not supported on this platform")

// Mapped is a stub on platforms without mmap.
type Mapped struct{}

func Map(size int) (*Mapped, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	return nil, ErrNotSupported
}

func (m *Mapped) Bytes() []byte { return nil }

func (m *Mapped) Close() error { return nil }
