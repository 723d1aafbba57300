//go:build unix

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

import (
	"golang.org/x/sys/unix"
)

// Mapped is an anonymous private memory mapping outside the Go heap.
// Close unmaps it; any arena views become invalid afterwards.
type Mapped struct {
	data []byte
}

// Map creates a read-write anonymous mapping of the given size.
func Map(size int) (*Mapped, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &Mapped{data: data}, nil
}

// Bytes returns the mapped region. Do not use after Close.
func (m *Mapped) Bytes() []byte {
	return m.data
}

// Close unmaps the region. Safe to call twice.
func (m *Mapped) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
