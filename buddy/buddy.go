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

// Package buddy implements a binary buddy allocator over a single fixed-size
// arena. Blocks are powers of two between 1<<minOrder and 1<<maxOrder bytes;
// freed blocks are eagerly merged with their buddy so external fragmentation
// stays bounded.
package buddy

import (
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/cloudwego/pagealloc/arena"
)

const (
	// DefaultMinOrder is the default granule exponent (4KB pages).
	DefaultMinOrder = 12

	// DefaultMaxOrder is the default arena exponent (1MB arena).
	DefaultMaxOrder = 20

	// minOrderFloor keeps granules at least pointer-sized.
	minOrderFloor = 3

	// maxOrderCeil keeps block sizes within int on 64-bit platforms.
	maxOrderCeil = 40

	// orderSpanCeil bounds maxOrder-minOrder so page indices fit in int32.
	orderSpanCeil = 30
)

// Allocation failures. Oversized requests and exhaustion are both surfaced
// as a nil block, but callers that care can tell them apart with errors.Is.
var (
	// ErrInvalidSize is returned by Alloc for a zero or negative size.
	ErrInvalidSize = errors.New("buddy: invalid allocation size")

	// ErrSizeTooLarge is returned by Alloc when the requested size exceeds
	// the arena size, so no order can cover it.
	ErrSizeTooLarge = errors.New("buddy: allocation size exceeds arena size")

	// ErrExhausted is returned by Alloc when no free block of a
	// sufficient order exists.
	ErrExhausted = errors.New("buddy: out of memory")
)

// Allocator is a binary buddy allocator instance. It owns the arena's
// bookkeeping exclusively; concurrent use must be serialized by the caller.
type Allocator struct {
	// arena is the backing region, len(arena) == 1<<maxOrder.
	arena []byte

	// arenaStart is a cached pointer to the start of the arena,
	// used for offset calculations in Free().
	arenaStart unsafe.Pointer

	// pages holds one descriptor per granule. pages[i] describes the
	// unit at byte offset i<<minOrder.
	pages []pageDesc

	// heads[o-minOrder] is the index of the first free head of order o,
	// or nilPage. counts mirrors the list lengths for O(1) reporting.
	heads  []int32
	counts []int32

	// minOrder is log2 of the granule size.
	minOrder int
	// maxOrder is log2 of the arena size.
	maxOrder int
}

// New creates an allocator with a fresh heap-backed arena of 1<<maxOrder
// bytes divided into 1<<minOrder granules.
func New(minOrder, maxOrder int) (*Allocator, error) {
	if err := checkOrders(minOrder, maxOrder); err != nil {
		return nil, err
	}
	backing, err := arena.Heap(1 << maxOrder)
	if err != nil {
		return nil, err
	}
	return NewWithArena(backing, minOrder, maxOrder)
}

// NewWithArena creates an allocator managing a caller-supplied arena.
// The arena's length must be exactly 1<<maxOrder.
func NewWithArena(backing []byte, minOrder, maxOrder int) (*Allocator, error) {
	if err := checkOrders(minOrder, maxOrder); err != nil {
		return nil, err
	}
	if len(backing) != 1<<maxOrder {
		return nil, fmt.Errorf("buddy: arena size must be exactly %d bytes (1<<%d), got %d",
			1<<maxOrder, maxOrder, len(backing))
	}

	numPages := 1 << (maxOrder - minOrder)
	numOrders := maxOrder - minOrder + 1
	a := &Allocator{
		arena:      backing,
		arenaStart: unsafe.Pointer(&backing[0]),
		pages:      make([]pageDesc, numPages),
		heads:      make([]int32, numOrders),
		counts:     make([]int32, numOrders),
		minOrder:   minOrder,
		maxOrder:   maxOrder,
	}
	a.initPages()
	return a, nil
}

func checkOrders(minOrder, maxOrder int) error {
	if minOrder < minOrderFloor {
		return fmt.Errorf("buddy: minOrder must be >= %d, got %d", minOrderFloor, minOrder)
	}
	if maxOrder > maxOrderCeil {
		return fmt.Errorf("buddy: maxOrder must be <= %d, got %d", maxOrderCeil, maxOrder)
	}
	if minOrder > maxOrder {
		return fmt.Errorf("buddy: minOrder (%d) must be <= maxOrder (%d)", minOrder, maxOrder)
	}
	if maxOrder-minOrder > orderSpanCeil {
		return fmt.Errorf("buddy: maxOrder-minOrder must be <= %d, got %d", orderSpanCeil, maxOrder-minOrder)
	}
	return nil
}

// initPages puts every descriptor in the non-head state, then publishes the
// whole arena as one free block of maxOrder headed by unit 0.
func (a *Allocator) initPages() {
	for i := range a.pages {
		a.pages[i] = pageDesc{order: orderNone, prev: nilPage, next: nilPage}
	}
	for i := range a.heads {
		a.heads[i] = nilPage
		a.counts[i] = 0
	}
	a.pages[0].order = int8(a.maxOrder)
	a.pushFree(a.maxOrder, 0)
}

// orderFor returns the smallest order whose block size covers size.
func (a *Allocator) orderFor(size int) (int, error) {
	if size <= 0 {
		return 0, ErrInvalidSize
	}
	o := bits.Len(uint(size - 1))
	if o < a.minOrder {
		o = a.minOrder
	}
	if o > a.maxOrder {
		return 0, ErrSizeTooLarge
	}
	return o, nil
}

// Alloc allocates a block of at least size bytes and returns a slice view
// into the arena with len == size and cap == the block size. The smallest
// sufficient free order is always taken; larger free blocks are split and
// their unused halves published one order down. Returns ErrSizeTooLarge if
// size can never fit, ErrExhausted if no free block covers it right now.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	target, err := a.orderFor(size)
	if err != nil {
		return nil, err
	}

	// Scan free lists from the target order upward.
	order := -1
	for o := target; o <= a.maxOrder; o++ {
		if a.heads[o-a.minOrder] != nilPage {
			order = o
			break
		}
	}
	if order == -1 {
		return nil, ErrExhausted
	}

	idx := a.popFree(order)

	// Split until we reach the target order. The lower half keeps idx and
	// continues splitting; the upper half becomes a free head one order down.
	for order > target {
		order--
		upper := idx ^ int32(1)<<(order-a.minOrder)
		a.pages[upper].order = int8(order)
		a.pushFree(order, upper)
		a.pages[idx].order = int8(order)
	}

	// The descriptor keeps its order while allocated; absence from any free
	// list is the allocation marker.
	off := int(idx) << a.minOrder
	return a.arena[off : off+size : off+(1<<target)], nil
}

// Free returns a block to the allocator and eagerly merges it with its buddy
// while the buddy is itself free. A nil or empty block is a no-op. Panics if
// the block was not returned by Alloc on this allocator or was already freed.
//
// IMPORTANT: pass the original slice returned by Alloc. Reslicing the front
// (e.g. block[n:]) before Free corrupts the offset calculation.
func (a *Allocator) Free(block []byte) {
	if cap(block) == 0 {
		return
	}
	// Use the slice header directly so zero-length (but capped) slices
	// don't panic on &block[0].
	dataPtr := *(*uintptr)(unsafe.Pointer(&block))
	off := int(dataPtr - uintptr(a.arenaStart))
	if off < 0 || off >= len(a.arena) {
		panic("buddy: block not in arena")
	}
	a.FreeAt(off)
}

// FreeAt frees the block starting at the given arena offset. The offset must
// be a value derivable from a live Alloc result (see OffsetOf). Panics on
// out-of-range, misaligned, non-head, or already-free offsets.
func (a *Allocator) FreeAt(offset int) {
	if offset < 0 || offset >= len(a.arena) {
		panic("buddy: offset out of range")
	}
	if offset&(1<<a.minOrder-1) != 0 {
		panic("buddy: misaligned block")
	}

	idx := int32(offset >> a.minOrder)
	if a.pages[idx].order == orderNone {
		panic("buddy: not the head of an allocated block")
	}
	order := int(a.pages[idx].order)
	if a.isLinked(idx, order) {
		panic("buddy: double free")
	}

	// Merge upward while the buddy is a free head of the same order. The
	// loop runs at most maxOrder-minOrder times; a block at maxOrder has
	// no buddy.
	for order < a.maxOrder {
		buddy := idx ^ int32(1)<<(order-a.minOrder)
		if int(a.pages[buddy].order) != order || !a.isLinked(buddy, order) {
			break
		}
		a.unlinkFree(order, buddy)
		// The lower-indexed half heads the merged block; the other
		// descriptor goes back to the non-head sentinel.
		if buddy < idx {
			a.pages[idx].order = orderNone
			idx = buddy
		} else {
			a.pages[buddy].order = orderNone
		}
		order++
		a.pages[idx].order = int8(order)
	}

	// No buddy to merge with (or reached maxOrder): publish the block.
	a.pushFree(order, idx)
}

// OffsetOf returns the arena offset of a block returned by Alloc.
// The result is suitable for FreeAt.
func (a *Allocator) OffsetOf(block []byte) int {
	dataPtr := *(*uintptr)(unsafe.Pointer(&block))
	return int(dataPtr - uintptr(a.arenaStart))
}

// IsValidOffset checks whether offset could be a valid block start: in
// bounds and granule-aligned. It does not check allocation state; use it to
// pre-validate untrusted offsets before FreeAt without risking a panic.
func (a *Allocator) IsValidOffset(offset int) bool {
	if offset < 0 || offset >= len(a.arena) {
		return false
	}
	return offset&(1<<a.minOrder-1) == 0
}

// Available returns the total number of free bytes.
func (a *Allocator) Available() int {
	total := 0
	for o := a.minOrder; o <= a.maxOrder; o++ {
		total += int(a.counts[o-a.minOrder]) << o
	}
	return total
}

// FreeCount returns the number of free blocks of the given order.
func (a *Allocator) FreeCount(order int) int {
	if order < a.minOrder || order > a.maxOrder {
		return 0
	}
	return int(a.counts[order-a.minOrder])
}

// MinOrder returns the granule exponent.
func (a *Allocator) MinOrder() int { return a.minOrder }

// MaxOrder returns the arena exponent.
func (a *Allocator) MaxOrder() int { return a.maxOrder }

// Size returns the arena size in bytes.
func (a *Allocator) Size() int { return len(a.arena) }

// Reset discards all allocations and returns the allocator to its initial
// state: the whole arena free as a single block of maxOrder.
func (a *Allocator) Reset() {
	a.initPages()
}
