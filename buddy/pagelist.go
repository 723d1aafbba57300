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

package buddy

const (
	// orderNone marks a descriptor that is not the head of any block.
	orderNone int8 = -1

	// nilPage is the nil value for descriptor links and list heads.
	nilPage int32 = -1
)

// pageDesc is the per-granule metadata. The unit index is the descriptor's
// position in Allocator.pages; its byte address derives as index<<minOrder.
//
// order is the order of the block this unit heads, or orderNone. A head with
// a valid order is free iff it is linked into its order's free list; there
// is no separate allocated flag.
type pageDesc struct {
	order int8
	prev  int32
	next  int32
}

// pushFree links idx at the front of order's free list.
func (a *Allocator) pushFree(order int, idx int32) {
	li := order - a.minOrder
	head := a.heads[li]
	d := &a.pages[idx]
	d.prev = nilPage
	d.next = head
	if head != nilPage {
		a.pages[head].prev = idx
	}
	a.heads[li] = idx
	a.counts[li]++
}

// popFree unlinks and returns the front of order's free list, or nilPage.
func (a *Allocator) popFree(order int) int32 {
	idx := a.heads[order-a.minOrder]
	if idx == nilPage {
		return nilPage
	}
	a.unlinkFree(order, idx)
	return idx
}

// unlinkFree removes idx from order's free list. idx must be linked.
// After unlinking both links hold nilPage.
func (a *Allocator) unlinkFree(order int, idx int32) {
	li := order - a.minOrder
	d := &a.pages[idx]
	if d.prev != nilPage {
		a.pages[d.prev].next = d.next
	} else {
		a.heads[li] = d.next
	}
	if d.next != nilPage {
		a.pages[d.next].prev = d.prev
	}
	d.prev, d.next = nilPage, nilPage
	a.counts[li]--
}

// isLinked reports whether idx is currently in order's free list. A sole
// list member has both links nil, so the list head is consulted too.
func (a *Allocator) isLinked(idx int32, order int) bool {
	d := &a.pages[idx]
	return d.prev != nilPage || d.next != nilPage || a.heads[order-a.minOrder] == idx
}
