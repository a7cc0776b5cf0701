// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package rope

import "github.com/ajwerner/rope/internal/abstract"

// Cursor is focused on one leaf of a rope and is the only way to navigate or
// edit it. Cursors are not safe for concurrent use.
//
// Each operation taking an owner returns the cursor to continue with. When
// owner is the cursor's own owner that is the receiver itself, mutated in
// place; otherwise it is a new cursor and the receiver is unaffected.
type Cursor[T any] struct {
	z   *abstract.Zipper[T]
	mon *Monoid[T]
}

func (c *Cursor[T]) zipper() *abstract.Zipper[T] {
	if c.z == nil {
		panic("rope: use of consumed cursor")
	}
	return c.z
}

// mutable returns the cursor owner may edit.
func (c *Cursor[T]) mutable(owner *Owner) *Cursor[T] {
	z := c.zipper()
	if m := z.Mutable(owner); m != z {
		return &Cursor[T]{z: m, mon: c.mon}
	}
	return c
}

// Owner returns the owner of the cursor.
func (c *Cursor[T]) Owner() *Owner { return c.zipper().Owner() }

// Element returns the chunk of the focused leaf.
func (c *Cursor[T]) Element() T { return c.zipper().Element() }

// Size returns the value of m for the focused leaf.
func (c *Cursor[T]) Size(m Metric) int { return c.zipper().Size(m) }

// Location returns the accumulated value of m over all leaves before the
// focused one.
func (c *Cursor[T]) Location(m Metric) int { return c.zipper().Location(m) }

// Replace replaces the focused chunk. An oversized chunk is split and the
// cursor is left on the first piece.
func (c *Cursor[T]) Replace(owner *Owner, chunk T) *Cursor[T] {
	c = c.mutable(owner)
	c.z.Replace(chunk)
	return c
}

// Scan moves to the leaf L with Location(m) <= v < Location(m)+Size(m),
// or to the last leaf if v is at least the rope's total. For a max metric it
// moves to the first leaf whose Size(m) exceeds v.
//
// Scanning forward is cheap; scanning backwards restarts from the root.
func (c *Cursor[T]) Scan(owner *Owner, m Metric, v int) *Cursor[T] {
	c = c.mutable(owner)
	c.z.Scan(m, v)
	return c
}

// Next moves to the following leaf. It returns nil if the cursor is on the
// last leaf, in which case the receiver is unchanged and still valid.
func (c *Cursor[T]) Next(owner *Owner) *Cursor[T] {
	if !c.zipper().HasNext() {
		return nil
	}
	c = c.mutable(owner)
	c.z.NextLeaf()
	return c
}

// Prev moves to the preceding leaf. It returns nil if the cursor is on the
// first leaf, in which case the receiver is unchanged and still valid.
func (c *Cursor[T]) Prev(owner *Owner) *Cursor[T] {
	if !c.zipper().HasPrev() {
		return nil
	}
	c = c.mutable(owner)
	c.z.PrevLeaf()
	return c
}

// Rope materializes the edits made through the cursor into a new Rope
// produced by owner. If owner is the cursor's owner, the cursor is consumed
// and any further use of it panics.
func (c *Cursor[T]) Rope(owner *Owner) Rope[T] {
	z := c.zipper()
	if owner == nil || owner != z.Owner() {
		z = z.Clone(owner)
	} else {
		c.z = nil
	}
	root := z.Root()
	z.Release()
	return Rope[T]{root: root, mon: c.mon, owner: owner}
}
