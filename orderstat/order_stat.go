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

// Package orderstat provides a persistent sequence with positional access,
// kept as a rope of item slices counted by a single metric.
package orderstat

import (
	"fmt"
	"slices"

	"github.com/ajwerner/rope"
)

// chunkSize is the number of items above which a leaf is split.
const chunkSize = 32

// Seq is an immutable sequence of items. Edits return a new Seq sharing
// most of its storage with the receiver.
type Seq[T any] struct {
	r     rope.Rope[[]T]
	count rope.Metric
}

// Make returns a Seq holding items. The slice is copied.
func Make[T any](items ...T) Seq[T] {
	var ms rope.MetricSet
	count := ms.Sum()
	mon := rope.NewMonoid[[]T](&ms, chunkSize, ops[T]{count: count})
	r, err := mon.RopeOf(slices.Clone(items))
	if err != nil {
		panic(err)
	}
	return Seq[T]{r: r, count: count}
}

// Len returns the number of items.
func (s Seq[T]) Len() int { return s.r.Size(s.count) }

// Nth returns the i'th item.
func (s Seq[T]) Nth(i int) T {
	s.check(i, s.Len())
	it := s.MakeIter()
	it.Nth(i)
	return it.Cur()
}

// Set returns a Seq with the i'th item replaced by v.
func (s Seq[T]) Set(i int, v T) Seq[T] {
	s.check(i, s.Len())
	return s.edit(i, func(chunk []T, at int) []T {
		chunk = slices.Clone(chunk)
		chunk[at] = v
		return chunk
	})
}

// Insert returns a Seq with items inserted before position i. An i equal
// to Len appends.
func (s Seq[T]) Insert(i int, items ...T) Seq[T] {
	s.check(i, s.Len()+1)
	return s.edit(i, func(chunk []T, at int) []T {
		return slices.Concat(chunk[:at], items, chunk[at:])
	})
}

// Remove returns a Seq without the i'th item.
func (s Seq[T]) Remove(i int) Seq[T] {
	s.check(i, s.Len())
	return s.edit(i, func(chunk []T, at int) []T {
		return slices.Concat(chunk[:at], chunk[at+1:])
	})
}

// All returns the items in order.
func (s Seq[T]) All() []T {
	out := make([]T, 0, s.Len())
	for chunk := range s.r.All() {
		out = append(out, chunk...)
	}
	return out
}

func (s Seq[T]) check(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("orderstat: index %d out of range [0, %d)", i, n))
	}
}

// edit rewrites the leaf holding position i. A fresh owner lets the edit
// write the nodes it creates in place without touching the receiver.
func (s Seq[T]) edit(i int, f func(chunk []T, at int) []T) Seq[T] {
	owner := rope.NewOwner("orderstat")
	c := s.r.Cursor(owner).Scan(owner, s.count, i)
	at := i - c.Location(s.count)
	s.r = c.Replace(owner, f(c.Element(), at)).Rope(owner)
	return s
}

// Iterator walks a Seq by position. Iterators may be copied; a copy shares
// its cursor with the original until either of them moves, after which the
// one that did not move last seeks a cursor of its own.
type Iterator[T any] struct {
	s     Seq[T]
	st    *iterState[T]
	idx   int
	pos   int
	valid bool
}

type iterState[T any] struct {
	owner *rope.Owner
	c     *rope.Cursor[[]T]
	// holder is the iterator allowed to move c in place.
	holder *Iterator[T]
}

// MakeIter returns an iterator over s, initially invalid.
func (s Seq[T]) MakeIter() Iterator[T] {
	return Iterator[T]{s: s}
}

// cursor returns the iterator's cursor, forking it under a fresh owner if
// another copy of the iterator holds it.
func (it *Iterator[T]) cursor() *rope.Cursor[[]T] {
	switch {
	case it.st == nil:
		owner := rope.NewOwner("orderstat.Iterator")
		it.st = &iterState[T]{owner: owner, c: it.s.r.Cursor(owner), holder: it}
	case it.st.holder != it:
		owner := rope.NewOwner("orderstat.Iterator")
		c := it.st.c
		if it.valid {
			c = c.Scan(owner, it.s.count, it.idx)
			it.pos = it.idx - c.Location(it.s.count)
		} else {
			c = c.Scan(owner, it.s.count, 0)
		}
		it.st = &iterState[T]{owner: owner, c: c, holder: it}
	}
	return it.st.c
}

// Nth positions the iterator at the i'th item. The iterator is invalid if i
// is out of range.
func (it *Iterator[T]) Nth(i int) {
	c := it.cursor()
	it.valid = i >= 0 && i < it.s.Len()
	if !it.valid {
		return
	}
	c = c.Scan(it.st.owner, it.s.count, i)
	it.st.c, it.idx, it.pos = c, i, i-c.Location(it.s.count)
}

// First positions the iterator at the first item.
func (it *Iterator[T]) First() { it.Nth(0) }

// Last positions the iterator at the last item.
func (it *Iterator[T]) Last() { it.Nth(it.s.Len() - 1) }

// Next moves to the following item.
func (it *Iterator[T]) Next() {
	if !it.valid {
		return
	}
	c := it.cursor()
	it.idx++
	it.pos++
	for it.pos >= len(c.Element()) {
		n := c.Next(it.st.owner)
		if n == nil {
			it.valid = false
			return
		}
		c, it.pos = n, 0
		it.st.c = c
	}
}

// Valid reports whether the iterator is positioned at an item.
func (it *Iterator[T]) Valid() bool { return it.valid }

// Cur returns the current item.
func (it *Iterator[T]) Cur() T { return it.cursor().Element()[it.pos] }

type ops[T any] struct {
	count rope.Metric
}

func (o ops[T]) Measure(chunk []T, into rope.Metrics) { into.Set(o.count, len(chunk)) }

func (ops[T]) LeafSize(chunk []T) int { return len(chunk) }

func (ops[T]) Merge(left, right []T) []T { return slices.Concat(left, right) }

// Split halves chunk. Chunks are never written after they are stored, so the
// halves may share the backing array.
func (ops[T]) Split(chunk []T) [][]T {
	n := len(chunk) / 2
	return [][]T{chunk[:n:n], chunk[n:]}
}
