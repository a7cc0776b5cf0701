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

package abstract

import "slices"

// level is one frame of a zipper's path: a child list, the focused position
// within it and what the zipper may do to it.
type level[T any] struct {
	// node is the node whose children the list came from. It is nil for the
	// virtual level above the root.
	node     *Node[T]
	children []*Node[T]
	pos      int

	// private is set once children is a copy held only by this zipper.
	private bool
	// exclusive is set when node is held only by this zipper, in which case
	// children aliases node.children and may be written in place.
	exclusive bool
	// dirty is set once children differs from what node describes.
	dirty bool
}

func (l *level[T]) focus() *Node[T] { return l.children[l.pos] }

// writable ensures the child list may be modified. Copying a list shares its
// nodes with the original, so every node in it gains a reference.
func (l *level[T]) writable() {
	if l.private || l.exclusive {
		return
	}
	l.children = slices.Clone(l.children)
	incRefAll(l.children)
	l.private = true
}

// ownsChildren reports whether nodes in the list may be exclusive to the
// zipper.
func (l *level[T]) ownsChildren() bool {
	return l.private || l.exclusive
}

// splice replaces the focused child with nodes. The position moves to
// nodes[at].
func (l *level[T]) splice(nodes []*Node[T], at int) {
	l.writable()
	if len(nodes) == 1 {
		l.children[l.pos] = nodes[0]
	} else {
		l.children = slices.Replace(l.children, l.pos, l.pos+1, nodes...)
	}
	l.pos += at
	l.dirty = true
}

// pathStack represents a stack of levels, which captures the path from the
// root to the focus of a zipper.
type pathStack[T any] struct {
	a    pathStackArr[T]
	aLen int16 // -1 when using s
	s    []level[T]
}

const pathStackDepth = 6

// Used to avoid allocations for stacks below a certain size.
type pathStackArr[T any] [pathStackDepth]level[T]

func (ps *pathStack[T]) push(l level[T]) {
	if ps.aLen == -1 {
		ps.s = append(ps.s, l)
	} else if int(ps.aLen) == len(ps.a) {
		ps.s = make([]level[T], int(ps.aLen)+1, 2*int(ps.aLen))
		copy(ps.s, ps.a[:])
		ps.s[int(ps.aLen)] = l
		ps.aLen = -1
	} else {
		ps.a[ps.aLen] = l
		ps.aLen++
	}
}

func (ps *pathStack[T]) pop() level[T] {
	if ps.aLen == -1 {
		l := ps.s[len(ps.s)-1]
		ps.s[len(ps.s)-1] = level[T]{}
		ps.s = ps.s[:len(ps.s)-1]
		return l
	}
	ps.aLen--
	l := ps.a[ps.aLen]
	ps.a[ps.aLen] = level[T]{}
	return l
}

func (ps *pathStack[T]) len() int {
	if ps.aLen == -1 {
		return len(ps.s)
	}
	return int(ps.aLen)
}

// at returns the i'th level counting from the virtual root level.
func (ps *pathStack[T]) at(i int) *level[T] {
	if ps.aLen == -1 {
		return &ps.s[i]
	}
	return &ps.a[i]
}

func (ps *pathStack[T]) top() *level[T] {
	return ps.at(ps.len() - 1)
}

func (ps *pathStack[T]) reset() {
	if ps.aLen == -1 {
		clear(ps.s)
		ps.s = ps.s[:0]
	} else {
		ps.a = pathStackArr[T]{}
		ps.aLen = 0
	}
}
