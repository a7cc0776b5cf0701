// Copyright 2018 The Cockroach Authors.
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

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// TODO(ajwerner): It'd be amazing to find a way to make this not a single
// compile-time constant.

const (
	MaxChildren = 8
	MinChildren = MaxChildren / 2
)

// Node is a leaf or an internal node of a tree. Once a node is reachable from
// a published tree it is never modified, except by a zipper which holds it
// exclusively (see reusable).
type Node[T any] struct {
	// ref is the number of child lists and non-reusing zippers which hold
	// the node. It only grows when the node is shared between versions; a
	// value of 1 together with a matching owner grants the right to mutate
	// in place.
	ref      int32
	owner    *Owner
	leaf     bool
	data     T
	metrics  Metrics
	children []*Node[T]
}

// IsLeaf returns whether this node is a leaf.
func (n *Node[T]) IsLeaf() bool { return n.leaf }

// Count returns the number of children of an internal node.
func (n *Node[T]) Count() int { return len(n.children) }

// Child returns the i'th child of an internal node.
func (n *Node[T]) Child(i int) *Node[T] { return n.children[i] }

// Data returns the chunk held by a leaf.
func (n *Node[T]) Data() T { return n.data }

// Metrics returns the cached aggregate of the subtree. The returned vector
// must not be modified.
func (n *Node[T]) Metrics() Metrics { return n.metrics }

// Height returns the number of nodes on a path from n to a leaf, counting
// both.
func (n *Node[T]) Height() int {
	h := 1
	for !n.leaf {
		n = n.children[0]
		h++
	}
	return h
}

// Leaves returns the number of leaves under n.
func (n *Node[T]) Leaves() int {
	if n.leaf {
		return 1
	}
	var c int
	for _, child := range n.children {
		c += child.Leaves()
	}
	return c
}

// Walk calls f on every leaf chunk in order until f returns false.
func (n *Node[T]) Walk(f func(T) bool) bool {
	if n.leaf {
		return f(n.data)
	}
	for _, child := range n.children {
		if !child.Walk(f) {
			return false
		}
	}
	return true
}

func (c *Config[T]) newLeaf(owner *Owner, chunk T) *Node[T] {
	return &Node[T]{
		ref:     1,
		owner:   owner,
		leaf:    true,
		data:    chunk,
		metrics: c.Measure(chunk),
	}
}

// newInternal creates an internal node owning the given child list.
func (c *Config[T]) newInternal(owner *Owner, children []*Node[T]) *Node[T] {
	n := &Node[T]{
		ref:      1,
		owner:    owner,
		children: children,
		metrics:  make(Metrics, c.metrics.Len()),
	}
	c.update(n)
	return n
}

// update recomputes the metrics of an internal node from its children.
func (c *Config[T]) update(n *Node[T]) {
	clear(n.metrics)
	for _, child := range n.children {
		c.metrics.accumulateAll(n.metrics, child.metrics)
	}
}

// incRef acquires a reference to the node.
func (n *Node[T]) incRef() {
	atomic.AddInt32(&n.ref, 1)
}

// shared reports whether more than one list holds the node.
func (n *Node[T]) shared() bool {
	return atomic.LoadInt32(&n.ref) > 1
}

// incRefAll acquires a reference to every node of a list which is about to
// be copied.
func incRefAll[T any](nodes []*Node[T]) {
	for _, n := range nodes {
		n.incRef()
	}
}

// reusable reports whether the node itself may be mutated in place by a
// writer identified by owner. The caller must separately establish that
// every ancestor on its path is exclusive as well.
func (n *Node[T]) reusable(owner *Owner) bool {
	return owner != nil && n.owner == owner && !n.shared()
}

// Build constructs a balanced tree over elements. Oversized chunks are
// split, undersized neighbours are merged, and the resulting leaves are
// grouped bottom up. The root is always an internal node. It returns nil if
// elements is empty.
func (c *Config[T]) Build(elements []T) *Node[T] {
	if len(elements) == 0 {
		return nil
	}
	chunks := c.settle(elements)
	nodes := make([]*Node[T], len(chunks))
	for i, chunk := range chunks {
		nodes[i] = c.newLeaf(nil, chunk)
	}
	for {
		nodes = c.group(nil, nodes)
		if len(nodes) == 1 {
			return nodes[0]
		}
	}
}

// group packs nodes into parents of at most MaxChildren children. The
// trailing parent may be smaller than the others.
func (c *Config[T]) group(owner *Owner, nodes []*Node[T]) []*Node[T] {
	parents := make([]*Node[T], 0, (len(nodes)+MaxChildren-1)/MaxChildren)
	for len(nodes) > 0 {
		n := min(MaxChildren, len(nodes))
		children := make([]*Node[T], n)
		copy(children, nodes[:n])
		parents = append(parents, c.newInternal(owner, children))
		nodes = nodes[n:]
	}
	return parents
}

// String returns a parenthesized description of the subtree, similar to the
// https://en.wikipedia.org/wiki/Newick_format.
func (n *Node[T]) String() string {
	var b strings.Builder
	n.writeString(&b)
	return b.String()
}

func (n *Node[T]) writeString(b *strings.Builder) {
	if n.leaf {
		fmt.Fprintf(b, "%v", n.data)
		return
	}
	b.WriteString("(")
	for i, child := range n.children {
		if i > 0 {
			b.WriteString(",")
		}
		child.writeString(b)
	}
	b.WriteString(")")
}
