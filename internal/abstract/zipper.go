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

import "slices"

// Zipper is a cursor focused on one leaf of a tree. It retains the path
// back to the root so that it can move to neighbouring leaves, locate the
// focus by metric and rewrite leaves. Edits are kept in the path and only
// folded into new nodes when the zipper ascends; Root materializes the
// result.
//
// A Zipper is not safe for concurrent use. Nodes may be mutated in place
// only when the zipper's owner created them and holds them exclusively;
// everything else is copied on write, so trees the zipper was created from
// remain valid.
type Zipper[T any] struct {
	cfg   *Config[T]
	owner *Owner
	s     pathStack[T]
}

// NewZipper returns a zipper focused on the first leaf of root. If reuse is
// set, the caller asserts that root is held only by the tree being edited,
// which lets the zipper mutate nodes owner created in place. Otherwise the
// zipper counts as another holder of root, so no later zipper may reuse
// storage this one reads.
func NewZipper[T any](cfg *Config[T], root *Node[T], owner *Owner, reuse bool) *Zipper[T] {
	z := cfg.np.get()
	z.cfg = cfg
	z.owner = owner
	excl := reuse && owner != nil
	if !excl {
		root.incRef()
	}
	z.s.push(level[T]{
		children:  []*Node[T]{root},
		exclusive: excl,
	})
	z.DownToLeaf()
	return z
}

// Owner returns the owner of the zipper.
func (z *Zipper[T]) Owner() *Owner { return z.owner }

// Config returns the zipper's config.
func (z *Zipper[T]) Config() *Config[T] { return z.cfg }

// Depth returns the number of internal levels above the focus.
func (z *Zipper[T]) Depth() int { return z.s.len() - 1 }

// Mutable returns a zipper which the given owner may edit. That is the
// receiver itself if owner is the zipper's owner, in which case the caller
// must stop using any previous handle to it. Otherwise it is a clone and the
// receiver is unaffected.
func (z *Zipper[T]) Mutable(owner *Owner) *Zipper[T] {
	if owner != nil && owner == z.owner {
		return z
	}
	return z.Clone(owner)
}

// Clone returns an independent copy of the zipper, focused on the same leaf,
// for use by owner. Every node either copy can reach becomes shared, so
// neither will mutate storage the other observes.
func (z *Zipper[T]) Clone(owner *Owner) *Zipper[T] {
	c := z.cfg.np.get()
	c.cfg = z.cfg
	c.owner = owner
	for i, n := 0, z.s.len(); i < n; i++ {
		l := z.s.at(i)
		if l.node != nil {
			l.node.incRef()
		}
		incRefAll(l.children)
		cl := *l
		cl.children = slices.Clone(l.children)
		cl.private = true
		cl.exclusive = false
		c.s.push(cl)

		// A dirty exclusive list was already written in place and nothing
		// else reads it, so the original may keep writing it. A clean one
		// must be copied before its next write.
		if l.exclusive {
			l.exclusive = false
			l.private = l.dirty
		}
	}
	return c
}

// Release returns the zipper to its pool. The zipper must not be used
// afterwards.
func (z *Zipper[T]) Release() {
	z.cfg.np.put(z)
}

// DownToLeaf descends from the current focus to the leftmost leaf below it.
func (z *Zipper[T]) DownToLeaf() {
	z.descend(false)
}

func (z *Zipper[T]) descend(last bool) {
	for {
		n := z.s.top().focus()
		if n.leaf {
			return
		}
		z.push(n, last)
	}
}

// push descends into n, the focus of the current level.
func (z *Zipper[T]) push(n *Node[T], last bool) {
	excl := z.s.top().ownsChildren() && n.reusable(z.owner)
	pos := 0
	if last {
		pos = len(n.children) - 1
	}
	z.s.push(level[T]{
		node:      n,
		children:  n.children,
		pos:       pos,
		exclusive: excl,
	})
}

func (z *Zipper[T]) focus() *Node[T] {
	return z.s.top().focus()
}

// Element returns the chunk of the focused leaf.
func (z *Zipper[T]) Element() T {
	return z.focus().data
}

// Size returns the value of m for the focused leaf alone.
func (z *Zipper[T]) Size(m Metric) int {
	return z.focus().metrics[m.id]
}

// Location returns the accumulated value of m over all leaves strictly
// before the focus.
func (z *Zipper[T]) Location(m Metric) int {
	return z.base(m, z.s.len())
}

// base accumulates m over the left siblings on the first depth levels of the
// path, which is the location of the first node of level depth.
func (z *Zipper[T]) base(m Metric, depth int) int {
	var acc int
	for i := 0; i < depth; i++ {
		l := z.s.at(i)
		for _, n := range l.children[:l.pos] {
			acc = z.cfg.metrics.accumulate(m, acc, n.metrics[m.id])
		}
	}
	return acc
}

// Scan moves the focus to the first leaf L for which the accumulation of
// location(m, L) and size(m, L) exceeds v. For a sum metric that is the leaf
// with location(m, L) <= v < location(m, L)+size(m, L). If no leaf
// qualifies, the focus moves to the last leaf.
//
// Forward scans resume from the current path. A target before the focus
// restarts from the root.
func (z *Zipper[T]) Scan(m Metric, v int) {
	loc := z.Location(m)
	if v < loc {
		z.toRoot()
		if !z.seek(m, v, 0, 0) {
			z.toLast()
		}
		return
	}
	if z.cfg.metrics.accumulate(m, loc, z.Size(m)) > v {
		return
	}
	for {
		l := z.s.top()
		acc := z.base(m, z.s.len()-1)
		for _, n := range l.children[:l.pos+1] {
			acc = z.cfg.metrics.accumulate(m, acc, n.metrics[m.id])
		}
		if z.seek(m, v, l.pos+1, acc) {
			return
		}
		if z.s.len() == 1 {
			z.toLast()
			return
		}
		z.ascend()
	}
}

// seek searches the current level from position from for the first child
// whose subtree carries the accumulation of m past v, where acc is the
// location of that position, and descends to the matching leaf. It returns
// false without moving if there is none.
func (z *Zipper[T]) seek(m Metric, v, from, acc int) bool {
	pos, acc, ok := z.find(m, v, from, acc)
	if !ok {
		return false
	}
	z.s.top().pos = pos
	for {
		n := z.focus()
		if n.leaf {
			return true
		}
		z.push(n, false)
		pos, acc, ok = z.find(m, v, 0, acc)
		if !ok {
			// Only reachable with inconsistent metrics.
			pos = len(n.children) - 1
		}
		z.s.top().pos = pos
	}
}

func (z *Zipper[T]) find(m Metric, v, from, acc int) (pos, before int, ok bool) {
	l := z.s.top()
	for i := from; i < len(l.children); i++ {
		next := z.cfg.metrics.accumulate(m, acc, l.children[i].metrics[m.id])
		if next > v {
			return i, acc, true
		}
		acc = next
	}
	return 0, acc, false
}

// toRoot ascends to the virtual root level, folding in all edits.
func (z *Zipper[T]) toRoot() {
	for z.s.len() > 1 {
		z.ascend()
	}
}

func (z *Zipper[T]) toLast() {
	z.toRoot()
	l := z.s.top()
	l.pos = len(l.children) - 1
	z.descend(true)
}

// HasNext reports whether a leaf follows the focus.
func (z *Zipper[T]) HasNext() bool {
	for i, n := 0, z.s.len(); i < n; i++ {
		if l := z.s.at(i); l.pos+1 < len(l.children) {
			return true
		}
	}
	return false
}

// HasPrev reports whether a leaf precedes the focus.
func (z *Zipper[T]) HasPrev() bool {
	for i, n := 0, z.s.len(); i < n; i++ {
		if z.s.at(i).pos > 0 {
			return true
		}
	}
	return false
}

// NextLeaf moves the focus to the following leaf. It returns false, leaving
// the zipper untouched, if the focus is the last leaf.
func (z *Zipper[T]) NextLeaf() bool {
	if !z.HasNext() {
		return false
	}
	for {
		if l := z.s.top(); l.pos+1 < len(l.children) {
			l.pos++
			z.descend(false)
			return true
		}
		z.ascend()
	}
}

// PrevLeaf moves the focus to the preceding leaf. It returns false, leaving
// the zipper untouched, if the focus is the first leaf.
func (z *Zipper[T]) PrevLeaf() bool {
	if !z.HasPrev() {
		return false
	}
	for {
		if l := z.s.top(); l.pos > 0 {
			l.pos--
			z.descend(true)
			return true
		}
		z.ascend()
	}
}

// Replace replaces the chunk of the focused leaf. An oversized chunk is
// split right away and the focus moves to the first piece; undersized
// leaves are merged with their neighbours when the zipper ascends.
func (z *Zipper[T]) Replace(chunk T) {
	l := z.s.top()
	l.writable()
	pieces := z.cfg.splitAll(nil, chunk)
	if leaf := l.focus(); len(pieces) == 1 && leaf.reusable(z.owner) {
		leaf.data = pieces[0]
		z.cfg.remeasure(leaf.data, leaf.metrics)
		l.dirty = true
		return
	}
	nodes := make([]*Node[T], len(pieces))
	for i, p := range pieces {
		nodes[i] = z.cfg.newLeaf(z.owner, p)
	}
	l.splice(nodes, 0)
}

// Root folds every pending edit into the tree and returns its root. The
// zipper is left at the virtual root level and must not be used further.
func (z *Zipper[T]) Root() *Node[T] {
	z.toRoot()
	l := z.s.top()
	if !l.dirty {
		return l.children[0]
	}
	z.normalize(l)
	nodes := l.children
	for len(nodes) > 1 {
		nodes = z.cfg.group(z.owner, nodes)
	}
	root := nodes[0]
	for len(root.children) == 1 && !root.children[0].leaf {
		root = root.children[0]
	}
	return root
}

// ascend pops the current level. If it was edited, its node is rebuilt and
// the result replaces the focus of the parent level.
func (z *Zipper[T]) ascend() {
	l := z.s.pop()
	if !l.dirty {
		return
	}
	nodes, at := z.rebuild(&l)
	z.s.top().splice(nodes, at)
}

// rebuild turns the child list of an edited level into one or more nodes
// within the branching bounds. It returns the nodes and the index of the one
// holding the level's focus.
func (z *Zipper[T]) rebuild(l *level[T]) ([]*Node[T], int) {
	if !l.ownsChildren() {
		panic("abstract: rebuilding a level which was never written")
	}
	z.normalize(l)
	k := (len(l.children) + MaxChildren - 1) / MaxChildren
	if k == 1 {
		return []*Node[T]{z.parent(l, l.children)}, 0
	}
	nodes := make([]*Node[T], k)
	var at, lo int
	for i := range nodes {
		hi := lo + (len(l.children)-lo)/(k-i)
		if lo <= l.pos && l.pos < hi {
			at = i
		}
		children := slices.Clone(l.children[lo:hi])
		if i == 0 {
			nodes[i] = z.parent(l, children)
		} else {
			nodes[i] = z.cfg.newInternal(z.owner, children)
		}
		lo = hi
	}
	return nodes, at
}

// parent returns a node over children, reusing the level's node when the
// zipper holds it exclusively.
func (z *Zipper[T]) parent(l *level[T], children []*Node[T]) *Node[T] {
	if !l.exclusive {
		return z.cfg.newInternal(z.owner, children)
	}
	n := l.node
	n.children = children
	z.cfg.update(n)
	return n
}

// normalize merges adjacent siblings of an edited level which are small
// enough to share a node, keeping the position on the node containing the
// previous focus.
func (z *Zipper[T]) normalize(l *level[T]) {
	in := l.children
	out := in[:0]
	pos := l.pos
	for i, n := range in {
		if j := len(out) - 1; j >= 0 {
			if merged, ok := z.merge(out[j], n); ok {
				out[j] = merged
				if i == l.pos {
					pos = j
				}
				continue
			}
		}
		out = append(out, n)
		if i == l.pos {
			pos = len(out) - 1
		}
	}
	clear(in[len(out):])
	l.children = out
	l.pos = pos
}

// merge combines two adjacent siblings of the same height if the balance
// policy calls for it.
func (z *Zipper[T]) merge(a, b *Node[T]) (*Node[T], bool) {
	if a.leaf {
		if !z.cfg.mergeable(a.data, b.data) {
			return nil, false
		}
		data := z.cfg.ops.Merge(a.data, b.data)
		if a.reusable(z.owner) {
			a.data = data
			z.cfg.remeasure(data, a.metrics)
			return a, true
		}
		return z.cfg.newLeaf(z.owner, data), true
	}
	na, nb := len(a.children), len(b.children)
	if na+nb > MaxChildren || (na >= MinChildren && nb >= MinChildren) {
		return nil, false
	}
	if !b.reusable(z.owner) {
		incRefAll(b.children)
	}
	if a.reusable(z.owner) {
		a.children = append(a.children, b.children...)
		z.cfg.update(a)
		return a, true
	}
	incRefAll(a.children)
	children := make([]*Node[T], 0, na+nb)
	children = append(children, a.children...)
	children = append(children, b.children...)
	return z.cfg.newInternal(z.owner, children), true
}
