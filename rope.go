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

// Package rope implements a persistent, chunked sequence which maintains
// client-defined aggregates ("metrics") over every subtree.
//
// Clients describe their payload with an Ops implementation and register the
// metrics they want tracked on a MetricSet. A Monoid binds the two and builds
// Ropes. Ropes are immutable; all reads and edits go through a Cursor.
//
// Every mutating Cursor operation takes an *Owner. Passing the owner which
// produced the receiver lets the implementation reuse the receiver's storage
// in place, consuming the receiver. Any other owner, including nil, leaves
// the receiver untouched and valid.
package rope

import (
	"errors"
	"iter"

	"github.com/ajwerner/rope/internal/abstract"
)

// ErrEmpty is returned when building a Rope from no elements. A Rope always
// holds at least one leaf.
var ErrEmpty = errors.New("rope: cannot build a rope from no elements")

// Metric identifies one aggregate tracked by a Monoid.
type Metric = abstract.Metric

// Metrics is a vector of metric values indexed by Metric.
type Metrics = abstract.Metrics

// MetricSet registers the metrics of a Monoid. Use Sum and Max to create
// metrics, then pass the set to NewMonoid. At most MaxMetrics metrics may be
// registered.
type MetricSet = abstract.MetricSet

// MaxMetrics is the number of metrics a MetricSet can hold.
const MaxMetrics = abstract.MaxMetrics

// Owner is an identity token used to decide whether an operation may reuse
// storage in place.
type Owner = abstract.Owner

// NewOwner returns a fresh owner token. The name is only used for debugging.
func NewOwner(name string) *Owner { return abstract.NewOwner(name) }

// Ops describes how chunks of type T are measured, split and merged.
//
// The container trusts the implementation: metrics must be consistent with
// Merge and Split, i.e. the metrics of merged chunks must equal the
// accumulation of the parts. Violations are not detected and corrupt later
// queries.
type Ops[T any] interface {

	// Measure writes the metric values of chunk into into, which is zeroed
	// and sized for the monoid's metric set.
	Measure(chunk T, into Metrics)

	// LeafSize returns the weight used to decide splits and merges. It need
	// not be one of the tracked metrics.
	LeafSize(chunk T) int

	// Merge returns the left-to-right concatenation of two adjacent chunks.
	// It is only called when their combined LeafSize is below half the
	// split threshold.
	Merge(left, right T) T

	// Split is called on chunks whose LeafSize exceeds the split threshold
	// and must return at least two chunks which recompose the original.
	Split(chunk T) []T
}

// Monoid is the strategy shared by a family of ropes over T.
type Monoid[T any] struct {
	cfg *abstract.Config[T]
}

// NewMonoid binds ops and the metrics registered on metrics. Leaves are
// split once their LeafSize exceeds leafSplitThresh. The metric set is
// frozen: registering more metrics on it afterwards panics.
func NewMonoid[T any](metrics *MetricSet, leafSplitThresh int, ops Ops[T]) *Monoid[T] {
	return &Monoid[T]{cfg: abstract.MakeConfig[T](metrics, leafSplitThresh, ops)}
}

// LeafSplitThresh returns the leaf size above which chunks are split.
func (m *Monoid[T]) LeafSplitThresh() int { return m.cfg.LeafSplitThresh() }

// Metrics returns the metric set of the monoid.
func (m *Monoid[T]) Metrics() *MetricSet { return m.cfg.Metrics() }

// Measure returns the metrics of a single chunk.
func (m *Monoid[T]) Measure(chunk T) Metrics { return m.cfg.Measure(chunk) }

// RopeOf builds a balanced Rope over elements. Oversized elements are split
// and small neighbours merged, so the leaves of the result need not match
// elements one to one. It returns ErrEmpty if elements is empty.
func (m *Monoid[T]) RopeOf(elements ...T) (Rope[T], error) {
	if len(elements) == 0 {
		return Rope[T]{}, ErrEmpty
	}
	return Rope[T]{root: m.cfg.Build(elements), mon: m}, nil
}

// Rope is an immutable sequence of chunks. Ropes are safe for concurrent
// reads. Two Ropes are equal if they share the same root, which is the case
// for a Rope and its copies but not for Ropes built independently.
//
// The zero Rope is not valid.
type Rope[T any] struct {
	root  *abstract.Node[T]
	mon   *Monoid[T]
	owner *Owner
}

// Size returns the value of m over the whole rope.
func (r Rope[T]) Size(m Metric) int {
	return r.root.Metrics().Get(m)
}

// Cursor returns a cursor positioned at the first leaf. If owner produced
// the rope, the cursor may reuse the rope's storage and the rope must no
// longer be used. Any other owner, nil included, marks the rope shared, so
// the cursor stays valid when the producer later consumes the rope.
func (r Rope[T]) Cursor(owner *Owner) *Cursor[T] {
	reuse := owner != nil && owner == r.owner
	return &Cursor[T]{
		z:   abstract.NewZipper(r.mon.cfg, r.root, owner, reuse),
		mon: r.mon,
	}
}

// Equal reports whether r and o share the same root.
func (r Rope[T]) Equal(o Rope[T]) bool { return r.root == o.root }

// Monoid returns the monoid the rope was built with.
func (r Rope[T]) Monoid() *Monoid[T] { return r.mon }

// Owner returns the owner which produced the rope, or nil.
func (r Rope[T]) Owner() *Owner { return r.owner }

// Height returns the height of the tree, counting the root and the leaves.
func (r Rope[T]) Height() int { return r.root.Height() }

// Len returns the number of leaves in the rope.
func (r Rope[T]) Len() int { return r.root.Leaves() }

// All returns an iterator over the leaf chunks in order.
func (r Rope[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		r.root.Walk(yield)
	}
}

// String returns a string description of the tree in which every internal
// node is parenthesized.
func (r Rope[T]) String() string {
	if r.root == nil {
		return "()"
	}
	return r.root.String()
}
