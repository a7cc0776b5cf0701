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

import "fmt"

// Ops is implemented by clients to describe how chunks of the payload type
// are measured, split and merged. The tree trusts the implementation: the
// values written by Measure must be consistent under Merge and Split or
// later metric queries will silently return wrong answers.
type Ops[T any] interface {

	// Measure writes the metric values of chunk into into, which is zeroed
	// and sized for the metric set.
	Measure(chunk T, into Metrics)

	// LeafSize returns the weight used to decide splits and merges.
	LeafSize(chunk T) int

	// Merge returns the concatenation of two adjacent chunks.
	Merge(left, right T) T

	// Split breaks an oversized chunk into at least two chunks which,
	// merged back together, equal the original.
	Split(chunk T) []T
}

// Config binds the client operations to a frozen metric set and the leaf
// balance threshold. It is shared by every tree built from it.
type Config[T any] struct {
	ops             Ops[T]
	metrics         MetricSet
	leafSplitThresh int
	np              *zipperPool[T]
}

// MakeConfig constructs a Config. The metric set is frozen; registering
// further metrics on it panics.
func MakeConfig[T any](metrics *MetricSet, leafSplitThresh int, ops Ops[T]) *Config[T] {
	if leafSplitThresh < 1 {
		panic(fmt.Sprintf("abstract: leaf split threshold must be positive, got %d", leafSplitThresh))
	}
	if ops == nil {
		panic("abstract: nil Ops")
	}
	metrics.frozen = true
	return &Config[T]{
		ops:             ops,
		metrics:         *metrics,
		leafSplitThresh: leafSplitThresh,
		np:              getZipperPool[T](),
	}
}

// Metrics returns the metric set of the config.
func (c *Config[T]) Metrics() *MetricSet { return &c.metrics }

// LeafSplitThresh returns the leaf size above which chunks are split.
func (c *Config[T]) LeafSplitThresh() int { return c.leafSplitThresh }

// Accumulate folds b into a according to the kind of m.
func (c *Config[T]) Accumulate(m Metric, a, b int) int {
	return c.metrics.accumulate(m, a, b)
}

// Measure returns a freshly allocated metric vector for chunk.
func (c *Config[T]) Measure(chunk T) Metrics {
	ms := make(Metrics, c.metrics.Len())
	c.ops.Measure(chunk, ms)
	return ms
}

// remeasure overwrites ms with the metrics of chunk.
func (c *Config[T]) remeasure(chunk T, ms Metrics) {
	clear(ms)
	c.ops.Measure(chunk, ms)
}

// mergeable reports whether two adjacent chunks should become one leaf.
func (c *Config[T]) mergeable(a, b T) bool {
	return c.ops.LeafSize(a)+c.ops.LeafSize(b) < c.leafSplitThresh/2
}

// splitAll splits chunk until every piece fits under the threshold. The
// pieces are appended to dst.
func (c *Config[T]) splitAll(dst []T, chunk T) []T {
	if c.ops.LeafSize(chunk) <= c.leafSplitThresh {
		return append(dst, chunk)
	}
	parts := c.ops.Split(chunk)
	if len(parts) < 2 {
		panic(fmt.Sprintf("abstract: Split returned %d chunks for an oversized chunk", len(parts)))
	}
	for _, p := range parts {
		dst = c.splitAll(dst, p)
	}
	return dst
}

// settle splits oversized chunks and merges undersized neighbours,
// producing the chunks of leaves within the target bounds.
func (c *Config[T]) settle(chunks []T) []T {
	var out []T
	var pieces []T
	for _, chunk := range chunks {
		pieces = c.splitAll(pieces[:0], chunk)
		for _, p := range pieces {
			if n := len(out); n > 0 && c.mergeable(out[n-1], p) {
				out[n-1] = c.ops.Merge(out[n-1], p)
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
