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

// MaxMetrics is the number of metrics a single MetricSet can hold. Each
// metric reserves one bit of a uint32 kind mask.
const MaxMetrics = 31

// Kind classifies how a metric accumulates over a subtree.
type Kind int

const (

	// Sum metrics add the values of all leaves in a subtree.
	Sum Kind = iota

	// Max metrics take the largest value of any leaf in a subtree.
	Max
)

func (k Kind) String() string {
	switch k {
	case Sum:
		return "sum"
	case Max:
		return "max"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Metric identifies one aggregate tracked by every node of a tree. Metrics
// are only meaningful for the MetricSet which created them.
type Metric struct {
	id uint8
}

// ID returns the index of the metric within its set.
func (m Metric) ID() int { return int(m.id) }

// Metrics is a vector of metric values indexed by Metric.
type Metrics []int

// Get returns the value of m.
func (ms Metrics) Get(m Metric) int { return ms[m.id] }

// Set sets the value of m.
func (ms Metrics) Set(m Metric, v int) { ms[m.id] = v }

// MetricSet assigns metric identifiers. The zero value is an empty set ready
// for registration. A set is frozen once it is bound to a Config.
type MetricSet struct {
	n       uint8
	maxMask uint32
	frozen  bool
}

// Sum registers a new sum-accumulated metric.
func (s *MetricSet) Sum() Metric { return s.register(Sum) }

// Max registers a new max-accumulated metric.
func (s *MetricSet) Max() Metric { return s.register(Max) }

func (s *MetricSet) register(k Kind) Metric {
	if s.frozen {
		panic("abstract: metric registered after the set was bound to a monoid")
	}
	if s.n >= MaxMetrics {
		panic(fmt.Sprintf("abstract: cannot register more than %d metrics", MaxMetrics))
	}
	m := Metric{id: s.n}
	if k == Max {
		s.maxMask |= 1 << s.n
	}
	s.n++
	return m
}

// Len returns the number of registered metrics.
func (s *MetricSet) Len() int { return int(s.n) }

// Kind returns the accumulation kind of m.
func (s *MetricSet) Kind(m Metric) Kind {
	if s.maxMask&(1<<m.id) != 0 {
		return Max
	}
	return Sum
}

// accumulate folds b into a according to the kind of m.
func (s *MetricSet) accumulate(m Metric, a, b int) int {
	if s.maxMask&(1<<m.id) != 0 {
		if b > a {
			return b
		}
		return a
	}
	return a + b
}

// accumulateAll folds src into dst for every metric.
func (s *MetricSet) accumulateAll(dst, src Metrics) {
	for i := uint8(0); i < s.n; i++ {
		if s.maxMask&(1<<i) != 0 {
			if src[i] > dst[i] {
				dst[i] = src[i]
			}
		} else {
			dst[i] += src[i]
		}
	}
}
