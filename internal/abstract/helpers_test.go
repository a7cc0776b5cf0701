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
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// strOps treats strings as chunks, tracking their length, newline count
// and largest byte.
type strOps struct {
	length, lines, maxByte Metric
}

func (o strOps) Measure(s string, into Metrics) {
	into.Set(o.length, len(s))
	into.Set(o.lines, strings.Count(s, "\n"))
	var mb int
	for i := 0; i < len(s); i++ {
		mb = max(mb, int(s[i]))
	}
	into.Set(o.maxByte, mb)
}

func (strOps) LeafSize(s string) int { return len(s) }

func (strOps) Merge(a, b string) string { return a + b }

func (strOps) Split(s string) []string {
	return []string{s[:len(s)/2], s[len(s)/2:]}
}

func makeTestConfig(thresh int) (*Config[string], strOps) {
	var ms MetricSet
	o := strOps{length: ms.Sum(), lines: ms.Sum(), maxByte: ms.Max()}
	return MakeConfig[string](&ms, thresh, o), o
}

func leavesOf(n *Node[string]) []string {
	var out []string
	n.Walk(func(s string) bool {
		out = append(out, s)
		return true
	})
	return out
}

func textOf(n *Node[string]) string {
	return strings.Join(leavesOf(n), "")
}

func randomString(rng *rand.Rand, n int) string {
	const alphabet = "abcxyz\n"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

func randomChunks(rng *rand.Rand, n, maxLen int) []string {
	chunks := make([]string, n)
	for i := range chunks {
		chunks[i] = randomString(rng, rng.Intn(maxLen+1))
	}
	return chunks
}

// checkTree verifies the structural invariants of a settled tree.
func checkTree(t *testing.T, cfg *Config[string], root *Node[string]) {
	t.Helper()
	require.False(t, root.IsLeaf(), "root must be internal")
	depth := -1
	var walk func(n *Node[string], d int)
	walk = func(n *Node[string], d int) {
		if n.IsLeaf() {
			if depth == -1 {
				depth = d
			}
			require.Equal(t, depth, d, "leaves at uneven depth")
			require.LessOrEqual(t, cfg.ops.LeafSize(n.Data()), cfg.LeafSplitThresh())
			require.Equal(t, cfg.Measure(n.Data()), n.Metrics())
			return
		}
		require.NotZero(t, n.Count())
		require.LessOrEqual(t, n.Count(), MaxChildren)
		exp := make(Metrics, cfg.Metrics().Len())
		for i := 0; i < n.Count(); i++ {
			c := n.Child(i)
			walk(c, d+1)
			cfg.Metrics().accumulateAll(exp, c.Metrics())
		}
		require.Equal(t, exp, n.Metrics())
	}
	walk(root, 0)
}

// prefixes returns the location of every leaf for metric m.
func prefixes(cfg *Config[string], m Metric, leaves []string) []int {
	out := make([]int, len(leaves))
	var acc int
	for i, l := range leaves {
		out[i] = acc
		acc = cfg.Accumulate(m, acc, cfg.Measure(l).Get(m))
	}
	return out
}
