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

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type testOps struct {
	length, lines, maxByte Metric
}

func (o testOps) Measure(s string, into Metrics) {
	into.Set(o.length, len(s))
	into.Set(o.lines, strings.Count(s, "\n"))
	var mb int
	for i := 0; i < len(s); i++ {
		mb = max(mb, int(s[i]))
	}
	into.Set(o.maxByte, mb)
}

func (testOps) LeafSize(s string) int    { return len(s) }
func (testOps) Merge(a, b string) string { return a + b }
func (testOps) Split(s string) []string  { return []string{s[:len(s)/2], s[len(s)/2:]} }

func newTestMonoid(thresh int) (*Monoid[string], testOps) {
	var ms MetricSet
	o := testOps{length: ms.Sum(), lines: ms.Sum(), maxByte: ms.Max()}
	return NewMonoid[string](&ms, thresh, o), o
}

func randomText(rng *rand.Rand, n int) string {
	const alphabet = "abcdef\n"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

func randomRope(t *testing.T, rng *rand.Rand, mon *Monoid[string], n int) Rope[string] {
	elements := make([]string, n)
	for i := range elements {
		elements[i] = randomText(rng, rng.Intn(12))
	}
	r, err := mon.RopeOf(elements...)
	require.NoError(t, err)
	return r
}

func contents(r Rope[string]) string {
	return strings.Join(slices.Collect(r.All()), "")
}

func TestRope(t *testing.T) {
	mon, o := newTestMonoid(4)
	r, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	require.Equal(t, 6, r.Size(o.length))
	require.Equal(t, 3, r.Len())
	require.Equal(t, 2, r.Height())
	require.Equal(t, "(aa,bb,cc)", r.String())
	require.Nil(t, r.Owner())
	require.Same(t, mon, r.Monoid())

	c := r.Cursor(nil).Scan(nil, o.length, 3)
	require.Equal(t, "bb", c.Element())
	require.Equal(t, 2, c.Location(o.length))
	require.Equal(t, 2, c.Size(o.length))
}

func TestRopeOfEmpty(t *testing.T) {
	mon, _ := newTestMonoid(4)
	_, err := mon.RopeOf()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestMonoidAccessors(t *testing.T) {
	mon, _ := newTestMonoid(4)
	require.Equal(t, 4, mon.LeafSplitThresh())
	require.Equal(t, 3, mon.Metrics().Len())
	require.Equal(t, Metrics{3, 1, int('b')}, mon.Measure("a\nb"))
	require.Panics(t, func() { mon.Metrics().Sum() })
}

func TestMetricRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	mon, o := newTestMonoid(8)
	for i := 0; i < 20; i++ {
		r := randomRope(t, rng, mon, 1+rng.Intn(200))
		text := contents(r)
		require.Equal(t, len(text), r.Size(o.length))
		require.Equal(t, strings.Count(text, "\n"), r.Size(o.lines))
		require.Equal(t, mon.Measure(text).Get(o.maxByte), r.Size(o.maxByte))

		var sum, mx int
		for chunk := range r.All() {
			m := mon.Measure(chunk)
			sum += m.Get(o.length)
			mx = max(mx, m.Get(o.maxByte))
		}
		require.Equal(t, sum, r.Size(o.length))
		require.Equal(t, mx, r.Size(o.maxByte))
	}
}

func TestCursorScan(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	mon, o := newTestMonoid(8)
	r := randomRope(t, rng, mon, 300)
	text := contents(r)
	c := r.Cursor(nil)
	for i := 0; i < 500; i++ {
		v := rng.Intn(len(text) + 10)
		c = c.Scan(nil, o.length, v)
		loc := c.Location(o.length)
		require.Equal(t, text[loc:loc+c.Size(o.length)], c.Element())
		if v < len(text) {
			require.LessOrEqual(t, loc, v)
			require.Less(t, v, loc+c.Size(o.length))
		} else {
			require.Nil(t, c.Next(nil))
		}
	}
}

func TestCursorEnds(t *testing.T) {
	mon, o := newTestMonoid(4)
	r, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	owner := NewOwner("ends")
	c := r.Cursor(owner)
	require.Nil(t, c.Prev(owner))
	require.Equal(t, "aa", c.Element())

	var got []string
	for n := c; n != nil; n = n.Next(owner) {
		c = n
		got = append(got, n.Element())
	}
	require.Equal(t, []string{"aa", "bb", "cc"}, got)
	require.Nil(t, c.Next(owner))
	require.Equal(t, "cc", c.Element())
	require.Equal(t, 4, c.Location(o.length))
}

func TestCursorOwners(t *testing.T) {
	mon, o := newTestMonoid(4)
	r, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	a, b := NewOwner("a"), NewOwner("b")

	c := r.Cursor(a)
	require.Same(t, a, c.Owner())

	// Another owner forks the cursor.
	fork := c.Replace(b, "xx")
	require.NotSame(t, c, fork)
	require.Same(t, b, fork.Owner())
	require.Equal(t, "xx", fork.Element())
	require.Equal(t, "aa", c.Element())

	// The cursor's own owner edits in place.
	same := c.Scan(a, o.length, 2).Replace(a, "yy")
	require.Same(t, c, same)
	require.Equal(t, "yy", c.Element())

	require.Equal(t, "aayycc", contents(c.Rope(nil)))
	require.Equal(t, "xxbbcc", contents(fork.Rope(nil)))
	require.Equal(t, "aabbcc", contents(r))
}

func TestConsumedCursor(t *testing.T) {
	mon, o := newTestMonoid(4)
	r, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	owner := NewOwner("consume")

	c := r.Cursor(owner).Replace(owner, "zz")
	// Materializing for someone else leaves the cursor usable.
	other := c.Rope(nil)
	require.Nil(t, other.Owner())
	require.Equal(t, "zz", c.Element())

	mine := c.Rope(owner)
	require.Same(t, owner, mine.Owner())
	require.PanicsWithValue(t, "rope: use of consumed cursor", func() { c.Element() })
	require.PanicsWithValue(t, "rope: use of consumed cursor", func() { c.Scan(nil, o.length, 0) })
	require.PanicsWithValue(t, "rope: use of consumed cursor", func() { c.Rope(nil) })

	require.Equal(t, "zzbbcc", contents(mine))
	require.Equal(t, "zzbbcc", contents(other))
	require.Equal(t, "aabbcc", contents(r))
}

func TestRopeEqual(t *testing.T) {
	mon, o := newTestMonoid(4)
	r, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	r2, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	cp := r
	require.True(t, r.Equal(cp))
	require.False(t, r.Equal(r2))

	// Materializing without edits yields the same tree.
	require.True(t, r.Equal(r.Cursor(nil).Scan(nil, o.length, 4).Rope(nil)))
	require.False(t, r.Equal(r.Cursor(nil).Replace(nil, "aa").Rope(nil)))
}

func TestAllStops(t *testing.T) {
	mon, _ := newTestMonoid(4)
	r, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	var got []string
	for chunk := range r.All() {
		got = append(got, chunk)
		if chunk == "bb" {
			break
		}
	}
	require.Equal(t, []string{"aa", "bb"}, got)
}

type step struct {
	kind  int
	v     int
	chunk string
}

func randomScript(rng *rand.Rand, n int) []step {
	script := make([]step, n)
	for i := range script {
		script[i] = step{
			kind:  rng.Intn(5),
			v:     rng.Intn(400),
			chunk: randomText(rng, rng.Intn(20)),
		}
	}
	return script
}

// run applies script to r, using owners(i) as the owner of the i'th call.
func run(r Rope[string], o testOps, script []step, owners func(i int) *Owner) Rope[string] {
	var i int
	next := func() *Owner {
		i++
		return owners(i)
	}
	c := r.Cursor(next())
	for _, s := range script {
		switch owner := next(); s.kind {
		case 0:
			c = c.Scan(owner, o.length, s.v)
		case 1:
			if n := c.Next(owner); n != nil {
				c = n
			}
		case 2:
			if p := c.Prev(owner); p != nil {
				c = p
			}
		case 3:
			c = c.Replace(owner, s.chunk)
		case 4:
			loc := c.Location(o.length)
			r = c.Rope(owner)
			owner = next()
			c = r.Cursor(owner).Scan(owner, o.length, loc)
		}
	}
	return c.Rope(next())
}

func TestOwnerTransparency(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	mon, o := newTestMonoid(8)
	for i := 0; i < 20; i++ {
		r := randomRope(t, rng, mon, 1+rng.Intn(100))
		before := contents(r)
		script := randomScript(rng, 200)

		single := NewOwner("single")
		results := map[string]Rope[string]{
			"persistent": run(r, o, script, func(int) *Owner { return nil }),
			"single":     run(r, o, script, func(int) *Owner { return single }),
			"fresh": run(r, o, script, func(i int) *Owner {
				return NewOwner(fmt.Sprint("fresh", i))
			}),
		}
		exp := slices.Collect(results["persistent"].All())
		for name, res := range results {
			require.Equal(t, exp, slices.Collect(res.All()), name)
			require.Equal(t, mon.Measure(strings.Join(exp, "")).Get(o.length), res.Size(o.length), name)
		}
		require.Equal(t, before, contents(r))
	}
}

func TestCursorSurvivesProducerReuse(t *testing.T) {
	mon, _ := newTestMonoid(4)
	r0, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	a, b := NewOwner("a"), NewOwner("b")

	r := r0.Cursor(a).Replace(a, "xx").Rope(a)
	y := r.Cursor(b)
	z := r.Cursor(a).Replace(a, "zz").Rope(a)

	require.Equal(t, "xx", y.Element())
	require.Equal(t, "xxbbcc", contents(y.Rope(nil)))
	require.Equal(t, "zzbbcc", contents(z))
	require.Equal(t, "aabbcc", contents(r0))
}

func TestRopeSurvivesProducerReuse(t *testing.T) {
	mon, o := newTestMonoid(4)
	r0, err := mon.RopeOf("aa", "bb", "cc")
	require.NoError(t, err)
	a, b := NewOwner("a"), NewOwner("b")

	r := r0.Cursor(a).Replace(a, "xx").Rope(a)
	// Materializing without edits hands b the same tree.
	rb := r.Cursor(b).Rope(b)
	require.True(t, rb.Equal(r))
	z := r.Cursor(a).Scan(a, o.length, 3).Replace(a, "zz").Rope(a)

	require.Equal(t, "xxbbcc", contents(rb))
	require.Equal(t, "xxzzcc", contents(z))

	// b may still edit its rope in place without disturbing a's.
	rb = rb.Cursor(b).Scan(b, o.length, 5).Replace(b, "yy").Rope(b)
	require.Equal(t, "xxbbyy", contents(rb))
	require.Equal(t, "xxzzcc", contents(z))
}

// TestHandlesUnderMixedOwners keeps many ropes and cursors alive at once,
// deriving each from another under a random owner. Only the handles an
// operation consumes are dropped, and everything else must keep its
// contents.
func TestHandlesUnderMixedOwners(t *testing.T) {
	type ropeHandle struct {
		r    Rope[string]
		text string
	}
	type cursorHandle struct {
		c    *Cursor[string]
		text string
	}
	const maxHandles = 8
	mon, o := newTestMonoid(8)
	owners := []*Owner{nil, NewOwner("a"), NewOwner("b"), NewOwner("c")}
	for seed := int64(0); seed < 40; seed++ {
		rng := rand.New(rand.NewSource(seed))
		r := randomRope(t, rng, mon, 1+rng.Intn(40))
		ropes := []ropeHandle{{r, contents(r)}}
		var cursors []cursorHandle

		check := func(step int) {
			for _, h := range ropes {
				require.Equal(t, h.text, contents(h.r), "seed %d step %d", seed, step)
				require.Equal(t, mon.Measure(h.text), Metrics{
					h.r.Size(o.length), h.r.Size(o.lines), h.r.Size(o.maxByte),
				}, "seed %d step %d", seed, step)
			}
			for _, h := range cursors {
				loc, size := h.c.Location(o.length), h.c.Size(o.length)
				require.LessOrEqual(t, loc+size, len(h.text), "seed %d step %d", seed, step)
				require.Equal(t, h.text[loc:loc+size], h.c.Element(), "seed %d step %d", seed, step)
			}
		}

		for step := 0; step < 300; step++ {
			owner := owners[rng.Intn(len(owners))]
			if len(ropes) > 0 && (len(cursors) == 0 || rng.Intn(4) == 0) {
				i := rng.Intn(len(ropes))
				h := ropes[i]
				c := h.r.Cursor(owner)
				if owner != nil && owner == h.r.Owner() {
					ropes = slices.Delete(ropes, i, i+1)
				}
				cursors = append(cursors, cursorHandle{c, h.text})
			} else {
				i := rng.Intn(len(cursors))
				h := cursors[i]
				own := owner != nil && owner == h.c.Owner()
				text := h.text
				var next *Cursor[string]
				switch rng.Intn(5) {
				case 0:
					next = h.c.Scan(owner, o.length, rng.Intn(len(text)+4))
				case 1:
					next = h.c.Next(owner)
				case 2:
					next = h.c.Prev(owner)
				case 3:
					loc, size := h.c.Location(o.length), h.c.Size(o.length)
					chunk := randomText(rng, rng.Intn(20))
					next = h.c.Replace(owner, chunk)
					text = text[:loc] + chunk + text[loc+size:]
				case 4:
					ropes = append(ropes, ropeHandle{h.c.Rope(owner), text})
					if own {
						cursors = slices.Delete(cursors, i, i+1)
					}
				}
				switch {
				case next == nil:
				case own:
					require.Same(t, h.c, next)
					cursors[i].text = text
				default:
					require.NotSame(t, h.c, next)
					cursors = append(cursors, cursorHandle{next, text})
				}
			}
			// Dropping a handle is always allowed.
			for len(ropes) > maxHandles {
				i := rng.Intn(len(ropes))
				ropes = slices.Delete(ropes, i, i+1)
			}
			for len(cursors) > maxHandles {
				i := rng.Intn(len(cursors))
				cursors = slices.Delete(cursors, i, i+1)
			}
			check(step)
		}
		for _, h := range cursors {
			require.Equal(t, h.text, contents(h.c.Rope(nil)), "seed %d", seed)
		}
	}
}
