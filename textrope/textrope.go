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

// Package textrope instantiates rope for UTF-8 text held in string chunks.
//
// Grapheme and width counts are computed per chunk. Chunks are only ever
// split at grapheme boundaries, but an edit may place a combining sequence
// at the start of a chunk, in which case the cluster it belongs to is
// counted in both chunks.
package textrope

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ajwerner/rope"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// ErrOffset is returned for byte offsets outside the text or inside a
// UTF-8 sequence.
var ErrOffset = errors.New("textrope: invalid offset")

// Metrics are the metrics tracked for every text rope.
type Metrics struct {
	Bytes     rope.Metric
	Runes     rope.Metric
	Lines     rope.Metric // newline count
	Graphemes rope.Metric
	Width     rope.Metric // monospace display columns
	MaxRune   rope.Metric
}

// Text is a monoid over string chunks.
type Text struct {
	Metrics
	mon *rope.Monoid[string]
}

// New returns a Text whose leaves hold at most leafSplitThresh bytes. The
// threshold must fit at least one encoded rune.
func New(leafSplitThresh int) *Text {
	if leafSplitThresh < utf8.UTFMax {
		panic(fmt.Sprintf("textrope: leaf split threshold %d is below %d", leafSplitThresh, utf8.UTFMax))
	}
	var ms rope.MetricSet
	t := &Text{Metrics: Metrics{
		Bytes:     ms.Sum(),
		Runes:     ms.Sum(),
		Lines:     ms.Sum(),
		Graphemes: ms.Sum(),
		Width:     ms.Sum(),
		MaxRune:   ms.Max(),
	}}
	t.mon = rope.NewMonoid[string](&ms, leafSplitThresh, ops(t.Metrics))
	return t
}

// Monoid returns the underlying monoid.
func (t *Text) Monoid() *rope.Monoid[string] { return t.mon }

// FromString builds a rope holding s.
func (t *Text) FromString(s string) rope.Rope[string] {
	r, err := t.mon.RopeOf(s)
	if err != nil {
		// A single element is never empty.
		panic(err)
	}
	return r
}

// String returns the text held by r.
func (t *Text) String(r rope.Rope[string]) string {
	var b strings.Builder
	b.Grow(r.Size(t.Bytes))
	for chunk := range r.All() {
		b.WriteString(chunk)
	}
	return b.String()
}

// Insert returns r with s inserted before the byte at offset. Passing the
// owner which produced r lets the edit reuse r's storage, consuming r.
func (t *Text) Insert(r rope.Rope[string], owner *rope.Owner, offset int, s string) (rope.Rope[string], error) {
	if offset < 0 || offset > r.Size(t.Bytes) {
		return r, fmt.Errorf("%w: %d not in [0, %d]", ErrOffset, offset, r.Size(t.Bytes))
	}
	c := r.Cursor(owner).Scan(owner, t.Bytes, offset)
	leaf := c.Element()
	at := offset - c.Location(t.Bytes)
	if at < len(leaf) && !utf8.RuneStart(leaf[at]) {
		return r, fmt.Errorf("%w: %d splits a UTF-8 sequence", ErrOffset, offset)
	}
	return c.Replace(owner, leaf[:at]+s+leaf[at:]).Rope(owner), nil
}

// scanner is the owner of read-only cursors. It never produces a rope, so
// scans with it share nothing they could write to.
var scanner = rope.NewOwner("textrope.scanner")

// LineStart returns the byte offset at which the 0-based line begins. It
// returns false if the text has fewer lines.
func (t *Text) LineStart(r rope.Rope[string], line int) (int, bool) {
	switch {
	case line < 0 || line > r.Size(t.Lines):
		return 0, false
	case line == 0:
		return 0, true
	}
	c := r.Cursor(scanner).Scan(scanner, t.Lines, line-1)
	leaf := c.Element()
	off := c.Location(t.Bytes)
	for skip := line - 1 - c.Location(t.Lines); ; skip-- {
		i := strings.IndexByte(leaf, '\n')
		off += i + 1
		leaf = leaf[i+1:]
		if skip == 0 {
			return off, true
		}
	}
}

type ops Metrics

func (o ops) Measure(chunk string, into rope.Metrics) {
	var runes, maxRune int
	for _, r := range chunk {
		runes++
		maxRune = max(maxRune, int(r))
	}
	into.Set(o.Bytes, len(chunk))
	into.Set(o.Runes, runes)
	into.Set(o.Lines, strings.Count(chunk, "\n"))
	into.Set(o.Graphemes, uniseg.GraphemeClusterCount(chunk))
	into.Set(o.Width, runewidth.StringWidth(chunk))
	into.Set(o.MaxRune, maxRune)
}

func (ops) LeafSize(chunk string) int { return len(chunk) }

func (ops) Merge(left, right string) string { return left + right }

// Split cuts chunk in two at the grapheme boundary closest to its middle,
// or at the closest rune boundary if it is a single cluster.
func (ops) Split(chunk string) []string {
	at := splitPoint(chunk)
	return []string{chunk[:at], chunk[at:]}
}

func splitPoint(chunk string) int {
	mid := len(chunk) / 2
	best := 0
	state := -1
	for off, rest := 0, chunk; len(rest) > 0; {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		off += len(cluster)
		if off == len(chunk) {
			break
		}
		if best == 0 || abs(off-mid) < abs(best-mid) {
			best = off
		}
		if off >= mid {
			break
		}
	}
	if best > 0 {
		return best
	}
	at := mid
	for at > 0 && !utf8.RuneStart(chunk[at]) {
		at--
	}
	if at == 0 {
		_, at = utf8.DecodeRuneInString(chunk)
	}
	return at
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
