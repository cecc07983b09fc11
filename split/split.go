// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package split splits strings into QR code segments.

The split is optimal: for each version size class it finds the sequence
of numeric, alphanumeric, byte and kanji mode segments with the
shortest encoding, using a dynamic programme over the runes of the text
(https://www.nayuki.io/page/optimal-text-segmentation-for-qr-codes).
*/
package split // import "github.com/unixdj/qrscan/split"

import (
	"errors"
	"unicode/utf8"

	"github.com/unixdj/qrscan/coding"
)

var ErrLongText = errors.New("qr: text too long")

// Split modes, in order of preference for equal cost.
const (
	numeric = iota
	alnum
	byte8
	kanji
	nmode
)

var modes = [nmode]coding.Mode{
	numeric: coding.Numeric,
	alnum:   coding.Alphanumeric,
	byte8:   coding.Byte,
	kanji:   coding.Kanji,
}

// Costs are counted in sixths of a bit, so that numeric (10/3 bits)
// and alphanumeric (11/2 bits) characters have integer costs.
const (
	numericCost = 20 // 10 bits / 3 characters
	alnumCost   = 33 // 11 bits / 2 characters
	byteCost    = 48 // 8 bits per byte
	kanjiCost   = 78 // 13 bits
	inf         = 1 << 30
)

// char is a rune of the text with its byte offset and width.
type char struct {
	off, width int
	ok         [nmode]bool // encodable in mode
}

func scan(text string) []char {
	cs := make([]char, 0, len(text))
	for off := 0; off < len(text); {
		r, w := utf8.DecodeRuneInString(text[off:])
		c := char{off: off, width: w}
		c.ok[byte8] = true
		if w == 1 {
			c.ok[numeric] = coding.Is(r, coding.Numeric)
			c.ok[alnum] = coding.Is(r, coding.Alphanumeric)
		} else if r != utf8.RuneError {
			c.ok[kanji] = coding.IsKanji(r)
		}
		cs = append(cs, c)
		off += w
	}
	return cs
}

// Segments returns the optimal split of text into segments for the
// given version size class and its encoded length in bits.
func Segments(text string, class int) ([]coding.Segment, int) {
	cs := scan(text)
	if len(cs) == 0 {
		return nil, 0
	}
	var head [nmode]int // header cost
	for m, mode := range modes {
		head[m] = mode.Length(0, 0, class) * 6
	}

	// cost[m] is the cost of the text so far ending in an open segment
	// of mode m; from[i][m] is the mode of character i on that path.
	from := make([][nmode]int8, len(cs))
	cost := head
	for i, c := range cs {
		var cur [nmode]int
		for m := range cur {
			cur[m] = inf
			from[i][m] = -1
		}
		for m := range cur {
			if !c.ok[m] {
				continue
			}
			n := byteCost * c.width
			switch m {
			case numeric:
				n = numericCost
			case alnum:
				n = alnumCost
			case kanji:
				n = kanjiCost
			}
			cur[m] = cost[m] + n
			from[i][m] = int8(m)
		}
		// Switch modes after this character: close the segment,
		// rounding up to whole bits, and open a new one.
		for to := range cur {
			for m := range cur {
				if from[i][m] < 0 {
					continue
				}
				n := (cur[m]+5)/6*6 + head[to]
				if from[i][to] < 0 || n < cur[to] {
					cur[to] = n
					from[i][to] = int8(m)
				}
			}
		}
		cost = cur
	}

	best := 0
	for m := range cost {
		if cost[m] < cost[best] {
			best = m
		}
	}
	bits := (cost[best] + 5) / 6

	// Trace back the mode of each character.
	cm := make([]int8, len(cs))
	for i, m := len(cs)-1, int8(best); i >= 0; i-- {
		m = from[i][m]
		cm[i] = m
	}

	var segs []coding.Segment
	start := 0
	for i := range cs {
		if i+1 == len(cs) || cm[i+1] != cm[i] {
			end := cs[i].off + cs[i].width
			segs = append(segs, coding.Segment{
				Text: text[cs[start].off:end],
				Mode: modes[cm[i]],
			})
			start = i + 1
		}
	}
	return segs, bits
}

/*
Split returns segments and minimum QR code version for text at the
given error correction level.  The segments are chosen for the size
class of the version.
*/
func Split(text string, level coding.Level) ([]coding.Segment, coding.Version, error) {
	if level < coding.L || level > coding.H {
		return nil, 0, coding.ErrLevel
	}
	for class := coding.Class0; class <= coding.Class2; class++ {
		segs, bits := Segments(text, class)
		v, max := coding.ClassRange(class)
		if max.DataBits(level) < bits {
			continue
		}
		for v < max {
			if mid := (v + max) / 2; mid.DataBits(level) < bits {
				v = mid + 1
			} else {
				max = mid
			}
		}
		return segs, v, nil
	}
	return nil, 0, ErrLongText
}
