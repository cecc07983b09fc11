// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

import (
	"math"
	"sort"

	"github.com/unixdj/qrscan/binarize"
)

const (
	maxModules = 97 // row skip is tuned for codes up to this size
	maxFinders = 32
)

// A FinderPattern is the centre of a finder pattern in image space.
type FinderPattern struct {
	X, Y       float64
	ModuleSize float64 // estimated module size in pixels
	Count      int     // number of scan lines that found it
}

func (f *FinderPattern) point() Point { return Point{f.X, f.Y} }

// near reports whether a hit at (x, y) with module size ms belongs to f.
func (f *FinderPattern) near(x, y, ms float64) bool {
	if math.Abs(x-f.X) > ms || math.Abs(y-f.Y) > ms {
		return false
	}
	d := math.Abs(ms - f.ModuleSize)
	return d <= 1 || d <= f.ModuleSize
}

// add averages the hit at (x, y) into f.
func (f *FinderPattern) add(x, y, ms float64) {
	n := float64(f.Count)
	f.X = (n*f.X + x) / (n + 1)
	f.Y = (n*f.Y + y) / (n + 1)
	f.ModuleSize = (n*f.ModuleSize + ms) / (n + 1)
	f.Count++
}

// A run holds the lengths of five alternating runs of black and white
// pixels, starting with black.
type run [5]int

func (r *run) total() int {
	return r[0] + r[1] + r[2] + r[3] + r[4]
}

// finder reports whether r has the 1:1:3:1:1 proportions of a finder
// pattern, each run within half a module.
func (r *run) finder() bool {
	total := r.total()
	if total < 7 {
		return false
	}
	for _, n := range r {
		if n == 0 {
			return false
		}
	}
	ms := float64(total) / 7
	v := ms / 2
	return math.Abs(ms-float64(r[0])) < v &&
		math.Abs(ms-float64(r[1])) < v &&
		math.Abs(3*ms-float64(r[2])) < 3*v &&
		math.Abs(ms-float64(r[3])) < v &&
		math.Abs(ms-float64(r[4])) < v
}

// centre returns the centre of the middle run given the position just
// past its end.
func (r *run) centre(end int) float64 {
	return float64(end-r[4]-r[3]) - float64(r[2])/2
}

// shift drops the first two runs after a failed match.  The current
// white pixel starts the fourth run.
func (r *run) shift() {
	r[0], r[1], r[2], r[3], r[4] = r[2], r[3], r[4], 1, 0
}

type finder struct {
	m        *binarize.Matrix
	patterns []FinderPattern
}

// FindPatterns scans m for finder patterns.  Patterns seen by most scan
// lines come first.
func FindPatterns(m *binarize.Matrix) []FinderPattern {
	f := finder{m: m}
	skip := max(1, 3*m.Height/(4*maxModules))
	for y := skip - 1; y < m.Height; y += skip {
		f.scanRow(y)
	}
	sort.SliceStable(f.patterns, func(i, j int) bool {
		return f.patterns[i].Count > f.patterns[j].Count
	})
	multi := 0
	for _, p := range f.patterns {
		if p.Count > 1 {
			multi++
		}
	}
	if multi >= 3 {
		f.patterns = f.patterns[:multi]
	}
	if len(f.patterns) > maxFinders {
		f.patterns = f.patterns[:maxFinders]
	}
	return f.patterns
}

func (f *finder) scanRow(y int) {
	var r run
	state := 0
	for x := 0; x < f.m.Width; x++ {
		black := f.m.Black(x, y)
		switch {
		case black:
			if state&1 == 1 {
				state++
			}
			r[state]++
		case state&1 == 1:
			r[state]++
		case state < 4:
			state++
			r[state]++
		default:
			if r.finder() && f.check(&r, x, y) {
				r, state = run{}, 0
			} else {
				r.shift()
				state = 3
			}
		}
	}
	if state == 4 && r.finder() {
		f.check(&r, f.m.Width, y)
	}
}

// check cross-checks a horizontal match ending before x on row y and
// records the pattern if confirmed.
func (f *finder) check(r *run, x, y int) bool {
	total := r.total()
	cx := r.centre(x)
	cy, ok := f.crossCheck(int(cx), y, r[2], total, true)
	if !ok {
		return false
	}
	cx, ok = f.crossCheck(int(cx), int(cy), r[2], total, false)
	if !ok {
		return false
	}
	ms := float64(total) / 7
	for i := range f.patterns {
		if p := &f.patterns[i]; p.near(cx, cy, ms) {
			p.add(cx, cy, ms)
			return true
		}
	}
	f.patterns = append(f.patterns, FinderPattern{X: cx, Y: cy, ModuleSize: ms, Count: 1})
	return true
}

// crossCheck scans through (x, y) vertically or horizontally for the
// finder proportions and returns the centre along the scan direction.
// No run may exceed the length of the original centre run.
func (f *finder) crossCheck(x, y, maxCount, total int, vertical bool) (float64, bool) {
	pos, limit := x, f.m.Width
	black := func(i int) bool { return f.m.Black(i, y) }
	if vertical {
		pos, limit = y, f.m.Height
		black = func(i int) bool { return f.m.Black(x, i) }
	}

	var r run
	i := pos
	for ; i >= 0 && black(i); i-- {
		r[2]++
	}
	if i < 0 {
		return 0, false
	}
	for ; i >= 0 && !black(i) && r[1] <= maxCount; i-- {
		r[1]++
	}
	if i < 0 || r[1] > maxCount {
		return 0, false
	}
	for ; i >= 0 && black(i) && r[0] <= maxCount; i-- {
		r[0]++
	}
	if r[0] > maxCount {
		return 0, false
	}

	i = pos + 1
	for ; i < limit && black(i); i++ {
		r[2]++
	}
	if i == limit {
		return 0, false
	}
	for ; i < limit && !black(i) && r[3] < maxCount; i++ {
		r[3]++
	}
	if i == limit || r[3] >= maxCount {
		return 0, false
	}
	for ; i < limit && black(i) && r[4] < maxCount; i++ {
		r[4]++
	}
	if r[4] >= maxCount {
		return 0, false
	}

	// Reject runs whose total differs too much from the original.
	d := r.total() - total
	if d < 0 {
		d = -d
	}
	if vertical && 5*d >= 2*total || !vertical && 5*d >= total {
		return 0, false
	}
	if !r.finder() {
		return 0, false
	}
	return r.centre(i), true
}
