// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package detect locates QR codes in binarized images and samples their
modules.

Detect finds finder patterns, pairs them into candidate codes by
geometry and orders the candidates by how well they fit.  A Candidate
maps the module grid onto the image with a perspective transform fixed
by the three finder patterns and the bottom right alignment pattern.
*/
package detect // import "github.com/unixdj/qrscan/detect"

import (
	"errors"
	"math"
	"sort"

	"github.com/unixdj/qrscan/binarize"
	"github.com/unixdj/qrscan/coding"
)

var (
	ErrNotFound    = errors.New("detect: insufficient finder patterns")
	ErrOutOfBounds = errors.New("detect: sample point outside image")
	ErrDimension   = errors.New("detect: invalid dimension")
)

// A Candidate is a triple of finder patterns that may belong to one QR
// code.
type Candidate struct {
	TopLeft, TopRight, BottomLeft FinderPattern

	// Finders holds the indices of the top left, top right and
	// bottom left patterns in the slice returned by FindPatterns.
	Finders [3]int

	Dimension  int     // estimated size in modules
	ModuleSize float64 // estimated module size in pixels
	Score      float64 // geometric error, lower is better

	m *binarize.Matrix
}

// Detect returns the candidate codes in m, best first.  It returns
// ErrNotFound if m contains fewer than three finder patterns.
func Detect(m *binarize.Matrix) ([]Candidate, error) {
	fp := FindPatterns(m)
	if len(fp) < 3 {
		return nil, ErrNotFound
	}
	var cs []Candidate
	for i := range fp {
		for j := i + 1; j < len(fp); j++ {
			for k := j + 1; k < len(fp); k++ {
				if c, ok := triple(m, fp, [3]int{i, j, k}); ok {
					cs = append(cs, c)
				}
			}
		}
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Score < cs[j].Score })
	return cs, nil
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// triple checks whether patterns idx of fp form the corners of a code.
func triple(m *binarize.Matrix, fp []FinderPattern, idx [3]int) (Candidate, bool) {
	lo, hi := math.Inf(1), 0.0
	for _, i := range idx {
		lo = min(lo, fp[i].ModuleSize)
		hi = max(hi, fp[i].ModuleSize)
	}
	if hi > 1.5*lo {
		return Candidate{}, false
	}

	// The vertex at the right angle is opposite the longest side.
	p := [3]Point{fp[idx[0]].point(), fp[idx[1]].point(), fp[idx[2]].point()}
	d := [3]float64{dist(p[1], p[2]), dist(p[0], p[2]), dist(p[0], p[1])}
	v := 0
	if d[1] > d[v] {
		v = 1
	}
	if d[2] > d[v] {
		v = 2
	}
	a, c := (v+1)%3, (v+2)%3
	legA, legC, hyp := d[c], d[a], d[v]
	if math.Abs(legA-legC) > 0.25*max(legA, legC) {
		return Candidate{}, false
	}
	want := math.Hypot(legA, legC)
	if math.Abs(hyp-want) > 0.15*want {
		return Candidate{}, false
	}

	// Looking from the top left, the top right pattern is
	// anticlockwise from the bottom left one.
	pv, pa, pc := p[v], p[a], p[c]
	if (pc.X-pv.X)*(pa.Y-pv.Y)-(pc.Y-pv.Y)*(pa.X-pv.X) < 0 {
		a, c = c, a
	}
	cand := Candidate{
		TopLeft:    fp[idx[v]],
		TopRight:   fp[idx[c]],
		BottomLeft: fp[idx[a]],
		Finders:    [3]int{idx[v], idx[c], idx[a]},
		m:          m,
	}
	cand.ModuleSize = cand.moduleSize()
	if cand.ModuleSize < 1 {
		return Candidate{}, false
	}
	tl, tr, bl := cand.TopLeft.point(), cand.TopRight.point(), cand.BottomLeft.point()
	n := (int(math.Round(dist(tl, tr)/cand.ModuleSize))+
		int(math.Round(dist(tl, bl)/cand.ModuleSize)))/2 + 7
	switch n & 3 {
	case 0:
		n++
	case 2:
		n--
	case 3:
		return Candidate{}, false
	}
	if _, err := coding.SizeVersion(n); err != nil {
		return Candidate{}, false
	}
	cand.Dimension = n
	cand.Score = math.Abs(legA-legC)/max(legA, legC) +
		math.Abs(hyp-want)/want + hi/lo - 1
	return cand, true
}

// moduleSize estimates the module size along both sides of the code.
// It falls back on the finder pattern estimates.
func (c *Candidate) moduleSize() float64 {
	tl, tr, bl := c.TopLeft.point(), c.TopRight.point(), c.BottomLeft.point()
	n, sum := 0, 0.0
	for _, s := range [...]float64{
		c.runBothWays(tl, tr), c.runBothWays(tr, tl),
		c.runBothWays(tl, bl), c.runBothWays(bl, tl),
	} {
		if !math.IsNaN(s) {
			sum += s
			n++
		}
	}
	if n == 0 {
		return (c.TopLeft.ModuleSize + c.TopRight.ModuleSize + c.BottomLeft.ModuleSize) / 3
	}
	return sum / float64(n) / 7
}

// runBothWays measures the width of the finder pattern centred at from
// along the line towards to.
func (c *Candidate) runBothWays(from, to Point) float64 {
	fx, fy := int(from.X), int(from.Y)
	tx, ty := int(to.X), int(to.Y)
	w, h := c.m.Width, c.m.Height
	r := c.run(fx, fy, tx, ty)

	// Extend the line in the other direction, stopping at the edge.
	ox, scale := fx-(tx-fx), 1.0
	if ox < 0 {
		scale = float64(fx) / float64(fx-ox)
		ox = 0
	} else if ox >= w {
		scale = float64(w-1-fx) / float64(ox-fx)
		ox = w - 1
	}
	oy := int(float64(fy) - float64(ty-fy)*scale)
	scale = 1
	if oy < 0 {
		scale = float64(fy) / float64(fy-oy)
		oy = 0
	} else if oy >= h {
		scale = float64(h-1-fy) / float64(oy-fy)
		oy = h - 1
	}
	ox = int(float64(fx) + float64(ox-fx)*scale)
	return r + c.run(fx, fy, ox, oy) - 1
}

// run returns the distance from (fx, fy) towards (tx, ty) to the end
// of a black, white, black sequence of pixels, or NaN if the line ends
// first.
func (c *Candidate) run(fx, fy, tx, ty int) float64 {
	steep := abs(ty-fy) > abs(tx-fx)
	if steep {
		fx, fy, tx, ty = fy, fx, ty, tx
	}
	dx, dy := abs(tx-fx), abs(ty-fy)
	xstep, ystep := 1, 1
	if fx > tx {
		xstep = -1
	}
	if fy > ty {
		ystep = -1
	}
	state, e := 0, -dx/2
	y := fy
	for x := fx; x != tx+xstep; x += xstep {
		px, py := x, y
		if steep {
			px, py = y, x
		}
		// States 0 and 2 end on white, state 1 on black.
		if (state == 1) == c.m.Black(px, py) {
			if state == 2 {
				return math.Hypot(float64(x-fx), float64(y-fy))
			}
			state++
		}
		e += dy
		if e > 0 {
			if y == ty {
				break
			}
			y += ystep
			e -= dx
		}
	}
	if state == 2 {
		return math.Hypot(float64(tx+xstep-fx), float64(ty-fy))
	}
	return math.NaN()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
