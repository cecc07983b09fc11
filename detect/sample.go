// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

import (
	"math"

	"github.com/unixdj/qrscan/coding"
)

// Transform returns the transformation from module space to image
// space for a code of dim modules.  For codes larger than version 1 the
// bottom right alignment pattern anchors the fourth corner when found.
func (c *Candidate) Transform(dim int) Transform {
	tl, tr, bl := c.TopLeft.point(), c.TopRight.point(), c.BottomLeft.point()
	far := float64(dim) - 3.5
	src := [4]Point{{3.5, 3.5}, {far, 3.5}, {far, far}, {3.5, far}}
	dst := [4]Point{tl, tr, {tr.X - tl.X + bl.X, tr.Y - tl.Y + bl.Y}, bl}
	if dim > coding.MinVersion.Size() {
		if p, ok := c.Alignment(dim); ok {
			src[2] = Point{float64(dim) - 6.5, float64(dim) - 6.5}
			dst[2] = p
		}
	}
	return QuadToQuad(src, dst)
}

// Sample reads the modules of a code of dim modules.
func (c *Candidate) Sample(dim int) (*coding.Code, error) {
	if _, err := coding.SizeVersion(dim); err != nil {
		return nil, ErrDimension
	}
	t := c.Transform(dim)
	code := coding.NewCode(dim)
	w, h := float64(c.m.Width), float64(c.m.Height)
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			px, py := t.Apply(float64(x)+0.5, float64(y)+0.5)
			if !(px >= -1 && px <= w+1 && py >= -1 && py <= h+1) {
				return nil, ErrOutOfBounds
			}
			ix := min(max(int(math.Floor(px)), 0), c.m.Width-1)
			iy := min(max(int(math.Floor(py)), 0), c.m.Height-1)
			if c.m.Black(ix, iy) {
				code.Set(x, y, true)
			}
		}
	}
	return code, nil
}

// alignment is the 5×5 module alignment pattern.
func alignment(dx, dy int) bool {
	return max(abs(dx), abs(dy)) != 1
}

// Alignment searches for the centre of the bottom right alignment
// pattern of a code of dim modules, first within 4 modules of where
// the finder patterns place it, then within 8.
func (c *Candidate) Alignment(dim int) (Point, bool) {
	tl, tr, bl := c.TopLeft.point(), c.TopRight.point(), c.BottomLeft.point()
	n := float64(dim - 7)
	// Module axes.
	ux := Point{(tr.X - tl.X) / n, (tr.Y - tl.Y) / n}
	uy := Point{(bl.X - tl.X) / n, (bl.Y - tl.Y) / n}
	k := n - 3
	est := Point{tl.X + k*(ux.X+uy.X), tl.Y + k*(ux.Y+uy.Y)}

	for _, r := range [...]float64{4, 8} {
		if p, ok := c.alignmentNear(est, ux, uy, r*c.ModuleSize); ok {
			return p, true
		}
	}
	return Point{}, false
}

// alignmentNear matches the alignment template at every pixel within r
// of est and returns the centroid of the best matches.
func (c *Candidate) alignmentNear(est, ux, uy Point, r float64) (Point, bool) {
	x0, x1 := max(int(est.X-r), 0), min(int(est.X+r), c.m.Width-1)
	y0, y1 := max(int(est.Y-r), 0), min(int(est.Y+r), c.m.Height-1)
	best, n := 0, 0
	var sum Point
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !c.m.Black(x, y) {
				continue
			}
			cx, cy := float64(x)+0.5, float64(y)+0.5
			s := 0
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					px := cx + float64(dx)*ux.X + float64(dy)*uy.X
					py := cy + float64(dx)*ux.Y + float64(dy)*uy.Y
					if c.m.Black(int(math.Floor(px)), int(math.Floor(py))) == alignment(dx, dy) {
						s++
					}
				}
			}
			switch {
			case s > best:
				best, n, sum = s, 1, Point{cx, cy}
			case s == best:
				n++
				sum.X += cx
				sum.Y += cy
			}
		}
	}
	// Allow one module in error per side of the ring.
	if best < 25-4 {
		return Point{}, false
	}
	return Point{sum.X / float64(n), sum.Y / float64(n)}, true
}
