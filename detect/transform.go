// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

// A Point is a position in image or module space.  Pixel (x, y) covers
// the unit square from (x, y) to (x+1, y+1).
type Point struct {
	X, Y float64
}

// A Transform is a plane perspective transformation, a 3×3 matrix in
// row major order acting on homogeneous column vectors (x, y, 1).
type Transform [9]float64

// Apply returns the image of (x, y) under t.
func (t *Transform) Apply(x, y float64) (float64, float64) {
	d := t[6]*x + t[7]*y + t[8]
	return (t[0]*x + t[1]*y + t[2]) / d, (t[3]*x + t[4]*y + t[5]) / d
}

// Adjoint returns the adjugate of t, which acts as its inverse.
func (t *Transform) Adjoint() Transform {
	return Transform{
		t[4]*t[8] - t[5]*t[7], t[2]*t[7] - t[1]*t[8], t[1]*t[5] - t[2]*t[4],
		t[5]*t[6] - t[3]*t[8], t[0]*t[8] - t[2]*t[6], t[2]*t[3] - t[0]*t[5],
		t[3]*t[7] - t[4]*t[6], t[1]*t[6] - t[0]*t[7], t[0]*t[4] - t[1]*t[3],
	}
}

// Mul returns the product t·u, which applies u first.
func (t *Transform) Mul(u *Transform) Transform {
	var p Transform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			p[r*3+c] = t[r*3]*u[c] + t[r*3+1]*u[3+c] + t[r*3+2]*u[6+c]
		}
	}
	return p
}

// SquareToQuad returns the transformation of the unit square
// (0,0), (1,0), (1,1), (0,1) to the quadrilateral q.
func SquareToQuad(q [4]Point) Transform {
	dx3 := q[0].X - q[1].X + q[2].X - q[3].X
	dy3 := q[0].Y - q[1].Y + q[2].Y - q[3].Y
	if dx3 == 0 && dy3 == 0 {
		// Parallelogram.
		return Transform{
			q[1].X - q[0].X, q[2].X - q[1].X, q[0].X,
			q[1].Y - q[0].Y, q[2].Y - q[1].Y, q[0].Y,
			0, 0, 1,
		}
	}
	dx1, dx2 := q[1].X-q[2].X, q[3].X-q[2].X
	dy1, dy2 := q[1].Y-q[2].Y, q[3].Y-q[2].Y
	den := dx1*dy2 - dx2*dy1
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den
	return Transform{
		q[1].X - q[0].X + g*q[1].X, q[3].X - q[0].X + h*q[3].X, q[0].X,
		q[1].Y - q[0].Y + g*q[1].Y, q[3].Y - q[0].Y + h*q[3].Y, q[0].Y,
		g, h, 1,
	}
}

// QuadToSquare returns the transformation of the quadrilateral q to
// the unit square.
func QuadToSquare(q [4]Point) Transform {
	t := SquareToQuad(q)
	return t.Adjoint()
}

// QuadToQuad returns the transformation mapping the corners of src to
// the corresponding corners of dst.
func QuadToQuad(src, dst [4]Point) Transform {
	s, d := QuadToSquare(src), SquareToQuad(dst)
	return d.Mul(&s)
}
