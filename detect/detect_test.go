// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrscan/binarize"
	"github.com/unixdj/qrscan/coding"
)

func encode(t *testing.T, v coding.Version, text string) *coding.Code {
	t.Helper()
	c, err := coding.Encode(v, coding.M, coding.Segment{Text: text, Mode: coding.Byte})
	require.NoError(t, err)
	return c
}

// render draws c with the given module size and quiet zone.
func render(c *coding.Code, scale, border int) *binarize.Matrix {
	n := (c.Size + 2*border) * scale
	m := binarize.NewMatrix(n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			mx, my := x/scale-border, y/scale-border
			if mx >= 0 && my >= 0 && mx < c.Size && my < c.Size && c.Black(mx, my) {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// rotate turns m clockwise by a right angle.
func rotate(m *binarize.Matrix) *binarize.Matrix {
	r := binarize.NewMatrix(m.Height, m.Width)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Black(x, y) {
				r.Set(m.Height-1-y, x, true)
			}
		}
	}
	return r
}

func assertPattern(t *testing.T, x, y float64, p FinderPattern) {
	t.Helper()
	assert.InDelta(t, x, p.X, 0.5, "x")
	assert.InDelta(t, y, p.Y, 0.5, "y")
}

func TestFindPatterns(t *testing.T) {
	m := render(encode(t, 1, "HELLO WORLD"), 4, 4)
	fp := FindPatterns(m)
	require.GreaterOrEqual(t, len(fp), 3)
	want := map[[2]int]bool{{30, 30}: true, {86, 30}: true, {30, 86}: true}
	for _, p := range fp[:3] {
		k := [2]int{int(p.X + 0.5), int(p.Y + 0.5)}
		assert.True(t, want[k], "unexpected pattern at %v", k)
		delete(want, k)
		assert.InDelta(t, 4, p.ModuleSize, 0.5)
		assert.GreaterOrEqual(t, p.Count, 8)
	}
}

func TestDetect(t *testing.T) {
	c := encode(t, 1, "HELLO WORLD")
	cs, err := Detect(render(c, 4, 4))
	require.NoError(t, err)
	require.NotEmpty(t, cs)
	cand := cs[0]
	assertPattern(t, 30, 30, cand.TopLeft)
	assertPattern(t, 86, 30, cand.TopRight)
	assertPattern(t, 30, 86, cand.BottomLeft)
	assert.Equal(t, 21, cand.Dimension)
	assert.InDelta(t, 4, cand.ModuleSize, 0.25)
	assert.InDelta(t, 0, cand.Score, 0.05)

	got, err := cand.Sample(cand.Dimension)
	require.NoError(t, err)
	assert.Equal(t, c.Bitmap, got.Bitmap)
}

func TestDetectAlignment(t *testing.T) {
	c := encode(t, 7, "alignment and version information")
	m := render(c, 3, 4)
	cs, err := Detect(m)
	require.NoError(t, err)
	require.NotEmpty(t, cs)
	cand := cs[0]
	require.Equal(t, 45, cand.Dimension)

	p, ok := cand.Alignment(45)
	require.True(t, ok)
	assert.InDelta(t, 127.5, p.X, 0.5)
	assert.InDelta(t, 127.5, p.Y, 0.5)

	got, err := cand.Sample(cand.Dimension)
	require.NoError(t, err)
	assert.Equal(t, c.Bitmap, got.Bitmap)
	v, err := coding.ReadVersion(got)
	require.NoError(t, err)
	assert.Equal(t, coding.Version(7), v)
}

func TestDetectRotated(t *testing.T) {
	c := encode(t, 3, "rotated")
	m := rotate(render(c, 4, 4))
	cs, err := Detect(m)
	require.NoError(t, err)
	require.NotEmpty(t, cs)
	cand := cs[0]
	n := float64(m.Width)
	assertPattern(t, n-30, 30, cand.TopLeft)
	assertPattern(t, n-30, n-30, cand.TopRight)
	assertPattern(t, 30, 30, cand.BottomLeft)
	require.Equal(t, 29, cand.Dimension)

	got, err := cand.Sample(cand.Dimension)
	require.NoError(t, err)
	assert.Equal(t, c.Bitmap, got.Bitmap)
}

func TestDetectNotFound(t *testing.T) {
	_, err := Detect(binarize.NewMatrix(100, 100))
	assert.ErrorIs(t, err, ErrNotFound)

	// Two finder patterns only.
	m := binarize.NewMatrix(120, 80)
	finderAt(m, 10, 10, 4)
	finderAt(m, 70, 10, 4)
	assert.Len(t, FindPatterns(m), 2)
	_, err = Detect(m)
	assert.ErrorIs(t, err, ErrNotFound)
}

// finderAt draws a finder pattern with its top left corner at (x0, y0).
func finderAt(m *binarize.Matrix, x0, y0, scale int) {
	for y := 0; y < 7*scale; y++ {
		for x := 0; x < 7*scale; x++ {
			dx, dy := abs(x/scale-3), abs(y/scale-3)
			if max(dx, dy) != 2 {
				m.Set(x0+x, y0+y, true)
			}
		}
	}
}

func TestSampleErrors(t *testing.T) {
	m := render(encode(t, 1, "x"), 4, 0)
	cand := Candidate{
		TopLeft:    FinderPattern{X: 2, Y: 2, ModuleSize: 4},
		TopRight:   FinderPattern{X: 58, Y: 2, ModuleSize: 4},
		BottomLeft: FinderPattern{X: 2, Y: 58, ModuleSize: 4},
		Dimension:  21,
		ModuleSize: 4,
		m:          m,
	}
	_, err := cand.Sample(21)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = cand.Sample(22)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestTransform(t *testing.T) {
	src := [4]Point{{3.5, 3.5}, {17.5, 3.5}, {14.5, 14.5}, {3.5, 17.5}}
	for _, dst := range [][4]Point{
		{{30, 30}, {86, 30}, {74, 74}, {30, 86}},
		{{10, 20}, {90, 12}, {95, 101}, {5, 88}},
		{{50, 0}, {100, 50}, {50, 100}, {0, 50}},
	} {
		tr := QuadToQuad(src, dst)
		for i := range src {
			x, y := tr.Apply(src[i].X, src[i].Y)
			assert.InDelta(t, dst[i].X, x, 1e-9)
			assert.InDelta(t, dst[i].Y, y, 1e-9)
		}
		inv := tr.Adjoint()
		x, y := tr.Apply(7, 11)
		x, y = inv.Apply(x, y)
		assert.InDelta(t, 7, x, 1e-9)
		assert.InDelta(t, 11, y, 1e-9)
	}
}

func BenchmarkDetect(b *testing.B) {
	c, _ := coding.Encode(10, coding.M, coding.Segment{Text: "benchmark", Mode: coding.Byte})
	m := render(c, 4, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cs, _ := Detect(m)
		if len(cs) > 0 {
			cs[0].Sample(cs[0].Dimension)
		}
	}
}
