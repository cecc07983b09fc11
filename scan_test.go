// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrscan/coding"
)

func codeImage(t *testing.T, text string, level Level, scale int) image.Image {
	t.Helper()
	c, err := Encode(text, level)
	require.NoError(t, err)
	c.Scale = scale
	return c.Image()
}

// canvas returns a white grayscale image with imgs drawn at the given
// offsets.
func canvas(w, h int, imgs []image.Image, at []image.Point) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	for i, img := range imgs {
		r := img.Bounds().Sub(img.Bounds().Min).Add(at[i])
		draw.Draw(dst, r, img, img.Bounds().Min, draw.Src)
	}
	return dst
}

func texts(rs []Result) []string {
	s := make([]string, len(rs))
	for i := range rs {
		s[i] = rs[i].String()
	}
	return s
}

func TestScan(t *testing.T) {
	img := codeImage(t, "hello, world", M, 4)
	rs, err := Scan(img)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	r := rs[0]
	assert.Equal(t, "hello, world", r.Text)
	assert.Equal(t, []byte("hello, world"), r.Raw)
	assert.True(t, r.IsText)
	assert.Equal(t, coding.Version(1), r.Version)
	assert.Equal(t, M, r.Level)
	assert.Equal(t, image.Pt(30, 30), r.Position)
	assert.Zero(t, r.Corrected)
}

func TestScanTwo(t *testing.T) {
	a := codeImage(t, "A", M, 4)
	bb := codeImage(t, "BB", M, 4)
	img := canvas(260, 140, []image.Image{bb, a}, []image.Point{{136, 12}, {8, 12}})
	rs, err := Scan(img)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "BB"}, texts(rs))
	require.Len(t, rs, 2)
	assert.Less(t, rs[0].Position.X, rs[1].Position.X)
}

func TestScanVertical(t *testing.T) {
	top := codeImage(t, "top", L, 3)
	bottom := codeImage(t, "bottom", L, 3)
	img := canvas(100, 200, []image.Image{bottom, top}, []image.Point{{0, 100}, {0, 0}})
	rs, err := Scan(img)
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "bottom"}, texts(rs))
}

func TestScanGrid(t *testing.T) {
	var imgs []image.Image
	for _, s := range []string{"1", "2", "3", "4"} {
		imgs = append(imgs, codeImage(t, s, L, 3))
	}
	// the second code sits a little lower than the first, the third
	// a little to the right of the first
	img := canvas(200, 200, imgs, []image.Point{{0, 0}, {100, 6}, {6, 100}, {100, 100}})
	rs, err := Scan(img)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, texts(rs))
}

func TestScanEmpty(t *testing.T) {
	for _, img := range []image.Image{
		canvas(200, 150, nil, nil),
		canvas(20, 20, nil, nil),
		image.NewRGBA(image.Rect(0, 0, 64, 64)), // transparent
	} {
		rs, err := Scan(img)
		require.NoError(t, err)
		assert.NotNil(t, rs)
		assert.Empty(t, rs)
	}
}

func TestScanRaw(t *testing.T) {
	c, err := EncodeSegments(M, coding.Segment{Text: "\xff\x00\xab", Mode: coding.Byte})
	require.NoError(t, err)
	c.Scale = 4
	rs, err := Scan(c.Image())
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.False(t, rs[0].IsText)
	assert.Equal(t, []byte{0xff, 0x00, 0xab}, rs[0].Raw)
	assert.Equal(t, "ff00ab", rs[0].String())
}

// malformedCode returns a version 1-M code holding a byte segment "A"
// followed by a GB2312 segment, which has no decoder.
func malformedCode(t *testing.T) *Code {
	t.Helper()
	b := coding.NewBits(1, coding.M)
	b.Write(4, 4)
	b.Write(1, 8)
	b.Write('A', 8)
	b.Write(0xd, 4)
	b.Write(1, 4)
	b.Write(1, 8)
	b.Write(0x123, 13)
	b.AddCheckBytes(1, coding.M)
	p, err := coding.NewPlan(1, coding.M)
	require.NoError(t, err)
	stride := (p.Size + 7) >> 3
	bitmap := make([]byte, p.Size*stride)
	p.Serialise(b.Permute(1, coding.M), bitmap)
	for i := range bitmap {
		bitmap[i] ^= p.Pattern[0][i]
	}
	return &Code{Bitmap: bitmap, Size: p.Size, Stride: stride, Scale: 4, Border: 4}
}

func TestScanMalformed(t *testing.T) {
	rs, err := Scan(malformedCode(t).Image())
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.False(t, rs[0].IsText)
	assert.Equal(t, "40141d10109180ec11ec11ec11ec11ec", rs[0].String())
}

func TestScanSubImage(t *testing.T) {
	code := codeImage(t, "region", Q, 4)
	img := canvas(400, 300, []image.Image{code}, []image.Point{{200, 100}})
	sub := img.SubImage(image.Rect(180, 80, 360, 260))
	rs, err := Scan(sub)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "region", rs[0].Text)
	assert.Equal(t, image.Pt(230, 130), rs[0].Position)

	rs, err = Scan(img.SubImage(image.Rect(0, 0, 150, 300)))
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestScanRotated(t *testing.T) {
	img := imaging.Rotate90(codeImage(t, "rotated code", H, 4))
	rs, err := Scan(img)
	require.NoError(t, err)
	assert.Equal(t, []string{"rotated code"}, texts(rs))
}

func TestScanLarge(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 5)
	rs, err := Scan(codeImage(t, text, M, 3))
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, text, rs[0].Text)
	assert.GreaterOrEqual(t, rs[0].Version, coding.Version(7))
}

func TestScanSkip2(t *testing.T) {
	const text = "encoded by another library"
	q, err := qrcode.New(text, qrcode.Medium)
	require.NoError(t, err)

	// The bitmap includes a four module quiet zone.
	bm := q.Bitmap()
	siz := len(bm) - 8
	c := coding.NewCode(siz)
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			c.Set(x, y, bm[y+4][x+4])
		}
	}
	sym, err := coding.Decode(c)
	require.NoError(t, err)
	got, ok := sym.Text()
	assert.True(t, ok)
	assert.Equal(t, text, got)

	rs, err := Scan(q.Image(-4))
	require.NoError(t, err)
	assert.Equal(t, []string{text}, texts(rs))
	require.Len(t, rs, 1)
	assert.Equal(t, M, rs[0].Level)
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var s Scanner
	_, err := s.Scan(ctx, codeImage(t, "cancelled", M, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScannerOnError(t *testing.T) {
	c, err := Encode("damaged", L)
	require.NoError(t, err)
	require.Equal(t, 21, c.Size)
	// Invert the bottom right data region.
	for y := 9; y < 21; y++ {
		for x := 9; x < 21; x++ {
			c.Bitmap[y*c.Stride+x/8] ^= 0x80 >> (x & 7)
		}
	}
	c.Scale = 4

	var (
		mu   sync.Mutex
		errs []error
	)
	s := Scanner{
		Workers: 2,
		OnError: func(i int, err error) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err)
		},
	}
	rs, err := s.Scan(context.Background(), c.Image())
	require.NoError(t, err)
	assert.Empty(t, rs)
	require.NotEmpty(t, errs)
	var ce *CandidateError
	require.True(t, errors.As(errs[0], &ce))
	assert.Equal(t, 0, ce.Index)
	var be *coding.BlockError
	assert.True(t, errors.As(errs[0], &be), "%v", errs[0])
}

func TestScanWorkers(t *testing.T) {
	imgs := []image.Image{
		codeImage(t, "one", M, 3),
		codeImage(t, "two", M, 3),
		codeImage(t, "three", M, 3),
	}
	img := canvas(300, 200, imgs, []image.Point{{0, 0}, {100, 100}, {200, 0}})
	var prev []Result
	for _, w := range []int{1, 2, 8} {
		s := Scanner{Workers: w}
		rs, err := s.Scan(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, texts(rs))
		if prev != nil {
			assert.Equal(t, prev, rs)
		}
		prev = rs
	}
}

func BenchmarkScan(b *testing.B) {
	c, _ := Encode("benchmark", M)
	c.Scale = 4
	img := c.Image()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Scan(img)
	}
}
