// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package binarize converts grayscale images to black and white pixel
matrices for QR code detection.

Hybrid thresholds each 8×8 block of pixels against the average black
point of the 5×5 blocks around it, which tolerates uneven lighting.
Global uses a single threshold found in the luminance histogram and
serves small images.
*/
package binarize // import "github.com/unixdj/qrscan/binarize"

import (
	"errors"
	"image"
)

// ErrNotFound is returned when an image has too little contrast to
// choose a threshold.
var ErrNotFound = errors.New("binarize: no contrast in image")

// A Matrix is a black and white pixel matrix.  Bits holds Height rows
// of Stride bytes each, most significant bit first, 1 for black.
type Matrix struct {
	Width  int
	Height int
	Stride int
	Bits   []byte
}

// NewMatrix returns a white matrix of the given size.
func NewMatrix(width, height int) *Matrix {
	stride := (width + 7) >> 3
	return &Matrix{
		Width:  width,
		Height: height,
		Stride: stride,
		Bits:   make([]byte, stride*height),
	}
}

// Black reports whether the pixel at (x, y) is black.  Pixels outside
// the matrix are white.
func (m *Matrix) Black(x, y int) bool {
	return 0 <= x && x < m.Width && 0 <= y && y < m.Height &&
		m.Bits[y*m.Stride+x>>3]&(0x80>>(x&7)) != 0
}

// Set sets the colour of the pixel at (x, y).
func (m *Matrix) Set(x, y int, black bool) {
	b := &m.Bits[y*m.Stride+x>>3]
	bit := byte(0x80) >> (x & 7)
	if black {
		*b |= bit
	} else {
		*b &^= bit
	}
}

// Luminance converts img to grayscale.  Fully transparent pixels are
// white.  A *image.Gray is returned as is.
func Luminance(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	r := img.Bounds()
	g := image.NewGray(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := g.Pix[g.PixOffset(r.Min.X, y):]
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			if ca == 0 {
				row[x-r.Min.X] = 0xff
				continue
			}
			// Premultiplied colours over white.
			w := 0xffff - ca
			cr, cg, cb = (cr+w)>>8, (cg+w)>>8, (cb+w)>>8
			row[x-r.Min.X] = uint8((306*cr + 601*cg + 117*cb + 0x200) >> 10)
		}
	}
	return g
}

// Threshold returns the matrix of pixels of img darker than or equal
// to t.
func Threshold(img *image.Gray, t uint8) *Matrix {
	r := img.Bounds()
	m := NewMatrix(r.Dx(), r.Dy())
	for y := 0; y < m.Height; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, r.Min.Y+y):]
		for x := 0; x < m.Width; x++ {
			if row[x] <= t {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

const (
	lumBits    = 5
	lumShift   = 8 - lumBits
	lumBuckets = 1 << lumBits
)

// Global binarizes img using a threshold in the valley between the two
// highest peaks of its luminance histogram.
func Global(img *image.Gray) (*Matrix, error) {
	var buckets [lumBuckets]int
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for _, p := range img.Pix[img.PixOffset(r.Min.X, y):][:r.Dx()] {
			buckets[p>>lumShift]++
		}
	}
	t, err := blackPoint(buckets[:])
	if err != nil {
		return nil, err
	}
	return Threshold(img, t-1), nil
}

// blackPoint returns the luminance of the valley between the two
// histogram peaks.
func blackPoint(buckets []int) (uint8, error) {
	var first, max int
	for i, n := range buckets {
		if n > buckets[first] {
			first = i
		}
		if n > max {
			max = n
		}
	}
	// The second peak is the farthest significant one.
	var second, score int
	for i, n := range buckets {
		d := i - first
		if s := n * d * d; s > score {
			second, score = i, s
		}
	}
	if score == 0 {
		return 0, ErrNotFound
	}
	if first > second {
		first, second = second, first
	}
	if second-first <= len(buckets)/16 {
		return 0, ErrNotFound
	}
	valley, score := second-1, -1
	for i := second - 1; i > first; i-- {
		d := i - first
		if s := d * d * (second - i) * (max - buckets[i]); s > score {
			valley, score = i, s
		}
	}
	return uint8(valley << lumShift), nil
}

const (
	blockPower = 3
	blockSize  = 1 << blockPower
	minSize    = blockSize * 5
	minRange   = 24 // minimum contrast within a block
)

// Hybrid binarizes img using local thresholds.  Images smaller than 40
// pixels in either direction are binarized with Global.
func Hybrid(img *image.Gray) (*Matrix, error) {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	if w < minSize || h < minSize {
		return Global(img)
	}
	bw := (w + blockSize - 1) >> blockPower
	bh := (h + blockSize - 1) >> blockPower
	bp := blackPoints(img, bw, bh)
	m := NewMatrix(w, h)
	for by := 0; by < bh; by++ {
		y0 := min(by<<blockPower, h-blockSize)
		top := clamp(by, 2, bh-3)
		for bx := 0; bx < bw; bx++ {
			x0 := min(bx<<blockPower, w-blockSize)
			left := clamp(bx, 2, bw-3)
			sum := 0
			for _, row := range bp[top-2 : top+3] {
				for _, p := range row[left-2 : left+3] {
					sum += p
				}
			}
			t := sum / 25
			for y := y0; y < y0+blockSize; y++ {
				pix := img.Pix[img.PixOffset(r.Min.X+x0, r.Min.Y+y):]
				for x := 0; x < blockSize; x++ {
					if int(pix[x]) <= t {
						m.Set(x0+x, y, true)
					}
				}
			}
		}
	}
	return m, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// blackPoints returns the black point of each block.  A block without
// enough contrast takes the black point of its neighbours when they
// are lighter than it, or half its minimum.
func blackPoints(img *image.Gray, bw, bh int) [][]int {
	r := img.Bounds()
	bp := make([][]int, bh)
	for by := range bp {
		bp[by] = make([]int, bw)
		y0 := min(by<<blockPower, r.Dy()-blockSize)
		for bx := range bp[by] {
			x0 := min(bx<<blockPower, r.Dx()-blockSize)
			sum, lo, hi := 0, 0xff, 0
			for y := y0; y < y0+blockSize; y++ {
				for _, p := range img.Pix[img.PixOffset(r.Min.X+x0, r.Min.Y+y):][:blockSize] {
					sum += int(p)
					lo = min(lo, int(p))
					hi = max(hi, int(p))
				}
			}
			avg := sum >> (2 * blockPower)
			if hi-lo <= minRange {
				avg = lo / 2
				if by > 0 && bx > 0 {
					n := (bp[by-1][bx] + 2*bp[by][bx-1] + bp[by-1][bx-1]) / 4
					if lo < n {
						avg = n
					}
				}
			}
			bp[by][bx] = avg
		}
	}
	return bp
}
