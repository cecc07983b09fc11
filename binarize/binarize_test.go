// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binarize

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	m := NewMatrix(13, 3)
	assert.Equal(t, 2, m.Stride)
	assert.Len(t, m.Bits, 6)
	m.Set(0, 0, true)
	m.Set(12, 2, true)
	m.Set(9, 1, true)
	m.Set(9, 1, false)
	assert.True(t, m.Black(0, 0))
	assert.True(t, m.Black(12, 2))
	assert.False(t, m.Black(9, 1))
	assert.False(t, m.Black(-1, 0))
	assert.False(t, m.Black(13, 2))
	assert.False(t, m.Black(0, 3))
	assert.Equal(t, []byte{0x80, 0, 0, 0, 0, 0x08}, m.Bits)
}

func TestLuminance(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.NRGBA{0xff, 0, 0, 0xff})
	img.Set(1, 0, color.NRGBA{0, 0, 0, 0})
	img.Set(2, 0, color.NRGBA{0, 0, 0, 0xff})
	g := Luminance(img)
	assert.Equal(t, []uint8{76, 0xff, 0}, g.Pix)

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	assert.Same(t, gray, Luminance(gray))
}

func uniform(w, h int, y uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = y
	}
	return img
}

func TestGlobal(t *testing.T) {
	img := uniform(30, 20, 230)
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{20})
		}
	}
	m, err := Global(img)
	require.NoError(t, err)
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			assert.Equal(t, x < 10, m.Black(x, y), "(%d, %d)", x, y)
		}
	}

	_, err = Global(uniform(30, 20, 0xff))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Global(uniform(30, 20, 0x80))
	assert.ErrorIs(t, err, ErrNotFound)
}

// gradient returns a fine checkerboard lit unevenly from left to right.
func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := 100 + x*6/5
			if (x/2+y/2)%2 == 0 {
				l -= 80
			}
			img.SetGray(x, y, color.Gray{uint8(l)})
		}
	}
	return img
}

func TestHybrid(t *testing.T) {
	img := gradient(128, 96)
	m, err := Hybrid(img)
	require.NoError(t, err)
	require.Equal(t, 128, m.Width)
	require.Equal(t, 96, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			assert.Equal(t, (x/2+y/2)%2 == 0, m.Black(x, y), "(%d, %d)", x, y)
		}
	}
}

func TestHybridBlank(t *testing.T) {
	m, err := Hybrid(uniform(100, 60, 0xff))
	require.NoError(t, err)
	for _, b := range m.Bits {
		require.Zero(t, b)
	}

	_, err = Hybrid(uniform(30, 100, 0xff))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHybridSubImage(t *testing.T) {
	img := gradient(128, 96)
	sub := img.SubImage(image.Rect(10, 6, 90, 70)).(*image.Gray)
	m, err := Hybrid(sub)
	require.NoError(t, err)
	require.Equal(t, 80, m.Width)
	require.Equal(t, 64, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			assert.Equal(t, ((x+10)/2+(y+6)/2)%2 == 0, m.Black(x, y), "(%d, %d)", x, y)
		}
	}
}

func BenchmarkHybrid(b *testing.B) {
	img := gradient(640, 480)
	for i := 0; i < b.N; i++ {
		Hybrid(img)
	}
}
