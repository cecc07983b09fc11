// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes and scans QR codes.

Encode builds a QR code for text at the smallest version that fits,
and Code renders it as an image, PNG or PBM.  Scan finds and decodes
every QR code in an image.

	c, err := qr.Encode("https://example.org/", qr.M)
	if err != nil {
		log.Fatalln(err)
	}
	os.WriteFile("code.png", c.PNG(), 0666)

	results, err := qr.Scan(img)
	for _, r := range results {
		fmt.Println(r)
	}
*/
package qr // import "github.com/unixdj/qrscan"

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/unixdj/qrscan/coding"
	"github.com/unixdj/qrscan/split"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 20% redundant
	M              // 38% redundant
	Q              // 55% redundant
	H              // 65% redundant
)

func (l Level) String() string { return coding.Level(l).String() }

// Default rendering parameters.
const (
	DefaultScale  = 8
	DefaultBorder = 4
)

// Encode returns an encoding of text at the given error correction
// level, split into segments of the most compact modes.
func Encode(text string, level Level) (*Code, error) {
	segs, v, err := split.Split(text, coding.Level(level))
	if err != nil {
		return nil, err
	}
	return encode(v, level, segs)
}

// EncodeSegments returns an encoding of segs at the given error
// correction level, using the smallest version that fits them.
func EncodeSegments(level Level, segs ...coding.Segment) (*Code, error) {
	l := coding.Level(level)
	if l < coding.L || l > coding.H {
		return nil, coding.ErrLevel
	}
	for class := coding.Class0; class <= coding.Class2; class++ {
		n := 0
		for _, seg := range segs {
			n += seg.EncodedLength(class)
		}
		for v, max := coding.ClassRange(class); v <= max; v++ {
			if n <= v.DataBits(l) {
				return encode(v, level, segs)
			}
		}
	}
	return nil, fmt.Errorf("%w: segments exceed version %v-%v",
		coding.ErrCapacity, coding.MaxVersion, level)
}

func encode(v coding.Version, level Level, segs []coding.Segment) (*Code, error) {
	cc, err := coding.Encode(v, coding.Level(level), segs...)
	if err != nil {
		return nil, err
	}
	return &Code{
		Bitmap: cc.Bitmap,
		Size:   cc.Size,
		Stride: cc.Stride,
		Scale:  DefaultScale,
		Border: DefaultBorder,
	}, nil
}

// A Code is a square pixel grid.
// It implements image.Image and direct PNG encoding.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row
	Scale  int    // number of image pixels per QR pixel
	Border int    // quiet zone width in QR pixels

	Reverse bool            // swap black and white
	Palette *[2]color.Color // background and foreground, nil for gray
}

// Black returns true if the pixel at (x,y) is black.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7-x&7)) != 0
}

// Coding returns the module grid of c.
func (c *Code) Coding() *coding.Code {
	return &coding.Code{Bitmap: c.Bitmap, Size: c.Size, Stride: c.Stride}
}

func (c *Code) isValid() bool {
	return c != nil && c.Size > 0 && c.Stride == (c.Size+7)>>3 &&
		len(c.Bitmap) >= c.Size*c.Stride && c.Scale > 0 && c.Border >= 0
}

// colors returns the background and foreground colours of c.
func (c *Code) colors() (bg, fg color.Color) {
	bg, fg = color.Gray{0xff}, color.Gray{0x00}
	if c.Palette != nil {
		bg, fg = c.Palette[0], c.Palette[1]
	}
	if c.Reverse {
		bg, fg = fg, bg
	}
	return bg, fg
}

// Image returns an Image displaying the code.
func (c *Code) Image() image.Image {
	bg, fg := c.colors()
	d := (c.Size + 2*c.Border) * c.Scale
	img := image.NewPaletted(image.Rect(0, 0, d, d), color.Palette{bg, fg})
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			if !c.Black(x, y) {
				continue
			}
			x0, y0 := (x+c.Border)*c.Scale, (y+c.Border)*c.Scale
			for py := y0; py < y0+c.Scale; py++ {
				row := img.Pix[img.PixOffset(x0, py):][:c.Scale]
				for i := range row {
					row[i] = 1
				}
			}
		}
	}
	return img
}

// String returns the code drawn with Unicode half blocks, two QR
// pixels per character cell, including the quiet zone.
func (c *Code) String() string {
	blocks := [4]string{" ", "▀", "▄", "█"}
	var b strings.Builder
	bord := c.Border
	for y := -bord; y < c.Size+bord; y += 2 {
		for x := -bord; x < c.Size+bord; x++ {
			i := 0
			if c.Black(x, y) != c.Reverse {
				i |= 1
			}
			if y+1 < c.Size+bord && c.Black(x, y+1) != c.Reverse {
				i |= 2
			}
			b.WriteString(blocks[i])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
