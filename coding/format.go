// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"math/bits"
)

var (
	ErrFormat      = errors.New("qr: unreadable format information")
	ErrVersionInfo = errors.New("qr: unreadable version information")
)

const (
	formatPoly  = 0x537  // BCH(15,5) generator
	formatMask  = 0x5412 // xored with format information
	versionPoly = 0x1f25 // BCH(18,6) generator
)

// calcFormat returns the 15 bit format word for the 5 bit value fb.
func calcFormat(fb uint16) uint16 {
	fb <<= 10
	rem := fb
	for i := 4; i >= 0; i-- {
		if rem&(1<<10<<i) != 0 {
			rem ^= formatPoly << i
		}
	}
	return (fb | rem) ^ formatMask
}

// calcVersion returns the 18 bit version word for version v.
func calcVersion(v Version) uint32 {
	vb := uint32(v) << 12
	rem := vb
	for i := 5; i >= 0; i-- {
		if rem&(1<<12<<i) != 0 {
			rem ^= versionPoly << i
		}
	}
	return vb | rem
}

// Format words by level and mask.
var ftab = func() (t [4][8]uint16) {
	for l := range t {
		for mask := range t[l] {
			// level bits: L=01, M=00, Q=11, H=10
			t[l][mask] = calcFormat(uint16(l^1)<<3 | uint16(mask))
		}
	}
	return
}()

// FormatBits returns the masked 15 bit format information for level
// l and mask.
func FormatBits(l Level, mask int) uint16 { return ftab[l][mask] }

// VersionBits returns the 18 bit version information for v.
func VersionBits(v Version) uint32 { return calcVersion(v) }

// formatPos returns the coordinates of format bit i in both copies.
func formatPos(i, siz int) (x1, y1, x2, y2 int) {
	switch {
	case i < 6:
		x1, y1 = 8, i
	case i < 8:
		x1, y1 = 8, i+1
	case i == 8:
		x1, y1 = 7, 8
	default:
		x1, y1 = 14-i, 8
	}
	if i < 8 {
		x2, y2 = siz-1-i, 8
	} else {
		x2, y2 = 8, siz-15+i
	}
	return
}

// setFormat writes format information fb to the pattern b.
func (p *Plan) setFormat(b []byte, fb uint16) {
	for i := 0; i < 15; i++ {
		black := fb>>i&1 != 0
		x1, y1, x2, y2 := formatPos(i, p.Size)
		p.fn(b, x1, y1, black)
		p.fn(b, x2, y2, black)
	}
}

// ReadFormat reads the level and mask from the format information of
// c.  Each copy is matched against all valid format words, and the
// closest one within 3 bits wins.
func ReadFormat(c *Code) (Level, int, error) {
	var f1, f2 uint16
	for i := 0; i < 15; i++ {
		x1, y1, x2, y2 := formatPos(i, c.Size)
		if c.Black(x1, y1) {
			f1 |= 1 << i
		}
		if c.Black(x2, y2) {
			f2 |= 1 << i
		}
	}
	best, bl, bm := 4, L, 0
	for l := range ftab {
		for mask, fb := range ftab[l] {
			d := min(bits.OnesCount16(f1^fb), bits.OnesCount16(f2^fb))
			if d < best {
				best, bl, bm = d, Level(l), mask
			}
		}
	}
	if best > 3 {
		return 0, 0, ErrFormat
	}
	return bl, bm, nil
}

// ReadVersion reads the version information of c.  For codes smaller
// than version 7, which carry no version information, it returns the
// version matching the size.
func ReadVersion(c *Code) (Version, error) {
	sv, err := c.Version()
	if err != nil {
		return 0, err
	}
	if sv < 7 {
		return sv, nil
	}
	var v1, v2 uint32
	siz := c.Size
	for i := 0; i < 18; i++ {
		a, b := siz-11+i%3, i/3
		if c.Black(a, b) {
			v1 |= 1 << i
		}
		if c.Black(b, a) {
			v2 |= 1 << i
		}
	}
	best, bv := 4, Version(0)
	for v := Version(7); v <= MaxVersion; v++ {
		vb := calcVersion(v)
		d := min(bits.OnesCount32(v1^vb), bits.OnesCount32(v2^vb))
		if d < best {
			best, bv = d, v
		}
	}
	if best > 3 {
		return 0, ErrVersionInfo
	}
	return bv, nil
}
