// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level QR coding details: versions,
// levels, bit streams, segment modes, function patterns, masks,
// Reed-Solomon blocks, and the reverse of all of those for decoding.
package coding // import "github.com/unixdj/qrscan/coding"

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/unixdj/qrscan/gf256"
)

var (
	ErrLevel   = errors.New("qr: invalid level")
	ErrVersion = errors.New("qr: invalid version")
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 pixels on a side.
// Versions number from 1 to 40: the larger the version,
// the more information the code can store.
type Version int

const (
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 40 // Maximum QR version
)

func (v Version) String() string { return strconv.Itoa(int(v)) }

// QR version size classes.  The class determines the length of
// character count fields.
const (
	Class0 = iota // QR versions 1 to 9
	Class1        // QR versions 10 to 26
	Class2        // QR versions 27 to 40
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// ClassRange returns the first and last versions of a size class.
func ClassRange(class int) (Version, Version) {
	switch class {
	case Class0:
		return 1, 9
	case Class1:
		return 10, 26
	}
	return 27, 40
}

// Size returns the number of pixels on a side of a code of version v.
func (v Version) Size() int { return int(v)*4 + 17 }

// SizeVersion returns the version of a code with siz pixels on a side.
func SizeVersion(siz int) (Version, error) {
	v := Version((siz - 17) / 4)
	if v < MinVersion || v > MaxVersion || v.Size() != siz {
		return 0, fmt.Errorf("%w: size %d", ErrVersion, siz)
	}
	return v, nil
}

// DataBytes returns the number of data bytes that can be
// stored in a QR code with the given version and level.
func (v Version) DataBytes(l Level) int {
	vt := &vtab[v]
	lev := vt.level[l]
	return vt.bytes - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be
// stored in a QR code with the given version and level.
func (v Version) DataBits(l Level) int { return v.DataBytes(l) * 8 }

// alignment returns the alignment pattern centre coordinates of v.
func (v Version) alignment() []int {
	vt := &vtab[v]
	if vt.apos == 0 {
		return nil
	}
	pos := []int{6}
	for p := vt.apos; p <= v.Size()-7; p += vt.astride {
		pos = append(pos, p)
	}
	return pos
}

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota
	M
	Q
	H
)

func (l Level) String() string {
	if L <= l && l <= H {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// ParseLevel returns the Level named by s, one of L, M, Q or H in
// either case.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "L", "l":
		return L, nil
	case "M", "m":
		return M, nil
	case "Q", "q":
		return Q, nil
	case "H", "h":
		return H, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrLevel, s)
}

// A Bits is a growing bit buffer, written most significant bit first.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for a QR code of the
// given version and level.
func NewBits(v Version, l Level) *Bits {
	vt := &vtab[v]
	n := vt.bytes
	if 1 < vt.level[l].nblock {
		n <<= 1
	}
	return &Bits{b: make([]byte, 0, n)}
}

func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
}

func (b *Bits) Bits() int {
	return b.nbit
}

func (b *Bits) Bytes() []byte {
	if b.nbit%8 != 0 {
		panic("qr: fractional byte")
	}
	return b.b
}

func (b *Bits) growTo(n int) {
	if cap(b.b) < n {
		nb := make([]byte, len(b.b), n)
		copy(nb, b.b)
		b.b = nb
	}
}

func (b *Bits) Grow(n int) { b.growTo(len(b.b) + n) }

// Add adds n bytes to b and returns the added slice.
func (b *Bits) Add(n int) []byte {
	if b.nbit%8 != 0 {
		panic("qr: fractional byte")
	}
	b.Grow(n)
	start := len(b.b)
	b.b = b.b[:start+n]
	b.nbit = 8 * len(b.b)
	return b.b[start:]
}

// Write appends the low nbit bits of v to b.
func (b *Bits) Write(v uint32, nbit int) {
	if nbit == 0 {
		return
	}
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

// padTo adds up to t terminator bits to b, aligns it to a byte
// boundary and fills it up to n bits with alternating pad bytes.
func (b *Bits) padTo(t, n int) {
	b.nbit = min(b.nbit+t, n)
	for len(b.b)*8 < b.nbit {
		b.b = append(b.b, 0)
	}
	b.nbit = len(b.b) * 8
	for pad := byte(0xec); b.nbit < n; pad ^= 0xec ^ 0x11 {
		b.b = append(b.b, pad)
		b.nbit += 8
	}
}

// AddCheckBytes adds terminator, padding and checksum to b for the
// given QR version and level.
func (b *Bits) AddCheckBytes(v Version, l Level) {
	nb := v.DataBits(l)
	if b.nbit > nb {
		panic("qr: too much data")
	}
	vt := &vtab[v]
	b.growTo(vt.bytes)
	b.padTo(4, nb)

	dat := b.Bytes()
	lev := vt.level[l]
	nd := nb >> 3
	db := nd / lev.nblock
	normal := (db+1)*lev.nblock - nd
	rs := gf256.NewRSEncoder(Field, lev.check)
	for i := 0; i < lev.nblock; i++ {
		if i == normal {
			db++
		}
		rs.ECC(dat[:db], b.Add(lev.check))
		dat = dat[db:]
	}

	if len(b.Bytes()) != vt.bytes {
		panic("qr: internal error")
	}
}

// interleave interleaves nblock blocks from src to dst, which must be
// of equal length.
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := dst[db*nblock:]
	dst = dst[:db*nblock]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j, v := range src[:db] {
			dst[j*nblock+i] = v
		}
		src = src[db:]
		if i >= normal {
			extra[i-normal] = src[0]
			src = src[1:]
		}
	}
}

// deinterleave is the inverse of interleave.
func deinterleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := src[db*nblock:]
	src = src[:db*nblock]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j := range dst[:db] {
			dst[j] = src[j*nblock+i]
		}
		dst = dst[db:]
		if i >= normal {
			dst[0] = extra[i-normal]
			dst = dst[1:]
		}
	}
}

// Permute returns a BitStream reading data and checksum bits in b
// with blocks interleaved for the given QR code version and level.
// The BitStream may use the same underlying buffer.
func (b *Bits) Permute(v Version, l Level) BitStream {
	vt := &vtab[v]
	src := b.Bytes()
	if len(src) != vt.bytes {
		panic("qr: wrong data length")
	}
	dst := src
	if nblock := vt.level[l].nblock; nblock != 1 {
		dst = make([]byte, vt.bytes)
		nd := v.DataBytes(l)
		interleave(dst[:nd], src[:nd], nblock)
		interleave(dst[nd:], src[nd:], nblock)
	}
	return NewBitStream(dst)
}

// BitStream reads bits from the underlying buffer.
type BitStream struct {
	b   []byte
	pos int
}

// NewBitStream returns a BitStream reading from b.
func NewBitStream(b []byte) BitStream { return BitStream{b: b} }

// Bytes returns the data underlying s.
func (s *BitStream) Bytes() []byte { return s.b }

// Next returns the next bit from s as 0 or 1.
// Past end of buffer Next returns 0.
func (s *BitStream) Next() byte {
	var b byte
	if i := s.pos >> 3; i < len(s.b) {
		b = s.b[i] >> (7 &^ s.pos) & 1
		s.pos++
	}
	return b
}

// Remaining returns the number of unread bits in s.
func (s *BitStream) Remaining() int { return len(s.b)*8 - s.pos }

// Read returns the next n bits from s, n <= 32, most significant
// first.  If fewer than n bits remain, Read returns false and does
// not advance.
func (s *BitStream) Read(n int) (uint32, bool) {
	if n > s.Remaining() {
		return 0, false
	}
	var v uint32
	for ; n > 0; n-- {
		v = v<<1 | uint32(s.Next())
	}
	return v, true
}

// A Code is a square pixel grid.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row
}

// NewCode returns an all white Code with siz pixels on a side.
func NewCode(siz int) *Code {
	stride := (siz + 7) >> 3
	return &Code{Bitmap: make([]byte, stride*siz), Size: siz, Stride: stride}
}

func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

// Set sets the colour of the pixel at x, y.
func (c *Code) Set(x, y int, black bool) {
	off, bit := y*c.Stride+x/8, byte(1)<<uint(7&^x)
	if black {
		c.Bitmap[off] |= bit
	} else {
		c.Bitmap[off] &^= bit
	}
}

// Version returns the version matching the size of c.
func (c *Code) Version() (Version, error) { return SizeVersion(c.Size) }

// Penalty returns the penalty value for a QR code.
// The value is used for choosing the mask.
func (c *Code) Penalty() int {
	// Total penalty is the sum of penalties for runs and boxes
	// of same-colour pixels, finder patterns and colour balance.
	//
	//   - RunP: for non-overlapping runs of n pixels, n>=5 -> n-2
	//   - BoxP: for possibly overlapping 2x2 boxes -> 3
	//   - FindP: for possibly overlapping finder patterns -> 40
	//     The pattern is 1011101 with 0000 on either side;
	//     may extend into the quiet zone
	//   - BalP: for n% of black pixels -> 10*(celing(abs(n-50)/5)-1)
	//
	// https://www.nayuki.io/page/creating-a-qr-code-step-by-step
	const (
		MinRun    = 5             // RunP:  miniumum run length
		RunPDelta = -2            // RunP:  add to run length
		BoxPP     = 3             // BoxP:  points per box
		FindPP    = 40            // FindP: points per pattern
		BalPP     = 10            // BalP:  10 points
		BalPMul   = 20            //        for every 5% (1/20),
		BalPMax   = BalPMul/2 - 1 //        up to 9 times

		pMask = 1<<11 - 1      // last 11 pixels
		FindB = 0b0000_1011101 // quiet zone before
		FindA = 0b1011101_0000 // quiet zone after
	)
	siz := c.Size
	p := 0

	line := func(black func(int) bool) {
		r, last := 0, false
		pat := uint16(0) // pixels before the code are white
		for i := 0; i < siz; i++ {
			b := black(i)
			if i > 0 && b == last {
				r++
			} else {
				if r >= MinRun {
					p += r + RunPDelta // RunP
				}
				r, last = 1, b
			}
			pat = pat << 1 & pMask
			if b {
				pat |= 1
			}
			if pat == FindB || pat == FindA {
				p += FindPP // FindP
			}
		}
		if r >= MinRun {
			p += r + RunPDelta // RunP
		}
		// FindA with 1-4 pixels in the quiet zone
		for i := 0; i < 4; i++ {
			if pat = pat << 1 & pMask; pat == FindA {
				p += FindPP // FindP
			}
		}
	}
	for y := 0; y < siz; y++ {
		line(func(x int) bool { return c.Black(x, y) })
	}
	for x := 0; x < siz; x++ {
		line(func(y int) bool { return c.Black(x, y) })
	}

	bal := 0 // black pixels
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			b := c.Black(x, y)
			if b {
				bal++
			}
			if x > 0 && y > 0 && b == c.Black(x-1, y) &&
				b == c.Black(x, y-1) && b == c.Black(x-1, y-1) {
				p += BoxPP // BoxP
			}
		}
	}

	// Exact percentages get less penalty.  E.g., 40% and 60% get
	// 10 points like 41%, not 20 like 39%.  To round away from 50%,
	// fold bal into 0 <= n < c.Size²/2 and divide rounding down.
	// No need to handle 50% as c.Size is always odd.
	sq := siz * siz
	if bal > sq/2 {
		bal = sq - bal
	}
	p += (BalPMax - bal*BalPMul/sq) * BalPP
	return p
}

// A Plan describes how to construct a QR code
// with a specific version and level.
type Plan struct {
	Version Version // QR code version
	Level   Level   // QR error correction Level

	DataBits int // number of data bits
	Size     int // number of pixels on a side

	Map     []byte    // pixel map: 0 is data or checksum, 1 is other
	Pattern [8][]byte // position and alignment boxes, timing, format, mask
}

// NewPlan returns a Plan for a QR code with the given version and level.
func NewPlan(version Version, level Level) (*Plan, error) {
	pp, err := makePlan(version, level)
	if err != nil {
		return nil, err
	}
	p := *pp
	p.Map = append([]byte(nil), pp.Map...)
	for i, b := range pp.Pattern {
		p.Pattern[i] = append([]byte(nil), b...)
	}
	return &p, nil
}

// Pre-allocated Plans.  A Plan is created the first time a
// combination of version and level is used.  Each plan is 13 words
// plus a bitmap the size of 9 Code bitmaps, from 567 bytes for
// version 1 to 36 KB for version 40.
var plans [MaxVersion + 1][H + 1]struct {
	once sync.Once
	p    *Plan
}

// makePlan returns plans[version][level].
// If it doesn't exist, it is created.
func makePlan(version Version, level Level) (*Plan, error) {
	if version < MinVersion || version > MaxVersion {
		return nil, ErrVersion
	}
	if level < L || level > H {
		return nil, ErrLevel
	}
	p := &plans[version][level]
	p.once.Do(func() { p.p = vplan(version, level) })
	return p.p, nil
}

// offset returns the bitmap offset and bit of the pixel at x, y.
func (p *Plan) offset(x, y int) (int, byte) {
	return y*((p.Size+7)>>3) + x>>3, 0x80 >> (x & 7)
}

// fn sets the function pixel at x, y in the pattern b.
func (p *Plan) fn(b []byte, x, y int, black bool) {
	off, bit := p.offset(x, y)
	p.Map[off] |= bit
	if black {
		b[off] |= bit
	} else {
		b[off] &^= bit
	}
}

// finderBox draws a position (large) box with its separator
// centred at x, y.
func (p *Plan) finderBox(b []byte, x, y int) {
	for dy := -4; dy <= 4; dy++ {
		for dx := -4; dx <= 4; dx++ {
			xx, yy := x+dx, y+dy
			if 0 <= xx && xx < p.Size && 0 <= yy && yy < p.Size {
				d := max(abs(dx), abs(dy))
				p.fn(b, xx, yy, d != 2 && d != 4)
			}
		}
	}
}

// alignBox draws an alignment (small) box centred at x, y.
func (p *Plan) alignBox(b []byte, x, y int) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			p.fn(b, x+dx, y+dy, max(abs(dx), abs(dy)) != 1)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// vplan creates a Plan for the given version and level.
func vplan(v Version, l Level) *Plan {
	siz := v.Size()
	n := (siz + 7) >> 3 * siz
	p := &Plan{
		Version:  v,
		Level:    l,
		DataBits: v.DataBits(l),
		Size:     siz,
	}
	bitmap := make([]byte, n*9)
	p.Map, bitmap = bitmap[:n:n], bitmap[n:]
	for i := range p.Pattern {
		p.Pattern[i], bitmap = bitmap[:n:n], bitmap[n:]
	}
	b := p.Pattern[0]

	// Timing markers.
	for i := 8; i < siz-8; i++ {
		p.fn(b, i, 6, i&1 == 0)
		p.fn(b, 6, i, i&1 == 0)
	}

	// Position boxes.
	p.finderBox(b, 3, 3)
	p.finderBox(b, siz-4, 3)
	p.finderBox(b, 3, siz-4)

	// Alignment boxes, except where they overlap position boxes.
	pos := v.alignment()
	for i, y := range pos {
		for j, x := range pos {
			last := len(pos) - 1
			if i == 0 && (j == 0 || j == last) || i == last && j == 0 {
				continue
			}
			p.alignBox(b, x, y)
		}
	}

	// Version pattern: 6x3 pixels at (0, siz-11), 3x6 at (siz-11, 0).
	if v >= 7 {
		vb := VersionBits(v)
		for i := 0; i < 18; i++ {
			black := vb>>i&1 != 0
			x, y := siz-11+i%3, i/3
			p.fn(b, x, y, black)
			p.fn(b, y, x, black)
		}
	}

	// One lonely black pixel
	p.fn(b, 8, siz-8, true)

	for _, pb := range p.Pattern[1:] {
		copy(pb, b)
	}
	for mask, pb := range p.Pattern {
		p.setFormat(pb, FormatBits(l, mask))
	}
	for mask := range p.Pattern {
		p.mplan(mask)
	}
	return p
}

// Mask patterns:
//
//	0: ▄▀▄▀▄▀▄▀▄▀▄▀  1: ▄▄▄▄▄▄▄▄▄▄▄▄  2:  ██ ██ ██ ██  3: ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//
//	4:    ███   ███  5:  ▄▄▄▄▄ ▄▄▄▄▄  6:    ▄▄▄   ▄▄▄  7: ▄█▄▀ ▀▄█▄▀ ▀
//	   ███   ███         █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	      ███   ███      ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
var masks = [8]func(x, y int) bool{
	func(x, y int) bool { return (x+y)%2 == 0 },
	func(x, y int) bool { return y%2 == 0 },
	func(x, y int) bool { return x%3 == 0 },
	func(x, y int) bool { return (x+y)%3 == 0 },
	func(x, y int) bool { return (x/3+y/2)%2 == 0 },
	func(x, y int) bool { return x*y%2+x*y%3 == 0 },
	func(x, y int) bool { return (x*y%2+x*y%3)%2 == 0 },
	func(x, y int) bool { return ((x+y)%2+x*y%3)%2 == 0 },
}

// MaskFunc returns the mask condition for mask 0 to 7:
// data pixels at x, y for which it returns true are inverted.
func MaskFunc(mask int) func(x, y int) bool { return masks[mask] }

// mplan adds the mask to data pixels of Pattern[mask].
func (p *Plan) mplan(mask int) {
	f := masks[mask]
	b := p.Pattern[mask]
	for y := 0; y < p.Size; y++ {
		for x := 0; x < p.Size; x++ {
			if off, bit := p.offset(x, y); p.Map[off]&bit == 0 && f(x, y) {
				b[off] |= bit
			}
		}
	}
}

// Mask inverts the data pixels of c selected by mask.
func (p *Plan) Mask(c *Code, mask int) {
	for i, v := range p.Pattern[mask] {
		c.Bitmap[i] ^= v &^ p.Map[i]
	}
}

// walk calls f for each data pixel in zigzag scan order.
func (p *Plan) walk(f func(off int, bit byte)) {
	siz := p.Size
	for right := siz - 1; right >= 1; right -= 2 {
		if right == 6 { // vertical timing strip
			right = 5
		}
		up := (right+1)&2 == 0
		for vert := 0; vert < siz; vert++ {
			y := vert
			if up {
				y = siz - 1 - vert
			}
			for x := right; x > right-2; x-- {
				if off, bit := p.offset(x, y); p.Map[off]&bit == 0 {
					f(off, bit)
				}
			}
		}
	}
}

// Serialise writes bits from s to the bitmap in zigzag scan order.
func (p *Plan) Serialise(s BitStream, bitmap []byte) {
	p.walk(func(off int, bit byte) {
		if s.Next() != 0 {
			bitmap[off] ^= bit
		}
	})
}

// Encoder encodes a QR code.
type Encoder struct {
	p *Plan
	b *Bits
}

func newEncoder(p *Plan) *Encoder {
	return &Encoder{p: p, b: NewBits(p.Version, p.Level)}
}

// NewEncoder returns an Encoder for the given version and level.
func NewEncoder(version Version, level Level) (*Encoder, error) {
	p, err := makePlan(version, level)
	if err != nil {
		return nil, err
	}
	return newEncoder(p), nil
}

// Write adds text to e.
func (e *Encoder) Write(text ...Segment) error {
	class := e.p.Version.SizeClass()
	for _, t := range text {
		if err := t.Encode(e.b, class); err != nil {
			return err
		}
	}
	return nil
}

// xor xors a and b into dst.  a and b may not be shorter than dst.
// dst and a or b should not overlap unless they are the same slice.
func xor(dst, a, b []byte) {
	a = a[:len(dst)]
	b = b[:len(dst)]
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

func (e *Encoder) Reset() { e.b.Reset() }

// ErrCapacity is returned when the data does not fit the code.
var ErrCapacity = errors.New("qr: data too long")

// Code returns a QR code containing data written to e.
func (e *Encoder) Code() (*Code, error) {
	if e.b.Bits() > e.p.DataBits {
		return nil, fmt.Errorf("%w: cannot encode %d bits into %d-bit code",
			ErrCapacity, e.b.Bits(), e.p.DataBits)
	}
	e.b.AddCheckBytes(e.p.Version, e.p.Level)
	bits := e.b.Permute(e.p.Version, e.p.Level)
	// Now we have the checksum bytes and the data bytes.
	// Construct the bitmap consisting of data and checksum bits.
	siz, stride := e.p.Size, (e.p.Size+7)>>3
	data := make([]byte, siz*stride)
	e.p.Serialise(bits, data)

	// Apply masks to the bitmap to construct the actual codes.
	// Choose the code with the smallest penalty.
	c := &Code{Size: siz, Stride: stride, Bitmap: make([]byte, len(data))}
	best := make([]byte, len(data)) // best bitmap so far
	pen := 1 << 30                  // largest penalty is < 1<<20
	for _, v := range e.p.Pattern {
		// set bitmap to data bits xor plan bits
		xor(c.Bitmap, data, v)
		if p := c.Penalty(); p < pen {
			best, pen, c.Bitmap = c.Bitmap, p, best
		}
	}
	c.Bitmap = best
	return c, nil
}

// Encode is a wrapper around Write and Code.
func (e *Encoder) Encode(text ...Segment) (*Code, error) {
	if err := e.Write(text...); err != nil {
		return nil, err
	}
	return e.Code()
}

func (p *Plan) Encode(text ...Segment) (*Code, error) {
	return newEncoder(p).Encode(text...)
}

// Encode encodes text using an Encoder with the given version and level.
func Encode(version Version, level Level, text ...Segment) (*Code, error) {
	e, err := NewEncoder(version, level)
	if err != nil {
		return nil, err
	}
	return e.Encode(text...)
}

// A version describes metadata associated with a version.
type version struct {
	apos    int // second alignment box centre, 0 if none
	astride int // distance between alignment box centres
	bytes   int // total data and check bytes
	level   [4]level
}

type level struct {
	nblock int // number of blocks
	check  int // check bytes per block
}
