// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gf256 implements arithmetic over the Galois Field GF(256)
// and Reed-Solomon encoding and decoding over it.
package gf256 // import "github.com/unixdj/qrscan/gf256"

import (
	"errors"
	"strconv"
)

// A Field represents an instance of GF(256) defined by a specific
// polynomial.
type Field struct {
	log [256]byte // log[0] is unused
	exp [510]byte
}

// NewField returns a new field corresponding to the polynomial poly
// and generator α.  The Reed-Solomon encoding in QR codes uses
// polynomial 0x11d with generator 2.
//
// The choice of generator α only affects the Exp and Log operations.
func NewField(poly, α int) *Field {
	if poly < 0x100 || poly >= 0x200 || reducible(poly) {
		panic("gf256: invalid polynomial: " + strconv.Itoa(poly))
	}
	var f Field
	x := 1
	for i := 0; i < 255; i++ {
		if x == 1 && i != 0 {
			panic("gf256: invalid generator " + strconv.Itoa(α) +
				" for polynomial " + strconv.Itoa(poly))
		}
		f.exp[i] = byte(x)
		f.exp[i+255] = byte(x)
		f.log[x] = byte(i)
		x = mul(x, α, poly)
	}
	f.log[0] = 255
	return &f
}

// nbit returns the number of significant bits in p.
func nbit(p int) uint {
	n := uint(0)
	for ; p > 0; p >>= 1 {
		n++
	}
	return n
}

// polyDiv divides the polynomial p by q and returns the remainder.
func polyDiv(p, q int) int {
	np := nbit(p)
	nq := nbit(q)
	for ; np >= nq; np-- {
		if p&(1<<(np-1)) != 0 {
			p ^= q << (np - nq)
		}
	}
	return p
}

// mul returns the product x*y mod poly, a GF(256) multiplication.
func mul(x, y, poly int) int {
	z := 0
	for x > 0 {
		if x&1 != 0 {
			z ^= y
		}
		x >>= 1
		y <<= 1
		if y&0x100 != 0 {
			y ^= poly
		}
	}
	return z
}

// reducible reports whether p is reducible.
func reducible(p int) bool {
	// Multiplying n-bit * n-bit produces (2n-1)-bit,
	// so if p is reducible, one of its factors must be
	// of np/2+1 bits or fewer.
	np := nbit(p)
	for q := 2; q < 1<<(np/2+1); q++ {
		if polyDiv(p, q) == 0 {
			return true
		}
	}
	return false
}

// Add returns the sum of x and y in the field.
func (f *Field) Add(x, y byte) byte {
	return x ^ y
}

// Exp returns the base-α exponential of e in the field.
// If e < 0, Exp returns 0.
func (f *Field) Exp(e int) byte {
	if e < 0 {
		return 0
	}
	return f.exp[e%255]
}

// Log returns the base-α logarithm of x in the field.
// If x == 0, Log returns -1.
func (f *Field) Log(x byte) int {
	if x == 0 {
		return -1
	}
	return int(f.log[x])
}

// Inv returns the multiplicative inverse of x in the field.
// If x == 0, Inv returns 0.
func (f *Field) Inv(x byte) byte {
	if x == 0 {
		return 0
	}
	return f.exp[255-f.log[x]]
}

// Mul returns the product of x and y in the field.
func (f *Field) Mul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

// pow returns x raised to the power n.
func (f *Field) pow(x byte, n int) byte {
	if n == 0 {
		return 1
	}
	if x == 0 {
		return 0
	}
	return f.exp[int(f.log[x])*n%255]
}

// eval evaluates the polynomial p, coefficients lowest degree first,
// at x.
func (f *Field) eval(p []byte, x byte) byte {
	var r byte
	for i := len(p) - 1; i >= 0; i-- {
		r = f.Mul(r, x) ^ p[i]
	}
	return r
}

// gen returns the Reed-Solomon generator polynomial of degree e,
// coefficients highest degree first, with the leading 1 included.
func (f *Field) gen(e int) []byte {
	// p = ∏ (x - α^i) for 0 <= i < e
	p := make([]byte, e+1)
	p[0] = 1
	for i := 0; i < e; i++ {
		c := f.Exp(i)
		for j := i + 1; j > 0; j-- {
			p[j] ^= f.Mul(p[j-1], c)
		}
	}
	return p
}

// An RSEncoder implements Reed-Solomon encoding
// over a given field using a given number of error correction bytes.
type RSEncoder struct {
	f   *Field
	c   int
	gen []byte
}

// NewRSEncoder returns a new Reed-Solomon encoder
// over the given field and number of error correction bytes.
func NewRSEncoder(f *Field, c int) *RSEncoder {
	return &RSEncoder{f: f, c: c, gen: f.gen(c)}
}

// ECC writes to check the error correcting code bytes
// for data using the given Reed-Solomon parameters.
func (rs *RSEncoder) ECC(data []byte, check []byte) {
	if len(check) < rs.c {
		panic("gf256: invalid check byte length")
	}
	if rs.c == 0 {
		return
	}
	rem := check[:rs.c]
	clear(rem)
	g := rs.gen[1:]
	for _, d := range data {
		fb := d ^ rem[0]
		copy(rem, rem[1:])
		rem[len(rem)-1] = 0
		if fb != 0 {
			for i, c := range g {
				rem[i] ^= rs.f.Mul(c, fb)
			}
		}
	}
}

// ErrUncorrectable is returned by RSDecoder.Correct when a block
// contains more errors than its check bytes can correct.
var ErrUncorrectable = errors.New("gf256: uncorrectable block")

// ErrBlockLength is returned by RSDecoder.Correct when a block is
// shorter than its check bytes or longer than 255 bytes.
var ErrBlockLength = errors.New("gf256: invalid block length")

// An RSDecoder implements Reed-Solomon error correction over a given
// field using a given number of error correction bytes.
type RSDecoder struct {
	f *Field
	c int
}

// NewRSDecoder returns a new Reed-Solomon decoder
// over the given field and number of error correction bytes.
func NewRSDecoder(f *Field, c int) *RSDecoder {
	return &RSDecoder{f: f, c: c}
}

// syndromes computes the syndromes of block into s and reports
// whether any of them is non-zero.
func (rs *RSDecoder) syndromes(block, s []byte) bool {
	nz := false
	for i := range s {
		x := rs.f.Exp(i)
		var r byte
		for _, v := range block {
			r = rs.f.Mul(r, x) ^ v
		}
		s[i] = r
		nz = nz || r != 0
	}
	return nz
}

// Correct corrects block, data bytes followed by check bytes, in place.
// It returns the number of corrected bytes.  If the block has more
// errors than can be corrected, Correct returns ErrUncorrectable and
// leaves block unmodified.
func (rs *RSDecoder) Correct(block []byte) (int, error) {
	f, c, n := rs.f, rs.c, len(block)
	if n > 255 || n < c {
		return 0, ErrBlockLength
	}
	synd := make([]byte, c)
	if !rs.syndromes(block, synd) {
		return 0, nil
	}

	// Berlekamp-Massey: error locator lambda, lowest degree first.
	lambda := make([]byte, c+1)
	prev := make([]byte, c+1)
	tmp := make([]byte, c+1)
	lambda[0], prev[0] = 1, 1
	nerr, m, b := 0, 1, byte(1)
	for k := 0; k < c; k++ {
		d := synd[k]
		for i := 1; i <= nerr; i++ {
			d ^= f.Mul(lambda[i], synd[k-i])
		}
		if d == 0 {
			m++
			continue
		}
		coef := f.Mul(d, f.Inv(b))
		copy(tmp, lambda)
		for i := 0; i+m <= c; i++ {
			lambda[i+m] ^= f.Mul(coef, prev[i])
		}
		if 2*nerr <= k {
			nerr = k + 1 - nerr
			copy(prev, tmp)
			b, m = d, 1
		} else {
			m++
		}
	}
	if 2*nerr > c {
		return 0, ErrUncorrectable
	}
	lambda = lambda[:nerr+1]

	// Chien search.  Byte k has locator α^(n-1-k).
	pos := make([]int, 0, nerr)
	for k := 0; k < n; k++ {
		if f.eval(lambda, f.Exp(255-(n-1-k)%255)) == 0 {
			pos = append(pos, k)
		}
	}
	if len(pos) != nerr {
		return 0, ErrUncorrectable
	}

	// Forney: omega = synd * lambda mod x^c.
	omega := make([]byte, c)
	for i := range omega {
		for j := 0; j <= i && j <= nerr; j++ {
			omega[i] ^= f.Mul(synd[i-j], lambda[j])
		}
	}
	fix := make([]byte, len(pos))
	for i, k := range pos {
		e := (n - 1 - k) % 255
		x, xinv := f.Exp(e), f.Exp(255-e)
		var den byte // formal derivative of lambda at xinv
		for j := 1; j <= nerr; j += 2 {
			den ^= f.Mul(lambda[j], f.pow(xinv, j-1))
		}
		if den == 0 {
			return 0, ErrUncorrectable
		}
		fix[i] = f.Mul(f.Mul(x, f.eval(omega, xinv)), f.Inv(den))
	}
	for i, k := range pos {
		block[k] ^= fix[i]
	}
	if rs.syndromes(block, synd) {
		for i, k := range pos {
			block[k] ^= fix[i]
		}
		return 0, ErrUncorrectable
	}
	return nerr, nil
}
