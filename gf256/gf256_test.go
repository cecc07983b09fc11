// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var qrField = NewField(0x11d, 2)

func TestFieldArithmetic(t *testing.T) {
	f := qrField
	assert.Equal(t, byte(1), f.Exp(0))
	assert.Equal(t, byte(2), f.Exp(1))
	assert.Equal(t, byte(0x1d), f.Exp(8))
	assert.Equal(t, -1, f.Log(0))
	assert.Equal(t, byte(0), f.Inv(0))
	for x := 1; x < 256; x++ {
		b := byte(x)
		assert.Equal(t, b, f.Exp(f.Log(b)), "exp(log(%#x))", x)
		assert.Equal(t, byte(1), f.Mul(b, f.Inv(b)), "%#x * inv", x)
		assert.Equal(t, byte(0), f.Mul(b, 0))
		assert.Equal(t, byte(0), f.Add(b, b))
	}
}

func TestNewFieldPanics(t *testing.T) {
	assert.Panics(t, func() { NewField(0x100, 2) }) // x^8, reducible
	assert.Panics(t, func() { NewField(0x11d, 1) })
	assert.NotPanics(t, func() { NewField(0x11b, 3) })
}

func TestECC(t *testing.T) {
	// "HELLO WORLD", version 1, level M.
	data := []byte{32, 91, 11, 120, 209, 114, 220, 77,
		67, 64, 236, 17, 236, 17, 236, 17}
	want := []byte{196, 35, 39, 119, 235, 215, 231, 226, 93, 23}
	check := make([]byte, len(want))
	NewRSEncoder(qrField, len(want)).ECC(data, check)
	assert.Equal(t, want, check)
}

func codeword(r *rand.Rand, ndata, c int) []byte {
	b := make([]byte, ndata+c)
	r.Read(b[:ndata])
	NewRSEncoder(qrField, c).ECC(b[:ndata], b[ndata:])
	return b
}

// corrupt changes n distinct bytes of b.
func corrupt(r *rand.Rand, b []byte, n int) {
	for _, k := range r.Perm(len(b))[:n] {
		b[k] ^= byte(r.Intn(255) + 1)
	}
}

func TestCorrectClean(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	b := codeword(r, 19, 7)
	n, err := NewRSDecoder(qrField, 7).Correct(b)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCorrectWithinCapacity(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("up to c/2 errors are corrected", prop.ForAll(
		func(seed int64, ndata, c int) bool {
			r := rand.New(rand.NewSource(seed))
			orig := codeword(r, ndata, c)
			b := bytes.Clone(orig)
			nerr := r.Intn(c/2 + 1)
			corrupt(r, b, nerr)
			n, err := NewRSDecoder(qrField, c).Correct(b)
			return err == nil && n == nerr && bytes.Equal(b, orig)
		},
		gen.Int64(),
		gen.IntRange(1, 120),
		gen.IntRange(2, 30),
	))
	properties.TestingRun(t)
}

func TestCorrectBeyondCapacity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, c := range []int{16, 22, 28, 30} {
		for i := 0; i < 20; i++ {
			b := codeword(r, 100, c)
			corrupt(r, b, c/2+1)
			bad := bytes.Clone(b)
			_, err := NewRSDecoder(qrField, c).Correct(b)
			require.ErrorIs(t, err, ErrUncorrectable, "c=%d", c)
			assert.Equal(t, bad, b, "block modified")
		}
	}
}

func TestCorrectBlockLength(t *testing.T) {
	_, err := NewRSDecoder(qrField, 10).Correct(make([]byte, 5))
	assert.ErrorIs(t, err, ErrBlockLength)
	_, err = NewRSDecoder(qrField, 10).Correct(make([]byte, 256))
	assert.ErrorIs(t, err, ErrBlockLength)
}

func BenchmarkECC(b *testing.B) {
	data := make([]byte, 98)
	check := make([]byte, 26)
	rs := NewRSEncoder(qrField, 26)
	for i := 0; i < b.N; i++ {
		rs.ECC(data, check)
	}
}
