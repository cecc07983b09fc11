// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrscan/coding"
	"github.com/unixdj/qrscan/split"
)

func decodeText(t *testing.T, c *Code) string {
	t.Helper()
	sym, err := coding.Decode(c.Coding())
	require.NoError(t, err)
	text, ok := sym.Text()
	require.True(t, ok)
	return text
}

func TestEncode(t *testing.T) {
	c, err := Encode("HELLO WORLD", M)
	require.NoError(t, err)
	assert.Equal(t, 21, c.Size)
	assert.Equal(t, 3, c.Stride)
	assert.Equal(t, DefaultScale, c.Scale)
	assert.Equal(t, DefaultBorder, c.Border)
	assert.Equal(t, "HELLO WORLD", decodeText(t, c))

	sym, err := coding.Decode(c.Coding())
	require.NoError(t, err)
	assert.Equal(t, coding.M, sym.Level)
	assert.Equal(t, []coding.Segment{{Text: "HELLO WORLD", Mode: coding.Alphanumeric}}, sym.Segments)
}

func TestEncodeSegments(t *testing.T) {
	eci, err := coding.NewECI(26)
	require.NoError(t, err)
	c, err := EncodeSegments(Q, eci, coding.Segment{Text: "héllo", Mode: coding.Byte})
	require.NoError(t, err)
	assert.Equal(t, "héllo", decodeText(t, c))

	c, err = EncodeSegments(L)
	require.NoError(t, err)
	assert.Equal(t, 21, c.Size)
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(strings.Repeat("a", 2954), L)
	assert.ErrorIs(t, err, split.ErrLongText)
	_, err = Encode("x", Level(7))
	assert.ErrorIs(t, err, coding.ErrLevel)
	_, err = EncodeSegments(Level(-1))
	assert.ErrorIs(t, err, coding.ErrLevel)
	_, err = EncodeSegments(H, coding.Segment{Text: strings.Repeat("b", 1274), Mode: coding.Byte})
	assert.ErrorIs(t, err, coding.ErrCapacity)

	_, err = EncodeSegments(M, coding.Segment{Text: "abc", Mode: coding.Numeric})
	var se coding.SegmentError
	assert.True(t, errors.As(err, &se), "%v", err)
}

func TestEncodeCapacity(t *testing.T) {
	for _, text := range []string{
		strings.Repeat("a", 2953),
		strings.Repeat("é", 1476),
		strings.Repeat("9", 7089),
	} {
		c, err := Encode(text, L)
		require.NoError(t, err)
		assert.Equal(t, coding.MaxVersion.Size(), c.Size)
		assert.Equal(t, text, decodeText(t, c))
	}
}

func TestEncodeProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("decode(encode(s)) == s", prop.ForAll(
		func(s string, level int) bool {
			c, err := Encode(s, Level(level))
			if err != nil {
				return false
			}
			sym, err := coding.Decode(c.Coding())
			if err != nil {
				return false
			}
			text, ok := sym.Text()
			return ok && text == s
		},
		gen.AnyString().SuchThat(utf8.ValidString),
		gen.IntRange(int(L), int(H)),
	))
	properties.TestingRun(t)
}

func TestImage(t *testing.T) {
	c, err := Encode("image", M)
	require.NoError(t, err)
	c.Scale = 2
	img := c.Image()
	assert.Equal(t, 58, img.Bounds().Dx())
	assert.Equal(t, 58, img.Bounds().Dy())
	black, white := color.GrayModel.Convert(color.Black), color.GrayModel.Convert(color.White)
	gray := func(x, y int) color.Color { return color.GrayModel.Convert(img.At(x, y)) }
	assert.Equal(t, white, gray(0, 0))
	assert.Equal(t, black, gray(8, 8))
	assert.Equal(t, black, gray(9, 9))
	assert.Equal(t, white, gray(10, 10)) // finder pattern ring

	c.Reverse = true
	img = c.Image()
	assert.Equal(t, black, gray(0, 0))
	assert.Equal(t, white, gray(8, 8))

	c.Reverse = false
	c.Palette = &[2]color.Color{color.RGBA{0xff, 0xff, 0, 0xff}, color.RGBA{0, 0, 0x80, 0xff}}
	img = c.Image()
	assert.Equal(t, color.RGBA{0xff, 0xff, 0, 0xff}, img.At(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0x80, 0xff}, img.At(8, 8))
}

func TestPNG(t *testing.T) {
	c, err := Encode("png", H)
	require.NoError(t, err)
	c.Scale = 3
	b := c.PNG()
	require.NotNil(t, b)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	want := c.Image()
	require.Equal(t, want.Bounds(), img.Bounds())
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			r0, g0, b0, _ := want.At(x, y).RGBA()
			r1, g1, b1, _ := img.At(x, y).RGBA()
			require.Equal(t, [3]uint32{r0, g0, b0}, [3]uint32{r1, g1, b1}, "(%d, %d)", x, y)
		}
	}

	assert.ErrorIs(t, c.EncodePNG(nil), ErrArgs)
	c.Scale = 0
	assert.Nil(t, c.PNG())
	c.Scale = 1 << 20
	assert.ErrorIs(t, c.EncodePNG(&bytes.Buffer{}), ErrLargeImage)
}

func TestPBM(t *testing.T) {
	c, err := Encode("pbm", L)
	require.NoError(t, err)
	c.Scale, c.Border = 1, 2
	var b bytes.Buffer
	require.NoError(t, c.EncodePBM(&b))
	header := "P4\n25 25\n"
	require.True(t, strings.HasPrefix(b.String(), header))
	data := b.Bytes()[len(header):]
	require.Len(t, data, 25*4)
	// Quiet zone rows are white, the top finder row starts at x=2.
	assert.Equal(t, []byte{0, 0, 0, 0}, data[:4])
	assert.Equal(t, byte(0x3f), data[2*4])
	assert.Equal(t, byte(0x80), data[2*4+1]&0x80)

	c.Reverse = true
	b.Reset()
	require.NoError(t, c.EncodePBM(&b))
	assert.Equal(t, byte(0xff), b.Bytes()[len(header)])
}

func TestString(t *testing.T) {
	c, err := Encode("text", M)
	require.NoError(t, err)
	c.Border = 0
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, 21, utf8.RuneCountInString(lines[0]))
	assert.True(t, strings.HasPrefix(lines[0], "█▀▀▀▀▀█"), lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "▀▀▀▀▀▀▀"), lines[3])
}
