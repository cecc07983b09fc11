// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// Predefined encoding modes.
const (
	Numeric       Mode = iota // numeric mode, ASCII-compatible text
	Alphanumeric              // alphanumeric mode, ASCII-compatible text
	Byte                      // byte mode, any data
	Kanji                     // kanji mode, UTF-8 text
	Latin1                    // byte mode, UTF-8 text encoded as ISO 8859-1
	ShiftJISKanji             // kanji mode, Shift JIS text
	FNC1Alpha                 // alphanumeric mode for FNC1 codes
	ECI                       // eci mode, raw segment
	StructAppend              // structured append, raw segment
	FNC1First                 // FNC1 in 1st position
	FNC1Second                // FNC1 in 2nd position
)

// A Mode is a QR segment encoder.
type Mode int16

// ModeEncoder implements a QR segment encoding.
//
// The segment is validated using either Valid or CutRune and Accepts.
// Text mode encoders other than Numeric, Alphanumeric, Byte and
// ShiftJISKanji have a Transform function returning a segment of
// one of those modes.  The encoder calls Segment.Transform and
// validates the returned segment before encoding.
type ModeEncoder struct {
	Name      string // Name for error reporting
	Indicator byte   // 4 bit mode indicator

	// CountLength lists lengths of the character count field in
	// the three version size classes.
	CountLength [3]byte

	// EncodedLength returns the encoded data length in bits of a valid
	// string of the given length in bytes and runes.
	EncodedLength func(bytes, runes int) int

	// Valid reports whether the string is valid for the encoding mode.
	// If nil, the string is validated using CutRune and Accepts.
	Valid func(string) bool

	// CutRune returns the first rune in the string and its width in
	// bytes.  If nil, utf8.DecodeRuneInString is used.
	CutRune func(string) (rune, int)

	// Accepts reports whether the encoding mode accepts the rune.
	// If nil, any rune is accepted.
	Accepts func(rune) bool

	// Transform returns a segment of another Mode with the string
	// transformed for encoding and a boolean indicating whether the
	// transform was successful.
	Transform func(string) (Segment, bool)

	// Count returns the character count of the transformed string.
	// If nil, the length of the string in bytes is used.
	Count func(string) int

	// Encode3, Encode2 and Encode1 return the encoding of the bytes
	// and its length in bits.  The encoder calls a non-nil Encode{N}
	// repeatedly as long as N source bytes are available, in
	// descending order of N.  If all are nil, each byte is encoded as
	// 8 bits.
	Encode3 func([3]byte) (uint32, int)
	Encode2 func([2]byte) (uint32, int)
	Encode1 func(byte) (uint32, int)

	// Decode reads n characters from the stream and returns the
	// segment text.  Only modes produced by decoding set it.
	Decode func(s *BitStream, n int) (string, bool)
}

const alphamask uint64 = 0x07fffffe_07ffec31 // SPACE $% *+ -./ [0-9] : [A-Z]

// Alphanumeric encoding table.  Used after validation.
// "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"
var alpha = [64]byte{
	00, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, // 0x40
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 00, 00, 00, 00, 00, // 0x50
	36, 00, 00, 00, 37, 38, 00, 00, 00, 00, 39, 40, 00, 41, 42, 43, // 0x20
	00, 01, 02, 03, 04, 05, 06, 07, 010, 9, 44, 00, 00, 00, 00, 00, // 0x30
}

// Alphanumeric decoding table.
const alphaChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// Shift JIS table for ShiftJISKanji CutRune.
// Bit fields:
//
//	1 = valid 1st byte of multibyte character  0x81-0x9f, 0xe0-0xfc
//	2 = valid 2nd byte of multibyte character  0x40-0x7e, 0x80-0xfc
var sjistbl = [256]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x00
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x10
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x20
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x30
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0x40
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0x50
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0x60
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 0, // 0x70
	2, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, // 0x80
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, // 0x90
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xa0
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xb0
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xc0
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xd0
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, // 0xe0
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 0, 0, 0, // 0xf0
}

func nothing(rune) bool { return false }

// IsKanji reports whether the Unicode rune r belongs to the QR Kanji
// subset of JIS X 0208: its Shift JIS encoding is a double byte code
// in 0x8140-0x9ffc or 0xe040-0xebbf that decodes back to r.
func IsKanji(r rune) bool {
	if r < 0x80 || !utf8.ValidRune(r) {
		return false
	}
	s := string(r)
	t, err := japanese.ShiftJIS.NewEncoder().String(s)
	if err != nil || len(t) != 2 {
		return false
	}
	c := uint16(t[0])<<8 | uint16(t[1])
	if !(0x8140 <= c && c <= 0x9ffc || 0xe040 <= c && c <= 0xebbf) {
		return false
	}
	u, err := japanese.ShiftJIS.NewDecoder().String(t)
	return err == nil && u == s
}

// decodeGroups returns a Decode function reading n groups of nbit bits
// and converting each with f.
func decodeGroups(nbit int, f func(v uint32, b []byte) ([]byte, bool)) func(*BitStream, int) (string, bool) {
	return func(s *BitStream, n int) (string, bool) {
		b := make([]byte, 0, n)
		for i := 0; i < n; i++ {
			v, ok := s.Read(nbit)
			if !ok {
				return "", false
			}
			if b, ok = f(v, b); !ok {
				return "", false
			}
		}
		return string(b), true
	}
}

var modes = [...]ModeEncoder{
	Numeric: {
		Name:          "numeric",
		Indicator:     1,
		CountLength:   [3]byte{10, 12, 14},
		EncodedLength: func(b, r int) int { return (10*b + 2) / 3 },
		Accepts:       func(r rune) bool { return uint32(r-'0') < 10 },
		Encode1: func(b byte) (uint32, int) {
			return uint32(b), 4
		},
		Encode2: func(b [2]byte) (uint32, int) {
			return uint32(b[0])*10 + uint32(b[1]) - '0'*11&0x7f, 7
		},
		Encode3: func(b [3]byte) (uint32, int) {
			return uint32(b[0])*100 + uint32(b[1])*10 +
				uint32(b[2]) + -'0'*111&0x3ff, 10
		},
		Decode: func(s *BitStream, n int) (string, bool) {
			b := make([]byte, 0, n)
			for ; n > 0; n -= 3 {
				digits, nbit, lim := min(n, 3), 10, uint32(1000)
				switch digits {
				case 2:
					nbit, lim = 7, 100
				case 1:
					nbit, lim = 4, 10
				}
				v, ok := s.Read(nbit)
				if !ok || v >= lim {
					return "", false
				}
				for lim /= 10; lim > 0; lim /= 10 {
					b = append(b, byte('0'+v/lim%10))
				}
			}
			return string(b), true
		},
	},
	Alphanumeric: {
		Name:          "alphanumeric",
		Indicator:     2,
		CountLength:   [3]byte{9, 11, 13},
		EncodedLength: func(b, r int) int { return (11*b + 1) / 2 },
		Accepts: func(r rune) bool {
			return alphamask>>(uint32(r)-' ')&1 != 0
		},
		Encode1: func(b byte) (uint32, int) {
			return uint32(alpha[b&0x3f]), 6
		},
		Encode2: func(b [2]byte) (uint32, int) {
			return uint32(alpha[b[0]&0x3f])*45 +
				uint32(alpha[b[1]&0x3f]), 11
		},
		Decode: func(s *BitStream, n int) (string, bool) {
			b := make([]byte, 0, n)
			for ; n >= 2; n -= 2 {
				v, ok := s.Read(11)
				if !ok || v >= 45*45 {
					return "", false
				}
				b = append(b, alphaChars[v/45], alphaChars[v%45])
			}
			if n == 1 {
				v, ok := s.Read(6)
				if !ok || v >= 45 {
					return "", false
				}
				b = append(b, alphaChars[v])
			}
			return string(b), true
		},
	},
	Byte: {
		Name:        "byte",
		Indicator:   4,
		CountLength: [3]byte{8, 16, 16},
		Decode: decodeGroups(8, func(v uint32, b []byte) ([]byte, bool) {
			return append(b, byte(v)), true
		}),
	},
	Kanji: {
		Name:          "kanji",
		Indicator:     8,
		CountLength:   [3]byte{8, 10, 12},
		EncodedLength: func(b, r int) int { return r * 13 },
		Accepts:       IsKanji,
		Transform: func(s string) (Segment, bool) {
			t, err := japanese.ShiftJIS.NewEncoder().String(s)
			return Segment{t, ShiftJISKanji}, err == nil
		},
	},
	Latin1: {
		Name:          "latin-1",
		Indicator:     4,
		CountLength:   [3]byte{8, 16, 16},
		EncodedLength: func(b, r int) int { return r * 8 },
		Accepts:       func(r rune) bool { return uint32(r) < 0x100 },
		Transform: func(s string) (Segment, bool) {
			t, err := charmap.ISO8859_1.NewEncoder().String(s)
			return Segment{t, Byte}, err == nil
		},
	},
	ShiftJISKanji: {
		Name:          "shift-jis-kanji",
		Indicator:     8,
		CountLength:   [3]byte{8, 10, 12},
		EncodedLength: func(b, r int) int { return b >> 1 * 13 },
		Count:         func(s string) int { return len(s) >> 1 },
		CutRune: func(s string) (rune, int) {
			r, sz := rune(s[0]), 1
			if sjistbl[s[0]]&1 != 0 && len(s) > 1 &&
				sjistbl[s[1]]&2 != 0 {
				r, sz = r<<8|rune(s[1]), 2
			}
			return r, sz
		},
		Accepts: func(r rune) bool {
			const maxk = 0x1fff/0xc0<<8 | 0x1fff%0xc0 + 0xc140
			return uint32(r^0x8000) < maxk-0x8000+1
		},
		Encode2: func(b [2]byte) (uint32, int) {
			return uint32(b[0]&^0xc0)*0xc0 + uint32(b[1]) - 0x100,
				13
		},
		Decode: decodeGroups(13, func(v uint32, b []byte) ([]byte, bool) {
			c := v/0xc0<<8 | v%0xc0
			if c < 0x1f00 {
				c += 0x8140
			} else {
				c += 0xc140
			}
			return append(b, byte(c>>8), byte(c)), true
		}),
	},
	FNC1Alpha: {
		Name:          "fnc1-alphanumeric",
		Indicator:     2,
		CountLength:   [3]byte{9, 11, 13},
		EncodedLength: func(b, r int) int { return (11*b + 1) / 2 },
		Accepts: func(r rune) bool {
			return alphamask>>(uint32(r)-' ')&1 != 0 || r == 0x1d
		},
		Transform: func(s string) (Segment, bool) {
			return Segment{strings.ReplaceAll(s, "\x1d", "%"),
				Alphanumeric}, true
		},
	},
	ECI: {
		Name:      "eci",
		Indicator: 7,
		Accepts:   nothing,
		Valid: func(s string) bool {
			ok := s != "" && len(s) == max(1, int(s[0]>>6))
			if ok && len(s) == 3 {
				ok = uint32(s[0]&^0xc0)<<16+uint32(s[1])<<8+
					uint32(s[2]) < 1e6
			}
			return ok
		},
		Decode: func(s *BitStream, _ int) (string, bool) {
			v, ok := s.Read(8)
			if !ok {
				return "", false
			}
			b := []byte{byte(v)}
			n := 0
			switch {
			case v&0x80 == 0:
			case v&0xc0 == 0x80:
				n = 1
			case v&0xe0 == 0xc0:
				n = 2
			default:
				return "", false
			}
			for ; n > 0; n-- {
				if v, ok = s.Read(8); !ok {
					return "", false
				}
				b = append(b, byte(v))
			}
			return string(b), true
		},
	},
	StructAppend: {
		Name:      "structured-append",
		Indicator: 3,
		Accepts:   nothing,
		Valid: func(s string) bool {
			return len(s) == 2 && s[0]>>4 <= s[0]&0x0f
		},
		Decode: func(s *BitStream, _ int) (string, bool) {
			v, ok := s.Read(16)
			return string([]byte{byte(v >> 8), byte(v)}), ok
		},
	},
	FNC1First: {
		Name:      "fnc1-in-1st-position",
		Indicator: 5,
		Accepts:   nothing,
		Valid:     func(s string) bool { return s == "" },
		Decode:    func(*BitStream, int) (string, bool) { return "", true },
	},
	FNC1Second: {
		Name:      "fnc1-in-2nd-position",
		Indicator: 9,
		Accepts:   nothing,
		Valid:     func(s string) bool { return len(s) == 1 },
		Decode: func(s *BitStream, _ int) (string, bool) {
			v, ok := s.Read(8)
			return string([]byte{byte(v)}), ok
		},
	},
}

func getMode(mode Mode) *ModeEncoder {
	if mode >= 0 && int(mode) < len(modes) {
		return &modes[mode]
	}
	return nil
}

func (mode Mode) String() string {
	if m := getMode(mode); m != nil {
		return m.Name
	}
	return strconv.Itoa(int(mode))
}

// indicatorMode returns the decoding mode for the mode indicator ind.
func indicatorMode(ind uint32) (Mode, *ModeEncoder) {
	for i := range modes {
		if m := &modes[i]; m.Decode != nil && uint32(m.Indicator) == ind {
			return Mode(i), m
		}
	}
	return -1, nil
}

// length returns the length in bits of a valid string of the given
// length in bytes and runes encoded in mode at the given QR version
// size class, including the header.
func (m *ModeEncoder) length(bytes, runes, class int) int {
	n := 4 + int(m.CountLength[class])
	if f := m.EncodedLength; f != nil {
		n += f(bytes, runes)
	} else {
		n += bytes * 8
	}
	return n
}

// Length returns the length in bits of a valid string of the given
// length in bytes and runes encoded in mode at the given QR version
// size class, including the header.  Length returns 0 if and only if
// mode is invalid.
func (mode Mode) Length(bytes, runes int, class int) int {
	n := 0
	if m := getMode(mode); m != nil {
		n = m.length(bytes, runes, class)
	}
	return n
}

// Is reports whether r is encodable in mode.
func Is(r rune, mode Mode) bool {
	m := getMode(mode)
	return m != nil && (m.Accepts == nil || m.Accepts(r))
}

// A Segment describes a QR code segment.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// SegmentError represents an invalid Segment.
type SegmentError Segment

func (e SegmentError) Error() string {
	if m := getMode(e.Mode); m != nil {
		return fmt.Sprintf("qr: non-%s string %#q", m.Name, e.Text)
	}
	return fmt.Sprintf("qr: invalid mode %d", e.Mode)
}

// ModeError represents an invalid Mode number.
type ModeError Mode

func (e ModeError) Error() string {
	return fmt.Sprintf("qr: invalid mode %s", Mode(e))
}

// isValid reports whether seg is encodable.
func (m *ModeEncoder) isValid(seg Segment) bool {
	if f := m.Valid; f != nil {
		return f(seg.Text)
	} else if is := m.Accepts; is != nil {
		if seg.Mode < Byte {
			for i := 0; i < len(seg.Text); i++ {
				if !is(rune(seg.Text[i])) {
					return false
				}
			}
		} else if cut := m.CutRune; cut != nil {
			for s := seg.Text; s != ""; {
				r, sz := cut(s)
				s = s[sz:]
				if !is(r) {
					return false
				}
			}
		} else {
			for _, r := range seg.Text {
				if !is(r) {
					return false
				}
			}
		}
	}
	return true
}

// IsValid reports whether seg is encodable.
func (seg Segment) IsValid() bool {
	if m := getMode(seg.Mode); m != nil {
		return m.isValid(seg)
	}
	return false
}

// EncodedLength returns the encoded length in bits of seg in the
// given QR version size class.  EncodedLength returns 0 if and only
// if mode is invalid.  The segment is not validated.
func (seg Segment) EncodedLength(class int) int {
	var rlen int
	m := getMode(seg.Mode)
	if m == nil {
		return 0
	} else if el := m.EncodedLength; el == nil || el(0, 0x100) == 0 {
	} else if cut := m.CutRune; cut != nil {
		for s := seg.Text; s != ""; rlen++ {
			_, sz := cut(s)
			s = s[sz:]
		}
	} else {
		rlen = utf8.RuneCountInString(seg.Text)
	}
	return m.length(len(seg.Text), rlen, class)
}

// transform transforms seg for encoding.  The transformed segment is
// not validated.  The encoder calls transform prior to encoding.
func (seg Segment) transform() (Segment, *ModeEncoder, error) {
	if m := getMode(seg.Mode); m == nil {
		return Segment{}, nil, ModeError(seg.Mode)
	} else if m.Transform == nil {
		return seg, m, nil
	} else if !m.isValid(seg) {
		return Segment{}, nil, SegmentError(seg)
	} else if ts, ok := m.Transform(seg.Text); !ok {
		return Segment{}, nil, SegmentError(seg)
	} else if m = getMode(ts.Mode); m == nil || m.Transform != nil {
		return Segment{}, nil, ModeError(seg.Mode)
	} else {
		return ts, m, nil
	}
}

// Transform transforms seg for encoding.  The transformed segment is
// not validated.
func (seg Segment) Transform() (Segment, error) {
	seg, _, err := seg.transform()
	return seg, err
}

// Encode writes seg encoded for the given QR version size class to b.
func (seg Segment) Encode(b *Bits, class int) error {
	// transform the string
	ts, m, err := seg.transform()
	if err != nil {
		return err
	} else if !m.isValid(ts) {
		return SegmentError(seg)
	}
	// write header
	s := ts.Text
	w := len(s)
	if m.Count != nil {
		w = m.Count(s)
	}
	cl := int(m.CountLength[class])
	if cl != 0 && w >= 1<<cl {
		return fmt.Errorf("%w: %d characters in %s segment",
			ErrCapacity, w, m.Name)
	}
	b.Write(uint32(m.Indicator), 4)
	b.Write(uint32(w), cl)
	// encode the string
	enc3, enc2, enc1 := m.Encode3, m.Encode2, m.Encode1
	if enc3 != nil || enc2 != nil || enc1 != nil {
		if enc3 != nil {
			for len(s) >= 3 {
				b.Write(enc3([3]byte{s[0], s[1], s[2]}))
				s = s[3:]
			}
		}
		if enc2 != nil {
			for len(s) >= 2 {
				b.Write(enc2([2]byte{s[0], s[1]}))
				s = s[2:]
			}
		}
		if enc1 != nil {
			for len(s) >= 1 {
				b.Write(enc1(s[0]))
				s = s[1:]
			}
		} else if s != "" {
			panic("qr: " + m.Name + " mode internal error")
		}
	} else if b.nbit&7 != 0 {
		for ; len(s) >= 4; s = s[4:] {
			v := uint32(s[0])<<24 | uint32(s[1])<<16 |
				uint32(s[2])<<8 | uint32(s[3])
			b.Write(v, 32)
		}
		if s != "" {
			var v uint32
			for i := 0; i < len(s); i++ {
				v = v<<8 | uint32(s[i])
			}
			b.Write(v, 8*len(s))
		}
	} else {
		b.b = append(b.b, s...)
		b.nbit += len(s) * 8
	}
	return nil
}

// NewECI returns an ECI segment designating the assignment number n.
func NewECI(n int) (Segment, error) {
	var b []byte
	switch {
	case n < 0 || n >= 1e6:
		return Segment{}, fmt.Errorf("qr: invalid ECI %d", n)
	case n < 0x80:
		b = []byte{byte(n)}
	case n < 0x4000:
		b = []byte{byte(n>>8) | 0x80, byte(n)}
	default:
		b = []byte{byte(n>>16) | 0xc0, byte(n >> 8), byte(n)}
	}
	return Segment{string(b), ECI}, nil
}

// ECIValue returns the assignment number of a valid ECI segment text.
func ECIValue(s string) int {
	if s == "" {
		return -1
	}
	v := int(s[0] & (0xff >> len(s)))
	for i := 1; i < len(s); i++ {
		v = v<<8 | int(s[i])
	}
	return v
}
