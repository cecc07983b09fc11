// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/unixdj/qrscan/gf256"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// ErrBitStream is returned for malformed segment data.
var ErrBitStream = errors.New("qr: malformed bit stream")

// BlockError reports an uncorrectable Reed-Solomon block.
type BlockError struct {
	Block int   // block number
	Err   error // error from the Reed-Solomon decoder
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("qr: block %d: %v", e.Block, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// A Symbol is a decoded QR code.
type Symbol struct {
	Version   Version
	Level     Level
	Mask      int
	Data      []byte    // corrected data bytes, including padding
	Segments  []Segment // decoded segments
	Corrected int       // number of corrected bytes

	// Err is the error that stopped parsing Data, if any.  Segments
	// then holds the segments before the malformed one.
	Err error
}

// Deserialise returns the data and check bytes of c in zigzag scan
// order, with mask removed.  c must have the size of p.
func (p *Plan) Deserialise(c *Code, mask int) []byte {
	n := vtab[p.Version].bytes * 8
	b := &Bits{b: make([]byte, 0, n/8)}
	pat := p.Pattern[mask]
	p.walk(func(off int, bit byte) {
		if b.nbit < n {
			var v uint32
			if (c.Bitmap[off]^pat[off])&bit != 0 {
				v = 1
			}
			b.Write(v, 1)
		}
	})
	return b.b
}

// correct deinterleaves raw bytes into blocks, corrects each of them
// and returns the data bytes and the number of corrected bytes.
func (p *Plan) correct(raw []byte) ([]byte, int, error) {
	vt := &vtab[p.Version]
	lev := vt.level[p.Level]
	nd := p.Version.DataBytes(p.Level)
	blocks := make([]byte, len(raw))
	deinterleave(blocks[:nd], raw[:nd], lev.nblock)
	deinterleave(blocks[nd:], raw[nd:], lev.nblock)
	dat, check := blocks[:nd], blocks[nd:]

	db := nd / lev.nblock
	normal := (db+1)*lev.nblock - nd
	rs := gf256.NewRSDecoder(Field, lev.check)
	data := make([]byte, 0, nd)
	blk := make([]byte, 0, db+1+lev.check)
	total := 0
	for i := 0; i < lev.nblock; i++ {
		if i == normal {
			db++
		}
		blk = append(append(blk[:0], dat[:db]...), check[:lev.check]...)
		n, err := rs.Correct(blk)
		if err != nil {
			return nil, total, &BlockError{i, err}
		}
		total += n
		data = append(data, blk[:db]...)
		dat, check = dat[db:], check[lev.check:]
	}
	return data, total, nil
}

// Decode decodes the QR code c.  The version is derived from the size
// of c, and checked against the version information for versions 7 and
// up.  Once the data is corrected, Decode returns a Symbol even if the
// data is malformed; its Err field is then set.
func Decode(c *Code) (*Symbol, error) {
	v, err := c.Version()
	if err != nil {
		return nil, err
	}
	if v >= 7 {
		rv, err := ReadVersion(c)
		if err != nil {
			return nil, err
		}
		if rv != v {
			return nil, fmt.Errorf("%w: version %v in a version %v code",
				ErrVersionInfo, rv, v)
		}
	}
	l, mask, err := ReadFormat(c)
	if err != nil {
		return nil, err
	}
	p, err := makePlan(v, l)
	if err != nil {
		return nil, err
	}
	data, n, err := p.correct(p.Deserialise(c, mask))
	if err != nil {
		return nil, err
	}
	segs, err := DecodeSegments(data, v)
	return &Symbol{
		Version:   v,
		Level:     l,
		Mask:      mask,
		Data:      data,
		Segments:  segs,
		Corrected: n,
		Err:       err,
	}, nil
}

// DecodeSegments parses the data bytes of a QR code of version v into
// segments.  Decoding stops at the terminator or when fewer than 4 bits
// are left.
func DecodeSegments(data []byte, v Version) ([]Segment, error) {
	s := NewBitStream(data)
	class := v.SizeClass()
	var segs []Segment
	for s.Remaining() >= 4 {
		ind, _ := s.Read(4)
		if ind == 0 {
			break
		}
		mode, m := indicatorMode(ind)
		if m == nil {
			return segs, fmt.Errorf("%w: mode indicator %#x", ErrBitStream, ind)
		}
		n, ok := s.Read(int(m.CountLength[class]))
		if !ok {
			return segs, fmt.Errorf("%w: truncated %s segment", ErrBitStream, m.Name)
		}
		text, ok := m.Decode(&s, int(n))
		if !ok {
			return segs, fmt.Errorf("%w: bad %s segment", ErrBitStream, m.Name)
		}
		segs = append(segs, Segment{text, mode})
	}
	return segs, nil
}

// Character sets by ECI assignment number.  Byte segments under ECIs
// not listed here are taken as UTF-8.
var eciCharsets = map[int]encoding.Encoding{
	1:  charmap.ISO8859_1,
	3:  charmap.ISO8859_1,
	4:  charmap.ISO8859_2,
	5:  charmap.ISO8859_3,
	6:  charmap.ISO8859_4,
	7:  charmap.ISO8859_5,
	8:  charmap.ISO8859_6,
	9:  charmap.ISO8859_7,
	10: charmap.ISO8859_8,
	11: charmap.ISO8859_9,
	20: japanese.ShiftJIS,
	21: charmap.Windows1250,
	22: charmap.Windows1251,
	23: charmap.Windows1252,
}

// Bytes returns the concatenated payload of the text segments of sym,
// as stored in the code.
func (sym *Symbol) Bytes() []byte {
	var b []byte
	for _, seg := range sym.Segments {
		switch seg.Mode {
		case Numeric, Alphanumeric, Byte, ShiftJISKanji:
			b = append(b, seg.Text...)
		}
	}
	return b
}

// Text returns the payload of sym converted to UTF-8 and reports
// whether sym is well formed and the result is valid UTF-8.  Byte
// segments are converted according to the ECI in effect, kanji
// segments from Shift JIS.
// In codes with FNC1, "%" in alphanumeric segments becomes the group
// separator and "%%" becomes "%".
func (sym *Symbol) Text() (string, bool) {
	var (
		b    strings.Builder
		cs   encoding.Encoding
		fnc1 bool
		ok   = true
	)
	conv := func(e encoding.Encoding, s string) {
		t, err := e.NewDecoder().String(s)
		if err != nil {
			ok = false
			t = s
		}
		b.WriteString(t)
	}
	for _, seg := range sym.Segments {
		switch seg.Mode {
		case ECI:
			cs = eciCharsets[ECIValue(seg.Text)]
		case FNC1First, FNC1Second:
			fnc1 = true
		case Alphanumeric:
			if fnc1 {
				seg.Text = strings.NewReplacer("%%", "%", "%", "\x1d").
					Replace(seg.Text)
			}
			b.WriteString(seg.Text)
		case Numeric:
			b.WriteString(seg.Text)
		case Byte:
			if cs != nil {
				conv(cs, seg.Text)
			} else {
				b.WriteString(seg.Text)
			}
		case ShiftJISKanji:
			conv(japanese.ShiftJIS, seg.Text)
		}
	}
	s := b.String()
	return s, ok && sym.Err == nil && utf8.ValidString(s)
}
