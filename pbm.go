// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"fmt"
	"io"
)

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.  EncodePBM disregards c.Palette, as other PNM
// formats are not supported.
func (c *Code) EncodePBM(w io.Writer) error {
	if w == nil || !c.isValid() {
		return ErrArgs
	}
	pix := (c.Size + 2*c.Border) * c.Scale
	if pix > maxPixels {
		return ErrLargeImage
	}
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "P4\n%d %d\n", pix, pix)
	row := make([]byte, (pix+7)>>3)
	for y := -c.Border; y < c.Size+c.Border; y++ {
		clear(row)
		for x := 0; x < pix; x++ {
			// In PBM 1 is black.
			if c.Black(x/c.Scale-c.Border, y) != c.Reverse {
				row[x>>3] |= 0x80 >> (x & 7)
			}
		}
		for i := 0; i < c.Scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}
