// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"errors"
	"image/png"
	"io"
)

var (
	ErrArgs       = errors.New("qr: invalid arguments")
	ErrLargeImage = errors.New("qr: image too large")
)

// maxPixels limits the side of rendered images.
const maxPixels = 32767 * 8

var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

// PNG returns a PNG image displaying the code, or nil if the code is
// invalid or the image too large.
func (c *Code) PNG() []byte {
	var b bytes.Buffer
	if err := c.EncodePNG(&b); err != nil {
		return nil
	}
	return b.Bytes()
}

// EncodePNG writes a PNG image displaying the code to w.  The image
// has a two colour palette and is written with one bit per pixel.
func (c *Code) EncodePNG(w io.Writer) error {
	if w == nil || !c.isValid() {
		return ErrArgs
	}
	if (c.Size+2*c.Border)*c.Scale > maxPixels {
		return ErrLargeImage
	}
	return pngEncoder.Encode(w, c.Image())
}
