// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/unixdj/qrscan/binarize"
	"github.com/unixdj/qrscan/coding"
	"github.com/unixdj/qrscan/detect"
)

// A Result is a decoded QR code.
type Result struct {
	Text      string // payload as UTF-8, if IsText
	Raw       []byte // payload bytes, or all data bytes if malformed
	IsText    bool   // payload is valid text
	Version   coding.Version
	Level     Level
	Mask      int
	Position  image.Point // centre of the top left finder pattern
	Corrected int         // number of corrected codewords
}

// String returns the text of r, or the payload in hex if it is not
// text.
func (r *Result) String() string {
	if r.IsText {
		return r.Text
	}
	return hex.EncodeToString(r.Raw)
}

// A CandidateError records the failure to decode a candidate code.
type CandidateError struct {
	Index int // candidate index, best first
	Err   error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("qr: candidate %d: %v", e.Index, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }

// A Scanner finds and decodes QR codes in images.  The zero value is
// ready to use.
type Scanner struct {
	// Workers is the number of candidates decoded concurrently.
	// If zero, runtime.NumCPU() is used.
	Workers int

	// Logger receives debug messages.  If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnError, if not nil, is called with each candidate that failed
	// to decode, in candidate order.
	OnError func(index int, err error)
}

// Scan decodes the QR codes in img with a zero Scanner.
func Scan(img image.Image) ([]Result, error) {
	var s Scanner
	return s.Scan(context.Background(), img)
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

type decoded struct {
	res *Result
	err error
}

type job struct {
	index int
	cand  *detect.Candidate
}

/*
Scan returns the QR codes found in img in reading order: rows top to
bottom, each row left to right, by the position of the top left finder
pattern.  Codes whose top left finder patterns are less than a finder
pattern's height apart vertically are in the same row.  The bounds of img are the region scanned.  An image without QR codes
yields no results and no error.

Candidates are decoded concurrently.  Scan checks ctx between
candidates and returns ctx.Err() if it is cancelled.  Candidates that
fail to decode are reported to s.OnError and do not affect the
others.
*/
func (s *Scanner) Scan(ctx context.Context, img image.Image) ([]Result, error) {
	log := s.logger()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	origin := img.Bounds().Min
	m, err := binarize.Hybrid(binarize.Luminance(img))
	if errors.Is(err, binarize.ErrNotFound) {
		log.Debug("qr: blank image", "bounds", img.Bounds())
		return []Result{}, nil
	} else if err != nil {
		return nil, err
	}
	cands, err := detect.Detect(m)
	if errors.Is(err, detect.ErrNotFound) {
		log.Debug("qr: no finder patterns")
		return []Result{}, nil
	} else if err != nil {
		return nil, err
	}
	log.Debug("qr: candidates", "count", len(cands))

	out, err := s.decodeAll(ctx, cands)
	if err != nil {
		return nil, err
	}

	// Accept the best candidates first.  Another candidate sharing
	// a finder pattern with an accepted one is a misreading.
	used := make(map[int]bool)
	var found []placed
	for i, d := range out {
		c := &cands[i]
		if d.err != nil {
			err := &CandidateError{Index: i, Err: d.err}
			log.Debug("qr: candidate failed", "index", i,
				"x", c.TopLeft.X, "y", c.TopLeft.Y, "err", d.err)
			if s.OnError != nil {
				s.OnError(i, err)
			}
			continue
		}
		if used[c.Finders[0]] || used[c.Finders[1]] || used[c.Finders[2]] {
			log.Debug("qr: candidate overlaps", "index", i)
			continue
		}
		for _, f := range c.Finders {
			used[f] = true
		}
		r := d.res
		r.Position = r.Position.Add(origin)
		log.Debug("qr: decoded", "index", i, "version", r.Version,
			"level", r.Level, "mask", r.Mask, "corrected", r.Corrected)
		found = append(found, placed{Result: *r, height: 7 * c.ModuleSize})
	}
	return readingOrder(found), nil
}

type placed struct {
	Result
	height float64 // finder pattern height in pixels
	row    int
}

// readingOrder sorts ps into rows and returns the results.  A row
// starts at its topmost code and takes in the codes less than that
// code's finder pattern height below it.
func readingOrder(ps []placed) []Result {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].Position.Y < ps[j].Position.Y
	})
	for i, top := 0, 0; i < len(ps); i++ {
		if float64(ps[i].Position.Y-ps[top].Position.Y) >= ps[top].height {
			top = i
		}
		ps[i].row = top
	}
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := &ps[i], &ps[j]
		return a.row < b.row || a.row == b.row && a.Position.X < b.Position.X
	})
	results := make([]Result, len(ps))
	for i := range ps {
		results[i] = ps[i].Result
	}
	return results
}

// decodeAll decodes cands in a worker pool.  Results are indexed by
// candidate.
func (s *Scanner) decodeAll(ctx context.Context, cands []detect.Candidate) ([]decoded, error) {
	out := make([]decoded, len(cands))
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(cands))

	jobs := make(chan job)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := decodeCandidate(j.cand)
				out[j.index] = decoded{res, err}
			}
		}()
	}
feed:
	for i := range cands {
		select {
		case jobs <- job{i, &cands[i]}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// dimensions returns the sizes to try for c: the estimate, then its
// neighbours.
func dimensions(c *detect.Candidate) []int {
	dims := []int{c.Dimension}
	for _, d := range [...]int{c.Dimension - 4, c.Dimension + 4} {
		if _, err := coding.SizeVersion(d); err == nil {
			dims = append(dims, d)
		}
	}
	return dims
}

// decodeCandidate samples and decodes c.  Codes of version 7 and up
// are resampled at the size their version information gives.  The raw
// payload of a code with malformed data is all of its data bytes.
func decodeCandidate(c *detect.Candidate) (*Result, error) {
	var first error
	for _, dim := range dimensions(c) {
		sym, err := decodeAt(c, dim)
		if err == nil {
			text, ok := sym.Text()
			raw := sym.Bytes()
			if sym.Err != nil {
				raw = sym.Data
			}
			return &Result{
				Text:      text,
				Raw:       raw,
				IsText:    ok,
				Version:   sym.Version,
				Level:     Level(sym.Level),
				Mask:      sym.Mask,
				Position:  image.Pt(round(c.TopLeft.X), round(c.TopLeft.Y)),
				Corrected: sym.Corrected,
			}, nil
		}
		if first == nil {
			first = err
		}
	}
	return nil, first
}

func decodeAt(c *detect.Candidate, dim int) (*coding.Symbol, error) {
	code, err := c.Sample(dim)
	if err != nil {
		return nil, err
	}
	if v, err := coding.ReadVersion(code); err == nil && v.Size() != dim {
		if code, err = c.Sample(v.Size()); err != nil {
			return nil, err
		}
	}
	return coding.Decode(code)
}

func round(f float64) int { return int(math.Round(f)) }
