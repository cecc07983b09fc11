// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qr decodes QR codes in images and encodes text as QR codes.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	qr "github.com/unixdj/qrscan"
)

var g = struct {
	encode  bool          // encode mode
	debug   bool          // debug logging
	scale   int           // pixels per module
	border  int           // quiet zone
	workers int           // decoding workers
	timeout time.Duration // scan timeout
	lev     qr.Level      // QR correction level
	format  int           // output file format
	fn      string        // output file name
	args    []string      // operands
}{}

func printUsage(w io.Writer) {
	prog := getopt.CommandLine.Program()
	fmt.Fprint(w, "QR code scanner and generator\nUsage: ", prog,
		` [-hVd] [-l level] [-s scale] [-m margin] [-w workers]
          [-t timeout] [-f format] image [-o file]
       `, prog, ` -e [-l level] [-s scale] [-m margin] [-f format]
          [-o file] [string ...]
Without -e, decodes the QR codes in image and prints their contents,
one per line, in reading order; payloads that are not text are printed
in hex.  Options may follow image.  With -o, each decoded text is
written to file as a new QR code, numbered "-1", "-2" etc. if more than
one code was found.
With -e, encodes the strings, or standard input with the final newline
stripped, and writes the code to file or standard output.

`)
	getopt.CommandLine.PrintOptions(w)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 0.9.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

var formats = []string{"png", "pbm", "text"}

var exts = [...]string{".png", ".pbm", ".txt"}

var encoders = [...]func(*qr.Code, io.Writer) error{
	(*qr.Code).EncodePNG,
	(*qr.Code).EncodePBM,
	func(c *qr.Code, w io.Writer) error {
		_, err := io.WriteString(w, c.String())
		return err
	},
}

const formatText = 2

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.SetParameters("image | [string ...]")
	getopt.FlagLong(opt(help), "help", 'h', "show this help").SetFlag()
	getopt.FlagLong(opt(version), "version", 'V',
		"print version and copyright").SetFlag()
	getopt.FlagLong(&g.encode, "encode", 'e',
		"encode strings instead of scanning an image")
	getopt.FlagLong(&g.debug, "debug", 'd',
		"log candidate codes and decoding errors")
	fno := getopt.FlagLong(&g.fn, "out", 'o', `output file; when `+
		`scanning, "-1", "-2" etc. is appended before the suffix if `+
		`more than one code is found; "-" for standard output with -e`,
		"file")
	lev := getopt.EnumLong("level", 'l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "m",
		"error correction level, lowest to highest", "l|m|q|h")
	scale := getopt.UnsignedLong("scale", 's', qr.DefaultScale,
		&getopt.UnsignedLimit{0, 28, 1, 1 << 12},
		"image pixels per QR module", "scale")
	border := getopt.UnsignedLong("margin", 'm', qr.DefaultBorder,
		&getopt.UnsignedLimit{0, 16, 0, 1 << 12},
		"quiet zone width in modules", "margin")
	workers := getopt.UnsignedLong("workers", 'w', 0,
		&getopt.UnsignedLimit{0, 16, 0, 1 << 10},
		"candidates decoded in parallel, 0 for one per CPU", "workers")
	getopt.FlagLong(&g.timeout, "timeout", 't', "give up scanning after "+
		`timeout, e.g. "2s"; 0 for no limit`, "timeout")
	ff := getopt.EnumLong("format", 'f', formats, "", "output format, "+
		"one of: "+strings.Join(formats, ", ")+"; if writing to a "+
		"terminal, default is text, otherwise png", "format")

	getopt.Parse()
	g.args = operands()
	if !g.encode && len(g.args) != 1 {
		usage()
	}
	g.scale = int(*scale)
	g.border = int(*border)
	g.workers = int(*workers)
	g.lev = qr.Level(strings.Index("lmqhLMQH", *lev) & 3)
	if g.fn == "-" {
		g.fn = ""
	}
	tty := g.fn == "" && isatty.IsTerminal(uintptr(syscall.Stdout))
	if *ff == "" {
		if g.encode && !fno.Seen() && tty {
			*ff = "text"
		} else {
			*ff = "png"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i
		}
	}
	if g.encode && tty && g.format != formatText {
		log.Fatalln("qr: refusing to write binary data to a terminal")
	}
}

// operands returns the arguments left after parsing.  When scanning,
// options may follow the image name, so each operand is followed by
// another round of parsing.
func operands() []string {
	args := getopt.Args()
	if g.encode || getopt.CommandLine.State() == getopt.DashDash {
		return args
	}
	var ops []string
	for len(args) > 0 {
		ops = append(ops, args[0])
		// Parse skips args[0] as the program name.
		getopt.CommandLine.Parse(args)
		args = getopt.Args()
		if getopt.CommandLine.State() == getopt.DashDash {
			return append(ops, args...)
		}
	}
	return ops
}

func main() {
	log.SetFlags(0)
	parseFlags()
	if g.encode {
		encode()
		return
	}

	level := slog.LevelWarn
	if g.debug {
		level = slog.LevelDebug
	}
	s := &qr.Scanner{
		Workers: g.workers,
		Logger: slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: level})),
	}
	ctx := context.Background()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	results, err := scan(ctx, s, g.args[0])
	if err != nil {
		log.Fatalln(err)
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No QR codes detected")
		return
	}
	if err := printResults(os.Stdout, results); err != nil {
		log.Fatalln(err)
	}
	if g.fn != "" {
		if err := writeResults(g.fn, results); err != nil {
			log.Fatalln(err)
		}
	}
}

func encode() {
	var s string
	if len(g.args) != 0 {
		s = strings.Join(g.args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	c, err := qr.Encode(s, g.lev)
	if err != nil {
		log.Fatalln(err)
	}
	if err := write(g.fn, c); err != nil {
		log.Fatalln(err)
	}
}

// scan decodes the QR codes in the image file fn.
func scan(ctx context.Context, s *qr.Scanner, fn string) ([]qr.Result, error) {
	img, err := imaging.Open(fn, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, img)
}

// printResults prints results to w, one per line.  Payloads that are
// not text are printed in hex.
func printResults(w io.Writer, results []qr.Result) error {
	var out bytes.Buffer
	for i := range results {
		fmt.Fprintln(&out, results[i].String())
	}
	_, err := out.WriteTo(w)
	return err
}

// outName returns the name of the file for the i'th of n results.
// The format suffix of fn is stripped before numbering.
func outName(fn string, i, n int) string {
	ext := exts[g.format]
	if filepath.Ext(fn) == ext {
		fn = fn[:len(fn)-len(ext)]
	}
	if n > 1 {
		fn = fmt.Sprintf("%s-%d", fn, i+1)
	}
	return fn + ext
}

// writeResults re-encodes the text results as QR codes in files named
// after fn.
func writeResults(fn string, results []qr.Result) error {
	for i, r := range results {
		if !r.IsText {
			continue
		}
		c, err := qr.Encode(r.Text, g.lev)
		if err != nil {
			return err
		}
		if err := write(outName(fn, i, len(results)), c); err != nil {
			return err
		}
	}
	return nil
}

// write encodes c to the file fn, or standard output if fn is empty.
func write(fn string, c *qr.Code) error {
	c.Scale = g.scale
	c.Border = g.border
	if fn == "" {
		return encoders[g.format](c, os.Stdout)
	}
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	if err := encoders[g.format](c, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
