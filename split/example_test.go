// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package split_test

import (
	"fmt"
	"log"

	"github.com/unixdj/qrscan/coding"
	"github.com/unixdj/qrscan/split"
)

func ExampleSplit() {
	segs, v, err := split.Split("ISBN 978-0-306-40615-7 日本語の本", coding.M)
	if err != nil {
		log.Fatalln(err)
	}
	for _, seg := range segs {
		fmt.Printf("%s %q\n", seg.Mode, seg.Text)
	}
	fmt.Println("version", v)
	// Output:
	// alphanumeric "ISBN 978-0-306-40615-7 "
	// kanji "日本語の本"
	// version 2
}
