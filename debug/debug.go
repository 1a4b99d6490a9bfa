// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package debug provides a package-wide switch for verbose protocol
// tracing. It deliberately has no dependency on the rest of the module so
// that any package can log through it without creating an import cycle.
package debug

import (
	"fmt"
	"log"
)

// Enable turns on debug logging for the whole module. It is typically
// wired to a CLI flag, e.g. flag.BoolVar(&debug.Enable, "debug", false, "").
var Enable bool

// Printf writes a debug message if Enable is true.
func Printf(format string, args ...interface{}) {
	if !Enable {
		return
	}
	log.Output(2, fmt.Sprintf(format, args...))
}
