// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// TransportError is returned when a bus write fails.
type TransportError struct {
	// Op is the transaction that was in progress: "flush", "clear" or
	// "display mode".
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sharpmem: %s: bus write failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ControlLineError is returned when the chip-select or display-enable line
// cannot be driven.
type ControlLineError struct {
	Line  string
	Level gpio.Level
	Err   error
}

func (e *ControlLineError) Error() string {
	return fmt.Sprintf("sharpmem: failed to drive %s %s: %v", e.Line, e.Level, e.Err)
}

func (e *ControlLineError) Unwrap() error {
	return e.Err
}
