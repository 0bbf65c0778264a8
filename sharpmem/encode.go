// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import "math/bits"

// Commands. The command byte is sent MSB first as is; the line address and
// pixel data are sent LSB first and are bit reversed before transmission.
const (
	cmdNop       byte = 0x00
	cmdClear     byte = 0x20
	cmdVCOM      byte = 0x40
	cmdWriteLine byte = 0x80
)

// filler is the dummy byte trailing every line and every short command.
const filler byte = 0x00

// frameTrailer terminates a write-line transaction.
var frameTrailer = []byte{filler, filler}

// reverse returns b with its bit order reversed: bit 0 becomes bit 7.
func reverse(b byte) byte {
	return bits.Reverse8(b)
}

// appendLine appends the wire frame of line y: the 1-based line address, the
// pixel bytes and one filler byte. Every byte except the filler is bit
// reversed.
func appendLine(dst []byte, y int, row []byte) []byte {
	dst = append(dst, reverse(byte(y+1)))
	for _, b := range row {
		dst = append(dst, reverse(b))
	}
	return append(dst, filler)
}

// vcom is the alternating reference bit. The zero value is the Hi state, so
// the first transaction carries Lo.
type vcom struct {
	lo bool
}

// next toggles the reference bit and returns cmd combined with the new
// state.
func (v *vcom) next(cmd byte) byte {
	v.lo = !v.lo
	return v.apply(cmd)
}

func (v *vcom) apply(cmd byte) byte {
	if v.lo {
		return cmd
	}
	return cmd | cmdVCOM
}

func (v *vcom) String() string {
	if v.lo {
		return "lo"
	}
	return "hi"
}
