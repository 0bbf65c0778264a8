// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mipsim emulates a Sharp memory-in-pixel LCD on the host.
//
// Panel is an spi.Port and an spi.Conn; CS and DISP return the chip-select
// and display-enable lines. The bytes written while chip-select is high are
// decoded as one transaction when it falls, as the real controller does. The
// panel checks the protocol and records the first violation, available
// through Err.
//
// Terminal draws the glass with ANSI colors and Stream serves it over HTTP as
// a live image. Both are useful to develop drawing code without the hardware;
// Err is useful to check the wire output of a driver.
package mipsim

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/bits"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	cmdNop       = 0x00
	cmdClear     = 0x20
	cmdVCOM      = 0x40
	cmdWriteLine = 0x80
)

// Panel is an emulated memory LCD.
type Panel struct {
	mu sync.Mutex

	w, h   int
	stride int
	// mem holds the glass memory, pixel x of a line at bit x%8 of byte x/8. A
	// set bit is white.
	mem []byte

	freq physic.Frequency
	mode spi.Mode

	cs       *Line
	disp     *Line
	selected bool
	enabled  bool
	pending  []byte

	txns  int
	lines int
	vcom  bool
	err   error

	watchers map[chan struct{}]struct{}
}

// New returns an emulated panel of w by h pixels. The glass memory starts
// black.
func New(w, h int) *Panel {
	stride := (w + 7) / 8
	p := &Panel{
		w:        w,
		h:        h,
		stride:   stride,
		mem:      make([]byte, stride*h),
		watchers: map[chan struct{}]struct{}{},
	}
	p.cs = &Line{Pin: gpiotest.Pin{N: "SCS"}, set: p.setSelected}
	p.disp = &Line{Pin: gpiotest.Pin{N: "DISP"}, set: p.setEnabled}
	return p
}

func (p *Panel) String() string {
	return fmt.Sprintf("mipsim.Panel{%dx%d}", p.w, p.h)
}

// Connect implements spi.Port.
func (p *Panel) Connect(f physic.Frequency, mode spi.Mode, bitsPerWord int) (spi.Conn, error) {
	if bitsPerWord != 8 {
		return nil, fmt.Errorf("mipsim: invalid bits per word %d", bitsPerWord)
	}
	if mode&spi.HalfDuplex != 0 {
		return nil, errors.New("mipsim: half duplex not supported")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freq = f
	p.mode = mode
	return p, nil
}

// LimitSpeed implements spi.Port.
func (p *Panel) LimitSpeed(f physic.Frequency) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freq = f
	return nil
}

// Halt implements conn.Resource.
func (p *Panel) Halt() error {
	return nil
}

// Tx implements conn.Conn.
//
// The panel has no output; r must be empty.
func (p *Panel) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("mipsim: read unsupported")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.selected {
		p.failLocked("write of %d bytes with chip-select low", len(w))
		return nil
	}
	p.pending = append(p.pending, w...)
	return nil
}

// TxPackets implements spi.Conn.
func (p *Panel) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := p.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// CS returns the chip-select line. It is active high.
func (p *Panel) CS() gpio.PinOut {
	return p.cs
}

// DISP returns the display-enable line.
func (p *Panel) DISP() gpio.PinOut {
	return p.disp
}

// Bounds returns the panel size.
func (p *Panel) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.w, p.h)
}

// Pixel returns the glass memory content at (x, y). On is white.
func (p *Panel) Pixel(x, y int) image1bit.Bit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return image1bit.Bit(p.pixelLocked(x, y))
}

// Image returns a snapshot of the glass memory.
//
// A disabled panel shows white.
func (p *Panel) Image() *image.Gray {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image.NewGray(p.Bounds())
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			if !p.enabled || p.pixelLocked(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	return img
}

// Transactions returns the number of transactions decoded.
func (p *Panel) Transactions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txns
}

// LinesWritten returns the number of line frames decoded.
func (p *Panel) LinesWritten() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines
}

// VCOM returns the reference bit of the last transaction.
func (p *Panel) VCOM() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vcom
}

// Enabled reports whether the display-enable line is high.
func (p *Panel) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Mode returns the SPI mode requested on Connect.
func (p *Panel) Mode() spi.Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Freq returns the clock requested on Connect or LimitSpeed.
func (p *Panel) Freq() physic.Frequency {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq
}

// Err returns the first protocol violation, if any.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Panel) pixelLocked(x, y int) bool {
	if x < 0 || x >= p.w || y < 0 || y >= p.h {
		return false
	}
	return p.mem[y*p.stride+x/8]&(1<<uint(x%8)) != 0
}

func (p *Panel) setSelected(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.selected
	p.selected = bool(l)
	switch {
	case !was && p.selected:
		p.pending = p.pending[:0]
	case was && !p.selected:
		p.decodeLocked(p.pending)
		p.pending = p.pending[:0]
	}
}

func (p *Panel) setEnabled(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = bool(l)
	p.changedLocked()
}

// watch returns a channel receiving a value after every change of the
// visible image. Call the returned function to stop watching.
func (p *Panel) watch() (<-chan struct{}, func()) {
	c := make(chan struct{}, 1)
	p.mu.Lock()
	p.watchers[c] = struct{}{}
	p.mu.Unlock()
	return c, func() {
		p.mu.Lock()
		delete(p.watchers, c)
		p.mu.Unlock()
	}
}

func (p *Panel) changedLocked() {
	for c := range p.watchers {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

// decodeLocked applies one transaction to the glass memory.
func (p *Panel) decodeLocked(b []byte) {
	if len(b) == 0 {
		return
	}
	p.txns++
	cmd := b[0]
	v := cmd&cmdVCOM != 0
	if p.txns > 1 && v == p.vcom {
		p.failLocked("transaction %d: vcom not toggled", p.txns)
	}
	p.vcom = v
	defer p.changedLocked()

	switch cmd &^ cmdVCOM {
	case cmdWriteLine:
		p.writeLinesLocked(b[1:])
	case cmdClear:
		if len(b) != 2 {
			p.failLocked("transaction %d: clear is %d bytes, expected 2", p.txns, len(b))
			return
		}
		for i := range p.mem {
			p.mem[i] = 0xff
		}
	case cmdNop:
		if len(b) != 2 {
			p.failLocked("transaction %d: no-op is %d bytes, expected 2", p.txns, len(b))
		}
	default:
		p.failLocked("transaction %d: unknown command %#02x", p.txns, cmd)
	}
}

// writeLinesLocked decodes n line frames followed by the 16 bit trailer.
func (p *Panel) writeLinesLocked(b []byte) {
	frame := p.stride + 2
	if len(b) < 2 || (len(b)-2)%frame != 0 {
		p.failLocked("transaction %d: write of %d bytes is not a whole number of %d byte lines plus trailer", p.txns, len(b), frame)
		return
	}
	for off := 0; off < len(b)-2; off += frame {
		addr := int(bits.Reverse8(b[off]))
		if addr < 1 || addr > p.h {
			p.failLocked("transaction %d: line address %d out of range", p.txns, addr)
			continue
		}
		row := p.mem[(addr-1)*p.stride : addr*p.stride]
		for i := range row {
			row[i] = bits.Reverse8(b[off+1+i])
		}
		p.lines++
	}
}

func (p *Panel) failLocked(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("mipsim: "+format, args...)
	}
}

// Line is an emulated control line.
type Line struct {
	gpiotest.Pin
	set func(gpio.Level)
}

// Out implements gpio.PinOut.
func (l *Line) Out(level gpio.Level) error {
	if err := l.Pin.Out(level); err != nil {
		return err
	}
	l.set(level)
	return nil
}

var _ spi.Port = &Panel{}
var _ spi.Conn = &Panel{}
var _ gpio.PinOut = &Line{}
