// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"iter"
	"log/slog"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	opFlush       = "flush"
	opClear       = "clear"
	opDisplayMode = "display mode"
)

// Opts defines the options for the device.
type Opts struct {
	// Profile is the panel model.
	Profile Profile
	// InvertClear makes Clear paint every pixel Off (black) instead of On
	// (white).
	InvertClear bool
	// Logger receives debug traces of the bus transactions. nil disables
	// logging.
	Logger *slog.Logger
}

// Dev is an open handle to a Sharp memory LCD.
type Dev struct {
	c    spi.Conn
	cs   gpio.PinOut
	disp gpio.PinOut
	log  *slog.Logger

	profile    Profile
	rect       image.Rectangle
	clearValue bool

	fb      *framebuffer
	vcom    vcom
	enabled bool

	// line is reused for every line frame.
	line []byte
	// scratch holds the line being converted by Draw.
	scratch []byte
	cmd  [2]byte
}

// New returns a Dev that communicates over SPI with a Sharp memory LCD.
//
// The port is connected with the clock mode and frequency of the panel
// profile. cs is the active high chip-select line and disp the
// display-enable line; both are driven low.
//
// The panel memory content is undefined at power up. Call Clear before
// drawing.
func New(p spi.Port, cs, disp gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("sharpmem: opts is required")
	}
	prof := opts.Profile
	if err := prof.validate(); err != nil {
		return nil, err
	}
	if cs == nil || disp == nil {
		return nil, errors.New("sharpmem: cs and disp are required")
	}
	c, err := p.Connect(prof.MaxFreq, prof.Mode, 8)
	if err != nil {
		return nil, fmt.Errorf("sharpmem: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dev{
		c:          c,
		cs:         cs,
		disp:       disp,
		log:        logger.With("panel", prof.Name),
		profile:    prof,
		rect:       image.Rect(0, 0, prof.Width, prof.Height),
		clearValue: !opts.InvertClear,
		fb:         newFramebuffer(prof.Width, prof.Height),
		line:       make([]byte, 0, prof.bytesPerLine()+2),
		scratch:    make([]byte, 0, prof.bytesPerLine()),
	}
	if err := d.drive(d.cs, "cs", gpio.Low); err != nil {
		return nil, err
	}
	if err := d.drive(d.disp, "disp", gpio.Low); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("sharpmem.Dev{%s, %s, %s}", d.profile.Name, d.c, d.rect.Max)
}

// Profile returns the panel profile.
func (d *Dev) Profile() Profile {
	return d.profile
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit. On is a
// reflective (white) pixel.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// Pixels falling outside the panel are dropped. Only the lines whose content
// changed are marked dirty. The framebuffer is then flushed, so the panel
// shows the result once Draw returns.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	r := dst.Intersect(d.rect)
	r = r.Intersect(src.Bounds().Add(dst.Min.Sub(sp)))
	if r.Empty() {
		return nil
	}
	dx, dy := sp.X-dst.Min.X, sp.Y-dst.Min.Y
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d.scratch = append(d.scratch[:0], d.fb.row(y)...)
		for x := r.Min.X; x < r.Max.X; x++ {
			mask := byte(1) << uint(x%8)
			if image1bit.BitModel.Convert(src.At(x+dx, y+dy)).(image1bit.Bit) {
				d.scratch[x/8] |= mask
			} else {
				d.scratch[x/8] &^= mask
			}
		}
		d.fb.update(y, d.scratch)
	}
	return d.Flush()
}

// Write loads a full frame and flushes the lines that changed.
//
// Each line is (Width+7)/8 bytes; pixel x is bit x%8 of byte x/8 and a set
// bit is On.
func (d *Dev) Write(pixels []byte) (int, error) {
	if err := d.fb.load(pixels); err != nil {
		return 0, err
	}
	if err := d.Flush(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// SetPixel sets one pixel of the framebuffer and marks its line dirty. The
// panel is not updated until Flush.
//
// It returns ErrOutOfBounds when (x, y) is outside the panel.
func (d *Dev) SetPixel(x, y int, v image1bit.Bit) error {
	return d.fb.set(x, y, bool(v))
}

// Pixel returns the framebuffer value of one pixel.
func (d *Dev) Pixel(x, y int) (image1bit.Bit, error) {
	v, err := d.fb.at(x, y)
	return image1bit.Bit(v), err
}

// Fill paints the framebuffer with v and marks every line dirty. The panel
// is not updated until Flush.
func (d *Dev) Fill(v image1bit.Bit) {
	d.fb.fill(bool(v))
}

// DirtyRows returns the lines changed since they were last sent, in
// ascending order.
func (d *Dev) DirtyRows() iter.Seq[int] {
	return d.fb.dirtyRows()
}

// Flush sends every dirty line to the panel.
//
// Lines are marked clean one by one as they are written, so when the bus
// fails the lines not yet written stay dirty and are sent again by the next
// Flush. Flush does nothing when no line is dirty.
func (d *Dev) Flush() error {
	rows := d.fb.snapshot()
	if len(rows) == 0 {
		return nil
	}
	return d.transaction(opFlush, cmdWriteLine, func(cmd byte) error {
		d.log.Debug("flush", "rows", len(rows))
		d.cmd[0] = cmd
		if err := d.write(opFlush, d.cmd[:1]); err != nil {
			return err
		}
		for _, y := range rows {
			d.line = appendLine(d.line[:0], y, d.fb.row(y))
			if err := d.write(opFlush, d.line); err != nil {
				return err
			}
			d.fb.ack(y)
		}
		return d.write(opFlush, frameTrailer)
	})
}

// Clear paints the framebuffer with the clear value and clears the panel
// memory.
//
// Every line is left dirty, so the next Flush rewrites the whole panel from
// the framebuffer.
func (d *Dev) Clear() error {
	d.fb.fill(d.clearValue)
	return d.transaction(opClear, cmdClear, func(cmd byte) error {
		d.cmd[0], d.cmd[1] = cmd, filler
		return d.write(opClear, d.cmd[:])
	})
}

// DisplayMode sends a no-op transaction, which only toggles the reference
// bit. It must be called at least once per second when nothing is flushed.
func (d *Dev) DisplayMode() error {
	return d.transaction(opDisplayMode, cmdNop, func(cmd byte) error {
		d.cmd[0], d.cmd[1] = cmd, filler
		return d.write(opDisplayMode, d.cmd[:])
	})
}

// Enable turns the display on. The panel memory is preserved.
func (d *Dev) Enable() error {
	if err := d.drive(d.disp, "disp", gpio.High); err != nil {
		return err
	}
	d.enabled = true
	return nil
}

// Disable turns the display off. The panel memory is preserved.
func (d *Dev) Disable() error {
	if err := d.drive(d.disp, "disp", gpio.Low); err != nil {
		return err
	}
	d.enabled = false
	return nil
}

// Enabled reports whether the display-enable line is asserted.
func (d *Dev) Enabled() bool {
	return d.enabled
}

// Halt implements conn.Resource.
//
// It turns the display off.
func (d *Dev) Halt() error {
	return d.Disable()
}

// transaction frames body with the chip-select line. The reference bit is
// toggled first and the resulting command byte is passed to body. The
// chip-select line is released on every path.
func (d *Dev) transaction(op string, cmd byte, body func(cmd byte) error) (err error) {
	c := d.vcom.next(cmd)
	d.log.Debug("transaction", "op", op, "vcom", d.vcom.String())
	if err := d.drive(d.cs, "cs", gpio.High); err != nil {
		return err
	}
	defer func() {
		if e := d.drive(d.cs, "cs", gpio.Low); e != nil {
			if err == nil {
				err = e
			} else {
				err = errors.Join(err, e)
			}
		}
	}()
	return body(c)
}

func (d *Dev) write(op string, b []byte) error {
	if err := d.c.Tx(b, nil); err != nil {
		d.log.Debug("bus write failed", "op", op, "err", err)
		return &TransportError{Op: op, Err: err}
	}
	return nil
}

func (d *Dev) drive(p gpio.PinOut, line string, l gpio.Level) error {
	if err := p.Out(l); err != nil {
		return &ControlLineError{Line: line, Level: l, Err: err}
	}
	return nil
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
