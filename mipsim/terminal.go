// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mipsim

import (
	"bytes"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options of a Terminal.
type TerminalOpts struct {
	// W is the destination. Defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// Off and On are the colors of black and white pixels. The zero value
	// selects a dark grey and a light grey close to the reflective panel look.
	Off, On color.NRGBA

	_ struct{}
}

// Terminal renders a Panel to a terminal using ANSI color codes.
type Terminal struct {
	p       *Panel
	w       io.Writer
	off, on string

	buf bytes.Buffer
}

// NewTerminal returns a Terminal that shows p.
func NewTerminal(p *Panel, opts *TerminalOpts) *Terminal {
	if opts == nil {
		opts = &TerminalOpts{}
	}
	pal := opts.Palette
	if pal == nil {
		pal = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	off, on := opts.Off, opts.On
	if off == (color.NRGBA{}) {
		off = color.NRGBA{0x30, 0x30, 0x30, 255}
	}
	if on == (color.NRGBA{}) {
		on = color.NRGBA{0xd0, 0xd0, 0xc8, 255}
	}
	return &Terminal{
		p:   p,
		w:   w,
		off: pal.Block(off),
		on:  pal.Block(on),
	}
}

func (t *Terminal) String() string {
	return "mipsim.Terminal"
}

// Refresh redraws the whole panel from the top left corner of the terminal.
func (t *Terminal) Refresh() error {
	img := t.p.Image()
	b := img.Bounds()
	// Built in one buffer to write to the terminal in one go.
	t.buf.Reset()
	_, _ = t.buf.WriteString("\033[H\033[0m")
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y != 0 {
				_, _ = t.buf.WriteString(t.on)
			} else {
				_, _ = t.buf.WriteString(t.off)
			}
		}
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}
