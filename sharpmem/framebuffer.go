// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"math/bits"
)

// ErrOutOfBounds is returned for pixel coordinates outside the panel.
var ErrOutOfBounds = errors.New("sharpmem: pixel out of bounds")

// framebuffer mirrors the panel memory.
//
// Each line is stride bytes. Pixel x of a line is bit x%8 of byte x/8, the
// order in which pixels are shifted out once every byte is bit reversed. A
// set bit is a reflective (white) pixel.
type framebuffer struct {
	w, h   int
	stride int
	pix    []byte
	// dirty holds one bit per line, set when the line changed since it was
	// last acknowledged.
	dirty []uint64
}

func newFramebuffer(w, h int) *framebuffer {
	stride := (w + 7) / 8
	return &framebuffer{
		w:      w,
		h:      h,
		stride: stride,
		pix:    make([]byte, stride*h),
		dirty:  make([]uint64, (h+63)/64),
	}
}

func (f *framebuffer) inBounds(x, y int) bool {
	return x >= 0 && x < f.w && y >= 0 && y < f.h
}

// set updates one pixel and marks its line dirty, even when the value did
// not change.
func (f *framebuffer) set(x, y int, v bool) error {
	if !f.inBounds(x, y) {
		return fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfBounds, x, y, f.w, f.h)
	}
	i := y*f.stride + x/8
	mask := byte(1) << uint(x%8)
	if v {
		f.pix[i] |= mask
	} else {
		f.pix[i] &^= mask
	}
	f.markDirty(y)
	return nil
}

func (f *framebuffer) at(x, y int) (bool, error) {
	if !f.inBounds(x, y) {
		return false, fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfBounds, x, y, f.w, f.h)
	}
	return f.pix[y*f.stride+x/8]&(1<<uint(x%8)) != 0, nil
}

// fill paints every pixel with v and marks every line dirty.
func (f *framebuffer) fill(v bool) {
	var b byte
	if v {
		b = 0xff
	}
	for i := range f.pix {
		f.pix[i] = b
	}
	for y := 0; y < f.h; y++ {
		f.markDirty(y)
	}
}

// load replaces the whole frame. Only lines whose content differs are marked
// dirty.
func (f *framebuffer) load(pix []byte) error {
	if len(pix) != len(f.pix) {
		return fmt.Errorf("sharpmem: invalid pixel stream length; expected %d bytes, got %d bytes", len(f.pix), len(pix))
	}
	for y := 0; y < f.h; y++ {
		f.update(y, pix[y*f.stride:(y+1)*f.stride])
	}
	return nil
}

// update replaces line y with line and marks it dirty when the content
// differs. It reports whether the line changed.
func (f *framebuffer) update(y int, line []byte) bool {
	dst := f.row(y)
	if bytes.Equal(dst, line) {
		return false
	}
	copy(dst, line)
	f.markDirty(y)
	return true
}

// row returns the packed content of line y. The slice aliases the buffer.
func (f *framebuffer) row(y int) []byte {
	return f.pix[y*f.stride : (y+1)*f.stride]
}

func (f *framebuffer) markDirty(y int) {
	f.dirty[y/64] |= 1 << uint(y%64)
}

// dirtyRows lazily yields the dirty line indexes in ascending order.
func (f *framebuffer) dirtyRows() iter.Seq[int] {
	return func(yield func(int) bool) {
		for w := range f.dirty {
			for word := f.dirty[w]; word != 0; word &= word - 1 {
				if !yield(w*64 + bits.TrailingZeros64(word)) {
					return
				}
			}
		}
	}
}

// snapshot returns the dirty lines at the time of the call.
func (f *framebuffer) snapshot() []int {
	var rows []int
	for y := range f.dirtyRows() {
		rows = append(rows, y)
	}
	return rows
}

// ack clears the dirty flag of exactly the given lines.
func (f *framebuffer) ack(rows ...int) {
	for _, y := range rows {
		if y >= 0 && y < f.h {
			f.dirty[y/64] &^= 1 << uint(y%64)
		}
	}
}

func (f *framebuffer) dirtyCount() int {
	n := 0
	for _, w := range f.dirty {
		n += bits.OnesCount64(w)
	}
	return n
}
