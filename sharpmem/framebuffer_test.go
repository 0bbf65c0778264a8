// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFramebufferNew(t *testing.T) {
	f := newFramebuffer(12, 70)
	if f.stride != 2 {
		t.Errorf("stride = %d, want 2", f.stride)
	}
	if len(f.pix) != 2*70 {
		t.Errorf("len(pix) = %d, want %d", len(f.pix), 2*70)
	}
	if n := f.dirtyCount(); n != 0 {
		t.Errorf("dirtyCount() = %d, want 0", n)
	}
	for y := 0; y < 70; y++ {
		for x := 0; x < 12; x++ {
			if v, _ := f.at(x, y); v {
				t.Fatalf("at(%d, %d) = true on a new framebuffer", x, y)
			}
		}
	}
}

func TestFramebufferSet(t *testing.T) {
	for _, tc := range []struct {
		x, y int
		v    bool
	}{
		{0, 0, true},
		{7, 0, true},
		{8, 1, true},
		{143, 167, true},
		{5, 100, false},
	} {
		f := newFramebuffer(144, 168)
		if err := f.set(tc.x, tc.y, tc.v); err != nil {
			t.Fatalf("set(%d, %d) failed: %v", tc.x, tc.y, err)
		}
		got, err := f.at(tc.x, tc.y)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.v {
			t.Errorf("at(%d, %d) = %t, want %t", tc.x, tc.y, got, tc.v)
		}
		if diff := cmp.Diff(slices.Collect(f.dirtyRows()), []int{tc.y}); diff != "" {
			t.Errorf("set(%d, %d) dirty rows difference (-got +want):\n%s", tc.x, tc.y, diff)
		}
	}
}

func TestFramebufferSetBitLayout(t *testing.T) {
	f := newFramebuffer(16, 2)
	for _, x := range []int{0, 3, 9, 15} {
		if err := f.set(x, 1, true); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(f.row(1), []byte{0b00001001, 0b10000010}); diff != "" {
		t.Errorf("row(1) difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(f.row(0), []byte{0, 0}); diff != "" {
		t.Errorf("row(0) difference (-got +want):\n%s", diff)
	}
}

func TestFramebufferOutOfBounds(t *testing.T) {
	f := newFramebuffer(8, 4)
	for _, pt := range [][2]int{{-1, 0}, {0, -1}, {8, 0}, {0, 4}, {100, 100}} {
		if err := f.set(pt[0], pt[1], true); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("set(%d, %d) = %v, want ErrOutOfBounds", pt[0], pt[1], err)
		}
		if _, err := f.at(pt[0], pt[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("at(%d, %d) = %v, want ErrOutOfBounds", pt[0], pt[1], err)
		}
	}
	if n := f.dirtyCount(); n != 0 {
		t.Errorf("dirtyCount() = %d after rejected writes, want 0", n)
	}
}

func TestFramebufferMarkIdempotent(t *testing.T) {
	f := newFramebuffer(8, 4)
	for i := 0; i < 5; i++ {
		_ = f.set(i, 2, i%2 == 0)
	}
	if diff := cmp.Diff(f.snapshot(), []int{2}); diff != "" {
		t.Errorf("snapshot() difference (-got +want):\n%s", diff)
	}
}

func TestFramebufferFill(t *testing.T) {
	f := newFramebuffer(10, 130)
	f.fill(true)
	for y := 0; y < 130; y++ {
		for x := 0; x < 10; x++ {
			if v, _ := f.at(x, y); !v {
				t.Fatalf("at(%d, %d) = false after fill(true)", x, y)
			}
		}
	}
	want := make([]int, 130)
	for i := range want {
		want[i] = i
	}
	if diff := cmp.Diff(f.snapshot(), want); diff != "" {
		t.Errorf("snapshot() difference (-got +want):\n%s", diff)
	}
	f.ack(want...)
	f.fill(false)
	if n := f.dirtyCount(); n != 130 {
		t.Errorf("dirtyCount() = %d, want 130", n)
	}
}

func TestFramebufferDirtyRowsAcrossWords(t *testing.T) {
	f := newFramebuffer(8, 200)
	for _, y := range []int{199, 0, 64, 63, 128, 65} {
		_ = f.set(1, y, true)
	}
	if diff := cmp.Diff(slices.Collect(f.dirtyRows()), []int{0, 63, 64, 65, 128, 199}); diff != "" {
		t.Errorf("dirtyRows() difference (-got +want):\n%s", diff)
	}
}

func TestFramebufferDirtyRowsStop(t *testing.T) {
	f := newFramebuffer(8, 10)
	f.fill(true)
	var got []int
	for y := range f.dirtyRows() {
		if y == 3 {
			break
		}
		got = append(got, y)
	}
	if diff := cmp.Diff(got, []int{0, 1, 2}); diff != "" {
		t.Errorf("dirtyRows() difference (-got +want):\n%s", diff)
	}
}

func TestFramebufferAck(t *testing.T) {
	f := newFramebuffer(8, 10)
	for _, y := range []int{1, 4, 7} {
		_ = f.set(0, y, true)
	}
	f.ack(4, 9, -1, 10)
	if diff := cmp.Diff(f.snapshot(), []int{1, 7}); diff != "" {
		t.Errorf("snapshot() difference (-got +want):\n%s", diff)
	}
	f.ack(1, 7)
	if diff := cmp.Diff(f.snapshot(), []int(nil), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot() difference (-got +want):\n%s", diff)
	}
}

func TestFramebufferLoad(t *testing.T) {
	f := newFramebuffer(16, 3)
	_ = f.set(0, 1, true)
	f.ack(1)

	if err := f.load(make([]byte, 5)); err == nil {
		t.Error("load() with a short frame succeeded")
	}

	frame := []byte{
		0x00, 0x00,
		0x01, 0x00, // unchanged
		0xff, 0x80,
	}
	if err := f.load(frame); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.snapshot(), []int{2}); diff != "" {
		t.Errorf("snapshot() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(f.pix, frame); diff != "" {
		t.Errorf("pix difference (-got +want):\n%s", diff)
	}
	frame[4] = 0
	if f.pix[4] != 0xff {
		t.Error("load() kept a reference to the caller's slice")
	}
}

func TestFramebufferUpdate(t *testing.T) {
	f := newFramebuffer(16, 2)
	if f.update(0, []byte{0x00, 0x00}) {
		t.Error("update() with the same content reported a change")
	}
	if n := f.dirtyCount(); n != 0 {
		t.Errorf("%d dirty rows after an identical update()", n)
	}
	if !f.update(1, []byte{0x00, 0x04}) {
		t.Error("update() with new content reported no change")
	}
	if diff := cmp.Diff(f.snapshot(), []int{1}); diff != "" {
		t.Errorf("snapshot() difference (-got +want):\n%s", diff)
	}
	if v, _ := f.at(10, 1); !v {
		t.Error("pixel (10, 1) not set by update()")
	}
}
