// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func isOn(img image.Image, x, y int) bool {
	return image1bit.BitModel.Convert(img.At(x, y)).(image1bit.Bit) == image1bit.On
}

// countOff returns the number of black pixels of img within r.
func countOff(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if !isOn(img, x, y) {
				n++
			}
		}
	}
	return n
}

func testConfig(layout string) *Config {
	cfg := DefaultConfig()
	cfg.Layout = layout
	cfg.Timezone = "UTC"
	return cfg
}

func TestRenderAnalog(t *testing.T) {
	r, err := newRenderer(144, 168, testConfig("analog"))
	if err != nil {
		t.Fatal(err)
	}
	img := r.render(time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC))
	if got := img.Bounds(); got != image.Rect(0, 0, 144, 168) {
		t.Fatalf("Bounds() = %v", got)
	}
	if !isOn(img, 143, 167) {
		t.Error("corner is not white")
	}
	// Hub.
	if isOn(img, 72, 84) {
		t.Error("center is not black")
	}
	// At 3:00 the hour hand points right and the minute hand up.
	if isOn(img, 72+25, 84) {
		t.Error("hour hand missing")
	}
	if isOn(img, 72, 84-45) {
		t.Error("minute hand missing")
	}
	if !isOn(img, 72-25, 84) {
		t.Error("unexpected hand on the left")
	}
	if n := countOff(img, image.Rect(0, 0, 72, 16)); n == 0 {
		t.Error("title missing")
	}
}

func TestRenderDigital(t *testing.T) {
	cfg := testConfig("digital")
	cfg.Title = ""
	r, err := newRenderer(144, 168, cfg)
	if err != nil {
		t.Fatal(err)
	}
	a := r.render(time.Date(2026, 3, 1, 12, 34, 0, 0, time.UTC))
	b := r.render(time.Date(2026, 3, 1, 12, 35, 0, 0, time.UTC))
	if n := countOff(a, image.Rect(0, 0, 144, 20)); n != 0 {
		t.Errorf("%d black pixels where the title would be", n)
	}
	if n := countOff(a, a.Bounds()); n == 0 {
		t.Fatal("nothing drawn")
	}
	diff := 0
	for y := 0; y < 168; y++ {
		for x := 0; x < 144; x++ {
			if isOn(a, x, y) != isOn(b, x, y) {
				diff++
			}
		}
	}
	if diff == 0 {
		t.Error("12:34 and 12:35 render the same")
	}
}

func TestRenderTimezone(t *testing.T) {
	cfg := testConfig("digital")
	cfg.Timezone = "Asia/Tokyo"
	r, err := newRenderer(64, 64, cfg)
	if err != nil {
		t.Skipf("no time zone database: %v", err)
	}
	utc, err := newRenderer(64, 64, testConfig("digital"))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a, b := r.render(now), utc.render(now)
	same := true
	for y := 0; y < 64 && same; y++ {
		for x := 0; x < 64; x++ {
			if isOn(a, x, y) != isOn(b, x, y) {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("the time zone has no effect")
	}
}

func TestRenderBackground(t *testing.T) {
	// A black left half.
	src := image.NewGray(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 20; x < 40; x++ {
			src.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	path := filepath.Join(t.TempDir(), "bg.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig("digital")
	cfg.Title = ""
	cfg.Background = path
	r, err := newRenderer(80, 40, cfg)
	if err != nil {
		t.Fatal(err)
	}
	img := r.render(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if isOn(img, 2, 2) {
		t.Error("top left is not black")
	}
	if !isOn(img, 77, 2) {
		t.Error("top right is not white")
	}

	cfg.Background = filepath.Join(t.TempDir(), "missing.png")
	if _, err := newRenderer(80, 40, cfg); err == nil {
		t.Error("newRenderer() with a missing background succeeded")
	}
}
