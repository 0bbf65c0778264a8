// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sharpmem controls Sharp memory-in-pixel (MIP) LCD panels over SPI.
//
// MIP panels keep every pixel in on-glass memory, so nothing has to be
// refreshed to keep an image. The host keeps a mirror of the panel memory,
// tracks which lines changed and sends only those lines on Flush.
//
// The panel requires its VCOM reference bit to alternate at least once per
// second. Every transaction (Flush, Clear, DisplayMode) toggles it; call
// DisplayMode periodically when nothing is drawn.
//
// Dev is not safe for concurrent use. Callers that share a Dev between
// goroutines must serialise access themselves.
//
// # Wiring
//
// Connect SI to SPI_MOSI, SCLK to SPI_CLK. SCS is active high and must be
// driven by a dedicated GPIO, passed as cs. DISP is the display-enable line.
// EXTCOMIN is not used; tie EXTMODE low so VCOM is taken from the serial
// stream.
//
// # Datasheets
//
// See the "Memory LCD programming" application note and the LS013B7DH05,
// LS013B7DH03 and LS027B7DH01 specifications published by Sharp.
package sharpmem
