// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// maxLines is the number of lines addressable by the 8-bit line address.
const maxLines = 255

// Profile describes a panel model.
type Profile struct {
	Name   string
	Width  int
	Height int
	// Mode is the SPI clock polarity and phase. Most panels sample on the
	// second clock transition with the clock idle low (spi.Mode1).
	Mode spi.Mode
	// MaxFreq is the highest serial clock the panel accepts.
	MaxFreq physic.Frequency
}

// Supported panels.
var (
	LS011B7DH03 = Profile{Name: "LS011B7DH03", Width: 160, Height: 68, Mode: spi.Mode0, MaxFreq: 1 * physic.MegaHertz}
	LS012B7DD06 = Profile{Name: "LS012B7DD06", Width: 240, Height: 240, Mode: spi.Mode1, MaxFreq: 1 * physic.MegaHertz}
	LS013B7DH03 = Profile{Name: "LS013B7DH03", Width: 128, Height: 128, Mode: spi.Mode1, MaxFreq: 1 * physic.MegaHertz}
	LS013B7DH05 = Profile{Name: "LS013B7DH05", Width: 144, Height: 168, Mode: spi.Mode1, MaxFreq: 1 * physic.MegaHertz}
	LS027B7DH01 = Profile{Name: "LS027B7DH01", Width: 400, Height: 240, Mode: spi.Mode1, MaxFreq: 2 * physic.MegaHertz}
)

// Profiles lists every supported panel.
var Profiles = []Profile{
	LS011B7DH03,
	LS012B7DD06,
	LS013B7DH03,
	LS013B7DH05,
	LS027B7DH01,
}

// ProfileByName returns the profile of the named panel. The lookup ignores
// case.
func ProfileByName(name string) (Profile, error) {
	for _, p := range Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("sharpmem: unknown panel %q", name)
}

// bytesPerLine returns the packed size of one line. The last byte is padded
// when the width is not a multiple of 8.
func (p *Profile) bytesPerLine() int {
	return (p.Width + 7) / 8
}

func (p *Profile) validate() error {
	if p.Width <= 0 {
		return fmt.Errorf("sharpmem: invalid width %d", p.Width)
	}
	if p.Height <= 0 || p.Height > maxLines {
		return fmt.Errorf("sharpmem: invalid height %d", p.Height)
	}
	return nil
}

func (p Profile) String() string {
	return fmt.Sprintf("%s{%dx%d}", p.Name, p.Width, p.Height)
}
