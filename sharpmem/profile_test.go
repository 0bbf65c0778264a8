// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

func TestProfileByName(t *testing.T) {
	for _, tc := range []struct {
		name    string
		want    Profile
		wantErr bool
	}{
		{name: "LS013B7DH05", want: LS013B7DH05},
		{name: "ls027b7dh01", want: LS027B7DH01},
		{name: "Ls011b7dh03", want: LS011B7DH03},
		{name: "LS013B7DH06", wantErr: true},
		{name: "", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ProfileByName(tc.name)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ProfileByName(%q) = %s, want error", tc.name, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("ProfileByName(%q) difference (-got +want):\n%s", tc.name, diff)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	for _, p := range Profiles {
		if err := p.validate(); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
		if p.MaxFreq < physic.MegaHertz {
			t.Errorf("%s: MaxFreq %s", p.Name, p.MaxFreq)
		}
	}
	if LS011B7DH03.Mode != spi.Mode0 {
		t.Errorf("LS011B7DH03 mode %s, want %s", LS011B7DH03.Mode, spi.Mode0)
	}
}

func TestProfileValidate(t *testing.T) {
	for _, tc := range []struct {
		p       Profile
		wantErr bool
	}{
		{Profile{Width: 1, Height: 1}, false},
		{Profile{Width: 400, Height: 255}, false},
		{Profile{Width: 0, Height: 10}, true},
		{Profile{Width: 10, Height: 0}, true},
		{Profile{Width: 10, Height: 256}, true},
	} {
		if err := tc.p.validate(); (err != nil) != tc.wantErr {
			t.Errorf("%s: validate() = %v, wantErr %t", tc.p, err, tc.wantErr)
		}
	}
}

func TestProfileBytesPerLine(t *testing.T) {
	for _, tc := range []struct {
		width, want int
	}{
		{1, 1},
		{8, 1},
		{9, 2},
		{144, 18},
		{400, 50},
	} {
		p := Profile{Width: tc.width}
		if got := p.bytesPerLine(); got != tc.want {
			t.Errorf("bytesPerLine(%d) = %d, want %d", tc.width, got, tc.want)
		}
	}
}

func TestProfileString(t *testing.T) {
	if got, want := LS013B7DH05.String(), "LS013B7DH05{144x168}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
