// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// renderer draws the clock face.
type renderer struct {
	w, h   int
	analog bool
	title  string
	loc    *time.Location
	bg     image.Image
	big    font.Face
	small  font.Face
}

func newRenderer(w, h int, cfg *Config) (*renderer, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	r := &renderer{
		w:      w,
		h:      h,
		analog: cfg.Layout == "analog",
		title:  cfg.Title,
		loc:    loc,
		big:    truetype.NewFace(f, &truetype.Options{Size: float64(min(w, h)) / 4, Hinting: font.HintingFull}),
		small:  basicfont.Face7x13,
	}
	if cfg.Background != "" {
		img, err := imaging.Open(cfg.Background, imaging.AutoOrientation(true))
		if err != nil {
			return nil, err
		}
		r.bg = imaging.Grayscale(imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos))
	}
	return r, nil
}

// render returns the face for t. White is the lit background.
func (r *renderer) render(t time.Time) image.Image {
	t = t.In(r.loc)
	dc := gg.NewContext(r.w, r.h)
	dc.SetColor(color.White)
	dc.Clear()
	if r.bg != nil {
		dc.DrawImage(r.bg, 0, 0)
	}
	dc.SetColor(color.Black)
	if r.analog {
		r.drawAnalog(dc, t)
	} else {
		r.drawDigital(dc, t)
	}
	img := dc.Image().(*image.RGBA)
	if r.title != "" {
		r.drawTitle(img)
	}
	return img
}

func (r *renderer) drawAnalog(dc *gg.Context, t time.Time) {
	cx, cy := float64(r.w)/2, float64(r.h)/2
	radius := math.Min(cx, cy) - 4
	dc.SetLineWidth(3)
	dc.DrawCircle(cx, cy, radius)
	dc.Stroke()
	for i := 0; i < 12; i++ {
		a := float64(i) * math.Pi / 6
		l := 0.1
		if i%3 == 0 {
			l = 0.2
		}
		dc.DrawLine(cx+radius*(1-l)*math.Sin(a), cy-radius*(1-l)*math.Cos(a), cx+radius*math.Sin(a), cy-radius*math.Cos(a))
	}
	dc.Stroke()

	hour := (float64(t.Hour()%12) + float64(t.Minute())/60) * math.Pi / 6
	minute := float64(t.Minute()) * math.Pi / 30
	dc.SetLineCapRound()
	dc.SetLineWidth(6)
	dc.DrawLine(cx, cy, cx+radius*0.5*math.Sin(hour), cy-radius*0.5*math.Cos(hour))
	dc.Stroke()
	dc.SetLineWidth(4)
	dc.DrawLine(cx, cy, cx+radius*0.8*math.Sin(minute), cy-radius*0.8*math.Cos(minute))
	dc.Stroke()
	dc.DrawCircle(cx, cy, 5)
	dc.Fill()
}

func (r *renderer) drawDigital(dc *gg.Context, t time.Time) {
	cx, cy := float64(r.w)/2, float64(r.h)/2
	dc.SetFontFace(r.big)
	dc.DrawStringAnchored(t.Format("15:04"), cx, cy, 0.5, 0.5)
	dc.SetFontFace(r.small)
	dc.DrawStringAnchored(t.Format("Mon Jan 2"), cx, float64(r.h)-8, 0.5, 0)
}

func (r *renderer) drawTitle(img draw.Image) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: r.small,
		Dot:  fixed.P(2, r.small.Metrics().Ascent.Ceil()+1),
	}
	d.DrawString(r.title)
}
