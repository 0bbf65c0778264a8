// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GermanBionicSystems/sharpmip/sharpmem"
)

// clock owns the display. The cron jobs run concurrently and the driver is
// not safe for concurrent use, so every access goes through mu.
type clock struct {
	mu  sync.Mutex
	dev *sharpmem.Dev
	r   *renderer
	log *slog.Logger
	now func() time.Time
	// drawn is called after every redraw and clear, if set.
	drawn func()
}

func newClock(dev *sharpmem.Dev, cfg *Config, logger *slog.Logger) (*clock, error) {
	b := dev.Bounds()
	r, err := newRenderer(b.Dx(), b.Dy(), cfg)
	if err != nil {
		return nil, err
	}
	return &clock{dev: dev, r: r, log: logger, now: time.Now}, nil
}

// start clears the panel, turns it on and draws the current time.
func (c *clock) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.Clear(); err != nil {
		return err
	}
	if err := c.dev.Enable(); err != nil {
		return err
	}
	return c.redrawLocked()
}

func (c *clock) redraw() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redrawLocked()
}

func (c *clock) redrawLocked() error {
	t := c.now()
	img := c.r.render(t)
	if err := c.dev.Draw(c.dev.Bounds(), img, img.Bounds().Min); err != nil {
		return err
	}
	c.log.Debug("redraw", "time", t.Format(time.TimeOnly))
	c.notify()
	return nil
}

// keepAlive toggles the reference bit.
func (c *clock) keepAlive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.DisplayMode()
}

// stop clears the panel and turns it off. Both are attempted.
func (c *clock) stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.dev.Clear()
	c.notify()
	return errors.Join(err, c.dev.Disable())
}

func (c *clock) notify() {
	if c.drawn != nil {
		c.drawn()
	}
}

// schedule adds the redraw and keep-alive jobs to s. Job errors are logged;
// the next tick tries again.
func (c *clock) schedule(s *cron.Cron, cfg *Config) error {
	if _, err := s.AddFunc(cfg.Redraw, func() {
		if err := c.redraw(); err != nil {
			c.log.Error("redraw failed", "err", err)
		}
	}); err != nil {
		return err
	}
	_, err := s.AddFunc(cfg.KeepAlive, func() {
		if err := c.keepAlive(); err != nil {
			c.log.Error("keep-alive failed", "err", err)
		}
	})
	return err
}
