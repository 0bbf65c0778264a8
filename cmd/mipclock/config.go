// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/sharpmip/sharpmem"
)

// Config is the mipclock configuration file.
type Config struct {
	// Panel is the panel model, e.g. "LS013B7DH05".
	Panel string `yaml:"panel"`
	// SPI is the SPI port name as known by spireg. Empty selects the first
	// port.
	SPI string `yaml:"spi"`
	// CS and DISP are the gpioreg names of the chip-select and display-enable
	// lines.
	CS   string `yaml:"cs"`
	DISP string `yaml:"disp"`
	// InvertClear clears the panel to black instead of white.
	InvertClear bool `yaml:"invert_clear"`

	// Redraw and KeepAlive are cron schedules ("* * * * *", "@every 1s").
	// The panel needs a transaction at least once per second.
	Redraw    string `yaml:"redraw"`
	KeepAlive string `yaml:"keepalive"`

	// Layout is "analog" or "digital".
	Layout string `yaml:"layout"`
	// Timezone is an IANA zone name or "Local".
	Timezone string `yaml:"timezone"`
	// Title is drawn in the top left corner. Empty draws nothing.
	Title string `yaml:"title"`
	// Background is an optional image file, fitted to the panel and converted
	// to greyscale.
	Background string `yaml:"background,omitempty"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Panel:     sharpmem.LS013B7DH05.Name,
		CS:        "GPIO8",
		DISP:      "GPIO25",
		Redraw:    "* * * * *",
		KeepAlive: "@every 1s",
		Layout:    "analog",
		Timezone:  "Local",
		Title:     "mipclock",
	}
}

// Normalize fills in missing values with the defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Panel == "" {
		c.Panel = d.Panel
	}
	if c.CS == "" {
		c.CS = d.CS
	}
	if c.DISP == "" {
		c.DISP = d.DISP
	}
	if c.Redraw == "" {
		c.Redraw = d.Redraw
	}
	if c.KeepAlive == "" {
		c.KeepAlive = d.KeepAlive
	}
	if c.Layout == "" {
		c.Layout = d.Layout
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
}

// Validate checks the values that can only be checked against the panel
// registry, the cron parser or the time zone database.
func (c *Config) Validate() error {
	if _, err := sharpmem.ProfileByName(c.Panel); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.Redraw); err != nil {
		return fmt.Errorf("invalid redraw schedule %q: %w", c.Redraw, err)
	}
	if _, err := cron.ParseStandard(c.KeepAlive); err != nil {
		return fmt.Errorf("invalid keepalive schedule %q: %w", c.KeepAlive, err)
	}
	switch c.Layout {
	case "analog", "digital":
	default:
		return fmt.Errorf("invalid layout %q", c.Layout)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Load reads the configuration at path.
//
// When the file does not exist, the default configuration is written there
// and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path through a temporary file renamed over the target.
func Save(path string, cfg *Config) error {
	cfg.Normalize()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".mipclock-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
