// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// mipclock shows a clock on a Sharp memory LCD.
//
// The panel, pins and schedules come from a YAML file, created with defaults
// on first run. With -sim, an emulated panel is drawn in the terminal, or
// served as a live image with -http.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/sharpmip/mipsim"
	"github.com/GermanBionicSystems/sharpmip/sharpmem"
)

func mainImpl() error {
	configPath := flag.String("config", "mipclock.yaml", "YAML configuration; created with the defaults when missing")
	sim := flag.Bool("sim", false, "use an emulated panel instead of the hardware")
	listen := flag.String("http", "", "with -sim, serve the emulated panel on this address instead of drawing in the terminal")
	once := flag.Bool("once", false, "draw once and exit, leaving the panel on")
	verbose := flag.Bool("v", false, "verbose log")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if *listen != "" && !*sim {
		return errors.New("-http requires -sim")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := Load(*configPath)
	if err != nil {
		return err
	}
	prof, err := sharpmem.ProfileByName(cfg.Panel)
	if err != nil {
		return err
	}
	logger.Info("starting", "panel", prof, "layout", cfg.Layout, "redraw", cfg.Redraw, "keepalive", cfg.KeepAlive, "sim", *sim)

	var (
		port      spi.Port
		cs, disp  gpio.PinOut
		drawn     func()
		terminate func()
	)
	if *sim {
		panel := mipsim.New(prof.Width, prof.Height)
		port, cs, disp = panel, panel.CS(), panel.DISP()
		if *listen != "" {
			stream := mipsim.NewStream(panel, logger)
			srv := &http.Server{Addr: *listen, Handler: stream}
			go func() {
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", "err", err)
				}
			}()
			logger.Info("serving the panel", "url", "http://"+*listen+"/")
			terminate = func() {
				_ = stream.Halt()
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}
		} else {
			term := mipsim.NewTerminal(panel, nil)
			drawn = func() {
				if err := term.Refresh(); err != nil {
					logger.Debug("terminal refresh failed", "err", err)
				}
			}
			terminate = func() { _ = term.Halt() }
		}
		defer func() {
			if err := panel.Err(); err != nil {
				logger.Error("protocol violation", "err", err)
			}
		}()
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		p, err := spireg.Open(cfg.SPI)
		if err != nil {
			return err
		}
		defer p.Close()
		port = p
		if cs = gpioreg.ByName(cfg.CS); cs == nil {
			return fmt.Errorf("no pin %q", cfg.CS)
		}
		if disp = gpioreg.ByName(cfg.DISP); disp == nil {
			return fmt.Errorf("no pin %q", cfg.DISP)
		}
	}
	if terminate != nil {
		defer terminate()
	}

	dev, err := sharpmem.New(port, cs, disp, &sharpmem.Opts{Profile: prof, InvertClear: cfg.InvertClear, Logger: logger})
	if err != nil {
		return err
	}
	c, err := newClock(dev, cfg, logger)
	if err != nil {
		return err
	}
	c.drawn = drawn
	if err := c.start(); err != nil {
		return err
	}
	if *once {
		return nil
	}

	printf := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	if *verbose {
		printf = cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	}
	s := cron.New(cron.WithLogger(printf), cron.WithChain(cron.Recover(printf), cron.SkipIfStillRunning(printf)))
	if err := c.schedule(s, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.Start()
	<-ctx.Done()
	logger.Info("shutting down")
	// Wait for a running job before touching the panel.
	<-s.Stop().Done()
	return c.stop()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "mipclock: %s.\n", err)
		os.Exit(1)
	}
}
