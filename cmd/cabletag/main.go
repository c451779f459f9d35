// go-cabletag
// Copyright (c) 2025 The Cabletag Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cabletag.
//
// go-cabletag is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cabletag is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cabletag; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command cabletag provisions jumper cable end tags: it writes the
// configured records to tags one by one, then scans tags and prints
// what they carry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cabletag "github.com/jumperlabs/go-cabletag"
	"github.com/jumperlabs/go-cabletag/detection"

	// Import detectors to register them
	_ "github.com/jumperlabs/go-cabletag/detection/i2c"
	"github.com/jumperlabs/go-cabletag/polling"
	"github.com/jumperlabs/go-cabletag/transport/i2c"
	"github.com/jumperlabs/go-cabletag/transport/uart"
)

type config struct {
	devicePath   *string
	pollInterval *time.Duration
	startPage    *uint
	scanOnly     *bool
	ndef         *bool
	debug        *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Reader device path (e.g. /dev/i2c-1 or /dev/ttyUSB0). Leave empty for auto-detection."),
		pollInterval: flag.Duration("poll-interval", 50*time.Millisecond,
			"Tag presence polling interval"),
		startPage: flag.Uint("start-page", uint(cabletag.UserAreaStart),
			"First tag page a record occupies"),
		scanOnly: flag.Bool("scan-only", false, "Skip the write phase and only scan tags"),
		ndef:     flag.Bool("ndef", false, "Encode records as NDEF text instead of raw bytes"),
		debug:    flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		cabletag.SetDebugEnabled(true)
	}

	return cfg
}

// newTransport creates a transport from a device path.
func newTransport(path string) (cabletag.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	if strings.Contains(strings.ToLower(path), "i2c") {
		transport, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return transport, nil
	}

	// Default to UART for serial ports
	transport, err := uart.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return transport, nil
}

// resolveDevicePath returns the configured path, or auto-detects one.
func resolveDevicePath(cfg *config) (string, error) {
	if *cfg.devicePath != "" {
		return *cfg.devicePath, nil
	}

	_, _ = fmt.Println("Auto-detecting readers...")
	opts := detection.DefaultOptions()
	devices, err := detection.DetectAll(&opts)
	if err != nil {
		return "", fmt.Errorf("auto-detection failed: %w", err)
	}

	device := devices[0]
	_, _ = fmt.Printf("Using %s (%s)\n", device.Path, device.Name)
	return device.Path, nil
}

func buildSequencerConfig(cfg *config) *polling.Config {
	seqCfg := polling.DefaultConfig()
	seqCfg.PollInterval = *cfg.pollInterval
	seqCfg.StartPage = uint8(*cfg.startPage)

	if *cfg.scanOnly {
		seqCfg.Records = nil
	}

	if *cfg.ndef {
		seqCfg.Write = func(
			dev cabletag.TagDevice, rec cabletag.Record, startPage uint8,
		) []cabletag.WriteResult {
			results, err := cabletag.WriteNDEFRecord(dev, rec, startPage)
			if err != nil && len(results) == 0 {
				results = []cabletag.WriteResult{{Page: startPage, Err: err}}
			}
			return results
		}
		seqCfg.Read = cabletag.ReadNDEFRecord
	}

	return seqCfg
}

func attachCallbacks(seq *polling.Sequencer) {
	seq.OnPhaseChange = func(phase polling.Phase) {
		_, _ = fmt.Printf("=== %s phase ===\n", phase)
	}
	seq.OnTagDetected = func(tag *cabletag.DetectedTag) {
		_, _ = fmt.Printf("Tag %s\n", tag.UIDString())
	}
	seq.OnRecordWritten = func(rec cabletag.Record, results []cabletag.WriteResult) {
		failed := cabletag.Failed(results)
		if len(failed) == 0 {
			_, _ = fmt.Printf("Wrote %s — remove the tag\n", rec)
			return
		}
		for _, result := range failed {
			_, _ = fmt.Printf("Write %s: page %d failed: %v\n", rec, result.Page, result.Err)
		}
	}
	seq.OnTagScanned = func(rec cabletag.Record, valid bool) {
		if valid {
			_, _ = fmt.Printf("Scanned %s — remove the tag\n", rec)
		} else {
			_, _ = fmt.Printf("Scanned %s (checksum invalid) — remove the tag\n", rec)
		}
	}
	seq.OnError = func(err error) {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func run() error {
	cfg := parseFlags()

	path, err := resolveDevicePath(cfg)
	if err != nil {
		return err
	}

	transport, err := newTransport(path)
	if err != nil {
		return err
	}

	device, err := cabletag.New(transport)
	if err != nil {
		_ = transport.Close()
		return fmt.Errorf("failed to initialize reader: %w", err)
	}
	defer func() { _ = device.Close() }()

	if err := device.Init(); err != nil {
		return fmt.Errorf("failed to initialize reader: %w", err)
	}

	if version, versionErr := device.GetFirmwareVersion(); versionErr == nil {
		_, _ = fmt.Printf("Reader firmware: %s\n", version)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seq := polling.NewSequencer(device, buildSequencerConfig(cfg))
	attachCallbacks(seq)

	if err := seq.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sequencer stopped: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "cabletag: %v\n", err)
		os.Exit(1)
	}
}
