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

// Package detection locates attached PN532 readers so the CLI can run
// without an explicit device path.
package detection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Detection errors
var (
	ErrNoDevicesFound       = errors.New("no reader devices found")
	ErrDetectionTimeout     = errors.New("device detection timed out")
	ErrUnsupportedPlatform  = errors.New("detection not supported on this platform")
	ErrNoDetectorRegistered = errors.New("no detectors registered")
)

// Mode controls how aggressively detection probes hardware.
type Mode int

const (
	// Passive only lists plausible device paths without touching them.
	Passive Mode = iota
	// Safe probes candidate devices with a harmless identification
	// command.
	Safe
)

// DeviceInfo describes a detected reader.
type DeviceInfo struct {
	Metadata  map[string]string
	Transport string
	Path      string
	Name      string
}

// Options configures a detection pass.
type Options struct {
	Mode    Mode
	Timeout time.Duration
}

// DefaultOptions returns safe-probing defaults.
func DefaultOptions() Options {
	return Options{
		Mode:    Safe,
		Timeout: 2 * time.Second,
	}
}

// Detector finds readers reachable over one transport.
type Detector interface {
	// Transport returns the transport name, e.g. "i2c".
	Transport() string
	// Detect searches for readers.
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   []Detector
)

// RegisterDetector adds a detector. Called from transport detector
// packages' init on import.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// DetectAll runs every registered detector and merges results.
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	registryMu.RLock()
	detectors := append([]Detector(nil), registry...)
	registryMu.RUnlock()

	if len(detectors) == 0 {
		return nil, ErrNoDetectorRegistered
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	var devices []DeviceInfo
	for _, d := range detectors {
		found, err := d.Detect(ctx, opts)
		if err != nil {
			// One transport failing to probe should not hide readers
			// on another.
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}
