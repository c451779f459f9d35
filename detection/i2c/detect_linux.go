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

//go:build linux

package i2c

import (
	"context"
	"fmt"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/jumperlabs/go-cabletag/detection"
)

const (
	// i2cSlave is the ioctl command to set the slave address
	i2cSlave = 0x0703

	// i2cFuncs is the ioctl command to query adapter functionality
	i2cFuncs = 0x0705

	// i2cFuncI2C indicates plain I2C support
	i2cFuncI2C = 0x00000001
)

// detectLinux searches /dev/i2c-* buses for a PN532 at the default
// address.
func detectLinux(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	buses, err := findI2CBuses()
	if err != nil {
		return nil, err
	}
	if len(buses) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	devices := make([]detection.DeviceInfo, 0, len(buses))
	for _, bus := range buses {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		if opts.Mode == detection.Safe && !probeBus(ctx, bus, DefaultPN532Address) {
			continue
		}

		devices = append(devices, detection.DeviceInfo{
			Transport: "i2c",
			Path:      bus,
			Name:      fmt.Sprintf("PN532 at %s address 0x%02X", bus, DefaultPN532Address),
			Metadata: map[string]string{
				"bus":     bus,
				"address": fmt.Sprintf("0x%02X", DefaultPN532Address),
			},
		})
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// findI2CBuses discovers usable I2C buses on the system
func findI2CBuses() ([]string, error) {
	matches, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C buses: %w", err)
	}

	buses := make([]string, 0, len(matches))
	for _, path := range matches {
		fd, err := unix.Open(path, unix.O_RDWR, 0)
		if err != nil {
			continue
		}

		var funcs uint32
		//nolint:gosec // pointer required by the I2C_FUNCS ioctl ABI
		err = ioctl(fd, i2cFuncs, uintptr(unsafe.Pointer(&funcs)))
		_ = unix.Close(fd)
		if err != nil || funcs&i2cFuncI2C == 0 {
			continue
		}

		buses = append(buses, path)
	}

	return buses, nil
}

// probeBus checks whether a PN532 answers at addr on the given bus.
func probeBus(ctx context.Context, busPath string, addr uint8) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	fd, err := unix.Open(busPath, unix.O_RDWR, 0)
	if err != nil {
		return false
	}
	defer func() { _ = unix.Close(fd) }()

	if err := ioctl(fd, i2cSlave, uintptr(addr)); err != nil {
		return false
	}

	// Poke the chip with GetFirmwareVersion; a bare address probe
	// would also match unrelated devices on the bus.
	probe := []byte{0x02}
	if n, err := unix.Write(fd, probe); err != nil || n != len(probe) {
		return false
	}

	buf := make([]byte, 1)
	n, err := unix.Read(fd, buf)
	return err == nil && n == 1
}

// ioctl performs an ioctl system call
func ioctl(fd int, request uint, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(request), arg)
	if errno != 0 {
		return errno
	}
	return nil
}
