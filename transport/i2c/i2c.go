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

// Package i2c provides the I2C transport for the PN532 reader.
package i2c

import (
	"fmt"
	"time"

	cabletag "github.com/jumperlabs/go-cabletag"
	"github.com/jumperlabs/go-cabletag/internal/frame"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// PN532 I2C address (7-bit).
	pn532Addr = 0x24

	// Status byte raised by the PN532 when a response is available.
	pn532Ready = 0x01

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	// Delay between command and response availability.
	commandDelay = 6 * time.Millisecond
)

// Transport implements the cabletag.Transport interface for I2C
type Transport struct {
	dev     *i2c.Dev
	busName string
	timeout time.Duration
}

// New creates a new I2C transport on the named bus ("1", "/dev/i2c-1").
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Best effort; fall back to the bus default speed.
	_ = bus.SetSpeed(maxClockFreq)

	return &Transport{
		dev:     &i2c.Dev{Addr: pn532Addr, Bus: bus},
		busName: busName,
		timeout: 50 * time.Millisecond,
	}, nil
}

// SendCommand sends a command to the PN532 and waits for its response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	if err := t.sendFrame(cmd, args); err != nil {
		return nil, err
	}

	if err := t.waitAck(); err != nil {
		return nil, err
	}

	// Give the chip time to process before polling for the response.
	time.Sleep(commandDelay)

	return t.receiveFrame()
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// Close closes the transport connection
func (*Transport) Close() error {
	// periph.io handles bus cleanup on process exit.
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() cabletag.TransportType {
	return cabletag.TransportI2C
}

// checkReady reads the PN532 status byte.
func (t *Transport) checkReady() error {
	ready := make([]byte, 1)
	if err := t.dev.Tx(nil, ready); err != nil {
		return fmt.Errorf("I2C ready check failed: %w", err)
	}
	if ready[0] != pn532Ready {
		return cabletag.NewTransportNotReadyError("checkReady", t.busName)
	}
	return nil
}

// sendFrame writes one command frame to the chip.
func (t *Transport) sendFrame(cmd byte, args []byte) error {
	frm, err := frame.Build(cmd, args)
	if err != nil {
		return cabletag.NewDataTooLargeError("sendFrame", t.busName)
	}

	if err := t.dev.Tx(frm, nil); err != nil {
		return fmt.Errorf("failed to send I2C frame: %w", err)
	}
	return nil
}

// waitAck polls until the chip acknowledges the last command.
func (t *Transport) waitAck() error {
	deadline := time.Now().Add(t.timeout)

	// Leading status byte plus the 6-byte ACK frame.
	buf := make([]byte, 1+len(frame.AckFrame))

	for time.Now().Before(deadline) {
		if err := t.checkReady(); err != nil {
			time.Sleep(time.Millisecond)
			continue
		}

		if err := t.dev.Tx(nil, buf); err != nil {
			return fmt.Errorf("I2C ACK read failed: %w", err)
		}
		if frame.IsAck(buf[1:]) {
			return nil
		}

		time.Sleep(time.Millisecond)
	}

	return cabletag.NewNoACKError("waitAck", t.busName)
}

// receiveFrame reads and parses one response frame.
func (t *Transport) receiveFrame() ([]byte, error) {
	deadline := time.Now().Add(t.timeout)

	// Leading status byte plus the largest normal information frame.
	buf := make([]byte, 1+frame.MaxDataLength+7)

	for time.Now().Before(deadline) {
		if err := t.checkReady(); err != nil {
			time.Sleep(time.Millisecond)
			continue
		}

		if err := t.dev.Tx(nil, buf); err != nil {
			return nil, fmt.Errorf("I2C frame read failed: %w", err)
		}

		payload, err := frame.Parse(buf[1:])
		if err != nil {
			return nil, cabletag.NewTransportError(
				"receiveFrame", t.busName, cabletag.ErrFrameCorrupted, cabletag.ErrorTypeTransient)
		}
		return payload, nil
	}

	return nil, cabletag.NewTimeoutError("receiveFrame", t.busName)
}
