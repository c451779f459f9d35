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

// Package uart provides the UART/HSU transport for the PN532 reader.
package uart

import (
	"fmt"
	"time"

	cabletag "github.com/jumperlabs/go-cabletag"
	"github.com/jumperlabs/go-cabletag/internal/frame"
	"go.bug.st/serial"
)

const baudRate = 115200

// wakeupSequence pulls the PN532 out of low VBAT mode before the
// first frame on the wire.
var wakeupSequence = []byte{0x55, 0x55, 0x00, 0x00, 0x00}

// Transport implements the cabletag.Transport interface for UART
type Transport struct {
	port    serial.Port
	path    string
	timeout time.Duration
	awake   bool
}

// New creates a new UART transport on the given serial port path.
func New(path string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	t := &Transport{
		port:    port,
		path:    path,
		timeout: 100 * time.Millisecond,
	}
	if err := port.SetReadTimeout(t.timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return t, nil
}

// SendCommand sends a command to the PN532 and waits for its response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	if !t.awake {
		if _, err := t.port.Write(wakeupSequence); err != nil {
			return nil, fmt.Errorf("wakeup write failed: %w", err)
		}
		t.awake = true
	}

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, cabletag.NewDataTooLargeError("SendCommand", t.path)
	}
	if _, err := t.port.Write(frm); err != nil {
		return nil, fmt.Errorf("serial write failed: %w", err)
	}

	if err := t.readAck(); err != nil {
		return nil, err
	}

	return t.receiveFrame()
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	t.port = nil
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() cabletag.TransportType {
	return cabletag.TransportUART
}

// readExact accumulates reads until buf is full or the deadline hits.
func (t *Transport) readExact(buf []byte, deadline time.Time) error {
	read := 0
	for read < len(buf) {
		if time.Now().After(deadline) {
			return cabletag.NewTimeoutError("readExact", t.path)
		}
		n, err := t.port.Read(buf[read:])
		if err != nil {
			return fmt.Errorf("%w: %w", cabletag.ErrTransportRead, err)
		}
		read += n
	}
	return nil
}

// readAck consumes the 6-byte ACK frame following a command.
func (t *Transport) readAck() error {
	buf := make([]byte, len(frame.AckFrame))
	if err := t.readExact(buf, time.Now().Add(t.timeout)); err != nil {
		return err
	}
	if !frame.IsAck(buf) {
		return cabletag.NewNoACKError("readAck", t.path)
	}
	return nil
}

// receiveFrame reads and parses one response frame.
func (t *Transport) receiveFrame() ([]byte, error) {
	deadline := time.Now().Add(t.timeout)

	// Preamble + start code + LEN + LCS.
	header := make([]byte, 5)
	if err := t.readExact(header, deadline); err != nil {
		return nil, err
	}

	length := int(header[3])
	if length+1 > frame.MaxDataLength+1 {
		return nil, cabletag.NewTransportError(
			"receiveFrame", t.path, cabletag.ErrFrameCorrupted, cabletag.ErrorTypeTransient)
	}

	// TFI + data + DCS + postamble.
	body := make([]byte, length+2)
	if err := t.readExact(body, deadline); err != nil {
		return nil, err
	}

	payload, err := frame.Parse(append(header, body...))
	if err != nil {
		return nil, cabletag.NewTransportError(
			"receiveFrame", t.path, cabletag.ErrFrameCorrupted, cabletag.ErrorTypeTransient)
	}
	return payload, nil
}
