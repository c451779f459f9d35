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

// Package frame provides normal information frame construction and
// parsing for PN532 communication, shared by the I2C and UART
// transports.
package frame

import (
	"bytes"
	"errors"
)

// Frame direction constants - these indicate the direction of data flow
const (
	HostToPn532 = 0xD4 // Commands from host to PN532
	Pn532ToHost = 0xD5 // Responses from PN532 to host
)

// Frame markers and control bytes
const (
	Preamble   = 0x00 // Frame preamble byte
	StartCode1 = 0x00 // Start code byte 1
	StartCode2 = 0xFF // Start code byte 2
	Postamble  = 0x00 // Frame postamble byte
)

// Frame size limits
const (
	// MaxDataLength is the maximum TFI+data length of a normal
	// information frame; extended frames are not used here.
	MaxDataLength = 255
	// MinFrameLength covers preamble + start code + len + lcs + tfi + dcs.
	MinFrameLength = 6
)

// ACK and NACK frames - these are used for flow control
var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// Parse errors
var (
	ErrNoStartCode = errors.New("frame start code not found")
	ErrBadLength   = errors.New("frame length checksum mismatch")
	ErrBadChecksum = errors.New("frame data checksum mismatch")
	ErrTooLarge    = errors.New("frame data too large")
	ErrTruncated   = errors.New("frame truncated")
	ErrBadTFI      = errors.New("unexpected frame direction")
)

// CalculateChecksum returns the low byte of the sum of data.
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ValidateChecksum reports whether data fails its checksum, i.e. the
// receiver should NACK. A frame is intact when the bytes including the
// trailing DCS sum to zero.
func ValidateChecksum(data []byte) bool {
	return CalculateChecksum(data) != 0
}

// CalculateDataChecksum returns the DCS byte: the two's complement of
// the sum of TFI and the data bytes.
func CalculateDataChecksum(tfi byte, data []byte) byte {
	sum := tfi
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}

// CalculateLengthChecksum returns the LCS byte: the two's complement
// of the frame length byte.
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// Build constructs a normal information frame carrying cmd and args
// from host to PN532.
func Build(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args) // TFI + cmd + args
	if dataLen > MaxDataLength {
		return nil, ErrTooLarge
	}

	frm := make([]byte, 0, 5+dataLen+2)
	frm = append(frm, Preamble, StartCode1, StartCode2)
	frm = append(frm, byte(dataLen), CalculateLengthChecksum(byte(dataLen)))
	frm = append(frm, HostToPn532, cmd)
	frm = append(frm, args...)
	frm = append(frm, CalculateDataChecksum(HostToPn532, append([]byte{cmd}, args...)))
	frm = append(frm, Postamble)
	return frm, nil
}

// IsAck reports whether buf begins with an ACK frame.
func IsAck(buf []byte) bool {
	return len(buf) >= len(AckFrame) && bytes.Equal(buf[:len(AckFrame)], AckFrame)
}

// Parse locates and validates a response frame in buf and returns the
// payload following the TFI byte (response command + data).
func Parse(buf []byte) ([]byte, error) {
	start := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if start < 0 {
		return nil, ErrNoStartCode
	}

	// LEN and LCS follow the start code.
	rest := buf[start+2:]
	if len(rest) < 2 {
		return nil, ErrTruncated
	}
	length := rest[0]
	if rest[1] != CalculateLengthChecksum(length) {
		return nil, ErrBadLength
	}

	body := rest[2:]
	if len(body) < int(length)+1 {
		return nil, ErrTruncated
	}

	// TFI + data + DCS must sum to zero.
	if ValidateChecksum(body[:int(length)+1]) {
		return nil, ErrBadChecksum
	}
	if body[0] != Pn532ToHost {
		return nil, ErrBadTFI
	}

	return body[1:length], nil
}
