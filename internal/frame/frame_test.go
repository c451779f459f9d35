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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateChecksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{name: "empty data", data: []byte{}, want: 0},
		{name: "single byte", data: []byte{0x42}, want: 0x42},
		{name: "overflow truncates", data: []byte{0xFF, 0x01}, want: 0x00},
		{name: "multiple bytes", data: []byte{0x01, 0x02, 0x03, 0x04}, want: 0x0A},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculateChecksum(tt.data))
		})
	}
}

func TestValidateChecksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		wantNack bool
	}{
		{name: "zero sum is valid", data: []byte{0x10, 0xF0}, wantNack: false},
		{name: "nonzero sum should NACK", data: []byte{0x10, 0x20}, wantNack: true},
		{name: "empty data is valid", data: []byte{}, wantNack: false},
		{name: "response with correct DCS", data: []byte{0xD4, 0x03, 0x29}, wantNack: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantNack, ValidateChecksum(tt.data))
		})
	}
}

func TestCalculateDataChecksum(t *testing.T) {
	t.Parallel()

	// DCS is the two's complement of TFI plus data; appending it must
	// bring the running sum back to zero.
	tests := []struct {
		name string
		data []byte
		tfi  byte
		want byte
	}{
		{name: "GetFirmwareVersion command", tfi: 0xD4, data: []byte{0x02}, want: 0x2A},
		{name: "no data", tfi: 0xD4, data: []byte{}, want: 0x2C},
		{name: "several bytes", tfi: 0xD4, data: []byte{0x02, 0x01, 0x03}, want: 0x26},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CalculateDataChecksum(tt.tfi, tt.data)
			assert.Equal(t, tt.want, got)

			full := append([]byte{tt.tfi}, tt.data...)
			assert.False(t, ValidateChecksum(append(full, got)))
		})
	}
}

func TestCalculateLengthChecksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		length byte
		want   byte
	}{
		{name: "length 1", length: 0x01, want: 0xFF},
		{name: "length 2", length: 0x02, want: 0xFE},
		{name: "length 0", length: 0x00, want: 0x00},
		{name: "length 255", length: 0xFF, want: 0x01},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculateLengthChecksum(tt.length))
		})
	}
}

func TestBuildFrame(t *testing.T) {
	t.Parallel()

	// SAMConfiguration normal mode, the first frame this firmware sends.
	frm, err := Build(0x14, []byte{0x01, 0x14, 0x00})
	require.NoError(t, err)

	want := []byte{
		0x00, 0x00, 0xFF, // preamble + start code
		0x05, 0xFB, // LEN=5, LCS
		0xD4, 0x14, 0x01, 0x14, 0x00, // TFI + command + args
		0x03, // DCS
		0x00, // postamble
	}
	assert.Equal(t, want, frm)
}

func TestBuildFrameTooLarge(t *testing.T) {
	t.Parallel()

	_, err := Build(0x40, make([]byte, 255))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestParseFrame(t *testing.T) {
	t.Parallel()

	buildResponse := func(payload []byte) []byte {
		dataLen := byte(len(payload) + 1)
		frm := []byte{0x00, 0x00, 0xFF, dataLen, CalculateLengthChecksum(dataLen), Pn532ToHost}
		frm = append(frm, payload...)
		frm = append(frm, CalculateDataChecksum(Pn532ToHost, payload), 0x00)
		return frm
	}

	t.Run("valid response", func(t *testing.T) {
		t.Parallel()
		payload := []byte{0x15} // SAMConfiguration response
		got, err := Parse(buildResponse(payload))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("leading noise before start code", func(t *testing.T) {
		t.Parallel()
		payload := []byte{0x4B, 0x00}
		raw := append([]byte{0x01, 0x80}, buildResponse(payload)...)
		got, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("no start code", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte{0x01, 0x02, 0x03})
		require.ErrorIs(t, err, ErrNoStartCode)
	})

	t.Run("length checksum mismatch", func(t *testing.T) {
		t.Parallel()
		raw := buildResponse([]byte{0x15})
		raw[4] ^= 0xFF
		_, err := Parse(raw)
		require.ErrorIs(t, err, ErrBadLength)
	})

	t.Run("data checksum mismatch", func(t *testing.T) {
		t.Parallel()
		raw := buildResponse([]byte{0x15})
		raw[6] ^= 0x01
		_, err := Parse(raw)
		require.ErrorIs(t, err, ErrBadChecksum)
	})

	t.Run("truncated body", func(t *testing.T) {
		t.Parallel()
		raw := buildResponse([]byte{0x15})
		_, err := Parse(raw[:len(raw)-3])
		require.ErrorIs(t, err, ErrTruncated)
	})
}

func TestIsAck(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAck([]byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}))
	assert.True(t, IsAck([]byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xAA}))
	assert.False(t, IsAck([]byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}))
	assert.False(t, IsAck(nil))
}
