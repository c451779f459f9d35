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

package cabletag

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout retryable", err: ErrTransportTimeout, want: true},
		{name: "transport read retryable", err: ErrTransportRead, want: true},
		{name: "transport write retryable", err: ErrTransportWrite, want: true},
		{name: "communication failed retryable", err: ErrCommunicationFailed, want: true},
		{name: "no ACK retryable", err: ErrNoACK, want: true},
		{name: "frame corrupted retryable", err: ErrFrameCorrupted, want: true},
		{name: "device not found not retryable", err: ErrDeviceNotFound, want: false},
		{name: "no tag not retryable", err: ErrNoTagDetected, want: false},
		{name: "invalid parameter not retryable", err: ErrInvalidParameter, want: false},
		{name: "record truncated not retryable", err: ErrRecordTruncated, want: false},
		{
			name: "wrapped retryable sentinel",
			err:  fmt.Errorf("read block 4: %w", ErrTransportTimeout),
			want: true,
		},
		{
			name: "classified transport error",
			err:  NewTransportError("sendFrame", "i2c1", errors.New("bus stuck"), ErrorTypePermanent),
			want: false,
		},
		{
			name: "timeout transport error",
			err:  NewTimeoutError("waitAck", "i2c1"),
			want: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil error", err: nil, want: ErrorTypeUnknown},
		{name: "timeout sentinel", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "transient sentinel", err: ErrNoACK, want: ErrorTypeTransient},
		{name: "permanent sentinel", err: ErrInvalidParameter, want: ErrorTypePermanent},
		{name: "typed timeout", err: NewTimeoutError("op", "port"), want: ErrorTypeTimeout},
		{
			name: "typed permanent",
			err:  NewDataTooLargeError("sendFrame", "port"),
			want: ErrorTypePermanent,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetErrorType(tt.err); got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	t.Parallel()

	terr := NewNoACKError("waitAck", "uart0")
	if !errors.Is(terr, ErrNoACK) {
		t.Error("TransportError should unwrap to its sentinel")
	}
	if terr.Error() != "waitAck on uart0: no ACK received" {
		t.Errorf("unexpected error string: %q", terr.Error())
	}
}
