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
)

// Transport-level errors
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrTransportRead       = errors.New("transport read failed")
	ErrTransportWrite      = errors.New("transport write failed")
	ErrTransportNotReady   = errors.New("transport not ready")
	ErrCommunicationFailed = errors.New("communication with reader failed")
	ErrNoACK               = errors.New("no ACK received")
	ErrFrameCorrupted      = errors.New("frame corrupted")
	ErrDataTooLarge        = errors.New("data too large for frame")
)

// Device and tag errors
var (
	ErrDeviceNotFound   = errors.New("reader device not found")
	ErrNoTagDetected    = errors.New("no tag detected")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrRecordTruncated  = errors.New("record data truncated")
	ErrReadFailed       = errors.New("failed to read from tag")
	ErrWriteFailed      = errors.New("failed to write to tag")
	ErrNoNDEF           = errors.New("no NDEF message on tag")
)

// ErrorType classifies transport errors for callers and logs. The core
// write/verify/scan loops never retry; the human operator re-presenting
// a tag is the retry mechanism.
type ErrorType int

const (
	// ErrorTypeUnknown is the zero value for unclassified errors.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient errors may succeed on a later attempt.
	ErrorTypeTransient
	// ErrorTypeTimeout errors are transient errors caused by a deadline.
	ErrorTypeTimeout
	// ErrorTypePermanent errors will not succeed without intervention.
	ErrorTypePermanent
)

// TransportError wraps a transport failure with its operation, port
// and classification.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a classified transport error.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a transport timeout error.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewNoACKError creates an error for a missing ACK frame.
func NewNoACKError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrNoACK, ErrorTypeTransient)
}

// NewTransportNotReadyError creates an error for a reader that has not
// raised its ready status yet.
func NewTransportNotReadyError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportNotReady, ErrorTypeTransient)
}

// NewDataTooLargeError creates an error for payloads exceeding the
// normal information frame limit.
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// retryableSentinels are the transport conditions that a caller with a
// retry policy could reasonably attempt again.
var retryableSentinels = []error{
	ErrTransportTimeout,
	ErrTransportRead,
	ErrTransportWrite,
	ErrTransportNotReady,
	ErrCommunicationFailed,
	ErrNoACK,
	ErrFrameCorrupted,
}

// IsRetryable reports whether err represents a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}

	for _, sentinel := range retryableSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// GetErrorType returns the classification of err.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Type
	}

	if errors.Is(err, ErrTransportTimeout) {
		return ErrorTypeTimeout
	}
	if IsRetryable(err) {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}
