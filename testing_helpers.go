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
	"sync"
	"time"
)

// MockCall records one SendCommand invocation on a MockTransport.
type MockCall struct {
	Args []byte
	Cmd  byte
}

// MockTransport is a scriptable Transport for tests. Responses and
// errors are keyed by command byte; every call is recorded.
type MockTransport struct {
	responses map[byte][]byte
	errs      map[byte]error
	fn        func(cmd byte, args []byte) ([]byte, error)
	calls     []MockCall
	mu        sync.Mutex
	closed    bool
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		errs:      make(map[byte]error),
	}
}

// SetResponse configures the response returned for cmd.
func (m *MockTransport) SetResponse(cmd byte, resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = resp
}

// SetError configures an error returned for cmd.
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[cmd] = err
}

// SetResponseFunc installs a dynamic handler that takes precedence
// over keyed responses.
func (m *MockTransport) SetResponseFunc(fn func(cmd byte, args []byte) ([]byte, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
}

// Calls returns a copy of all recorded invocations.
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// SendCommand implements Transport.
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrTransportRead
	}

	m.calls = append(m.calls, MockCall{Cmd: cmd, Args: append([]byte(nil), args...)})

	if m.fn != nil {
		return m.fn(cmd, args)
	}
	if err, ok := m.errs[cmd]; ok {
		return nil, err
	}
	if resp, ok := m.responses[cmd]; ok {
		return append([]byte(nil), resp...), nil
	}
	return nil, ErrCommunicationFailed
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport.
func (*MockTransport) SetTimeout(_ time.Duration) error {
	return nil
}

// IsConnected implements Transport.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport.
func (*MockTransport) Type() TransportType {
	return TransportMock
}
