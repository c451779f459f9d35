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

// Package virtualtag provides a simulated NTAG203 tag behind the
// reader interface, for testing the page I/O and sequencing layers
// without hardware.
package virtualtag

import (
	"fmt"

	cabletag "github.com/jumperlabs/go-cabletag"
)

// NTAG203 memory geometry: 42 pages of 4 bytes. Pages 0-1 hold the
// UID, page 2 lock bytes, page 3 the capability container; user data
// runs from page 4 through 39.
const (
	totalPages    = 42
	userAreaStart = 4
	userAreaEnd   = 40
)

// DefaultUID is the UID used when none is supplied.
var DefaultUID = []byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6}

// Tag is a simulated NTAG203 implementing cabletag.TagDevice. Presence
// is scriptable: Remove and Insert model the operator pulling and
// presenting the tag.
type Tag struct {
	writeErrs   map[uint8]error
	readErr     error
	UID         []byte
	pages       [][]byte
	Detects     int
	EndSessions int
	present     bool
}

// NewNTAG203 creates a present, blank virtual tag.
func NewNTAG203(uid []byte) *Tag {
	if uid == nil {
		uid = DefaultUID
	}

	tag := &Tag{
		UID:       append([]byte(nil), uid...),
		pages:     make([][]byte, totalPages),
		writeErrs: make(map[uint8]error),
		present:   true,
	}

	for i := range tag.pages {
		tag.pages[i] = make([]byte, cabletag.PageSize)
	}
	copy(tag.pages[0], uid[:min(len(uid), cabletag.PageSize)])
	if len(uid) > cabletag.PageSize {
		copy(tag.pages[1], uid[cabletag.PageSize:])
	}
	// Capability container for a 144-byte NDEF area.
	copy(tag.pages[3], []byte{0xE1, 0x10, 0x12, 0x00})

	return tag
}

// Insert makes the tag present in the reader's field.
func (t *Tag) Insert() { t.present = true }

// Remove takes the tag out of the field.
func (t *Tag) Remove() { t.present = false }

// Present reports field presence.
func (t *Tag) Present() bool { return t.present }

// Page returns a copy of one page's contents.
func (t *Tag) Page(page uint8) []byte {
	if int(page) >= totalPages {
		return nil
	}
	return append([]byte(nil), t.pages[page]...)
}

// Corrupt XORs mask into one byte of tag memory, simulating a
// corrupted tag.
func (t *Tag) Corrupt(page uint8, offset int, mask byte) {
	t.pages[page][offset] ^= mask
}

// FailWritesTo makes writes to the given page fail with err.
func (t *Tag) FailWritesTo(page uint8, err error) {
	t.writeErrs[page] = err
}

// FailReads makes all block reads fail with err.
func (t *Tag) FailReads(err error) {
	t.readErr = err
}

// Init implements cabletag.TagDevice.
func (*Tag) Init() error { return nil }

// DetectTag implements cabletag.TagDevice.
func (t *Tag) DetectTag() (*cabletag.DetectedTag, error) {
	t.Detects++
	if !t.present {
		return nil, cabletag.ErrNoTagDetected
	}
	return &cabletag.DetectedTag{
		UID:  append([]byte(nil), t.UID...),
		ATQA: [2]byte{0x00, 0x44},
		SAK:  0x00,
	}, nil
}

// ReadBlock implements cabletag.TagDevice: 16 bytes from 4 consecutive
// pages, zero-filled past the end of memory.
func (t *Tag) ReadBlock(page uint8) ([]byte, error) {
	if !t.present {
		return nil, cabletag.ErrNoTagDetected
	}
	if t.readErr != nil {
		return nil, t.readErr
	}

	block := make([]byte, cabletag.BlockSize)
	for i := 0; i < cabletag.BlockSize/cabletag.PageSize; i++ {
		p := int(page) + i
		if p >= totalPages {
			break
		}
		copy(block[i*cabletag.PageSize:], t.pages[p])
	}
	return block, nil
}

// WritePage implements cabletag.TagDevice.
func (t *Tag) WritePage(page uint8, data []byte) error {
	if !t.present {
		return cabletag.ErrNoTagDetected
	}
	if len(data) != cabletag.PageSize {
		return fmt.Errorf("%w: page data must be %d bytes", cabletag.ErrInvalidParameter, cabletag.PageSize)
	}
	if err, ok := t.writeErrs[page]; ok {
		return err
	}
	if page < userAreaStart || page >= userAreaEnd {
		return fmt.Errorf("%w: page %d is not writable", cabletag.ErrWriteFailed, page)
	}

	copy(t.pages[page], data)
	return nil
}

// EndSession implements cabletag.TagDevice.
func (t *Tag) EndSession() error {
	t.EndSessions++
	return nil
}
