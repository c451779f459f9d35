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
	"fmt"
)

// TagDevice is the reader surface consumed by the page I/O and
// sequencing layers. *Device implements it against real hardware;
// tests substitute a virtual tag.
type TagDevice interface {
	Init() error
	DetectTag() (*DetectedTag, error)
	ReadBlock(page uint8) ([]byte, error)
	WritePage(page uint8, data []byte) error
	EndSession() error
}

const (
	// BlockSize is the number of bytes a single block read returns:
	// four consecutive pages.
	BlockSize = 4 * PageSize

	// UserAreaStart is the first user-writable page on NTAG203 class
	// tags. Pages 0-3 hold UID, lock bytes and the capability
	// container.
	UserAreaStart uint8 = 4

	// RecordPages is the number of consecutive pages one serialized
	// record occupies.
	RecordPages = (RecordSize + PageSize - 1) / PageSize
)

// WriteResult reports the outcome of a single page write.
type WriteResult struct {
	Err  error
	Page uint8
}

// Failed returns the subset of results whose page write failed.
func Failed(results []WriteResult) []WriteResult {
	var failed []WriteResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// WriteRecord serializes rec and writes it to consecutive pages
// starting at startPage, zero-padding the final page. A failed page is
// recorded in the result slice and the remaining pages are still
// written; page failures are independent and non-fatal. The caller
// decides whether a partial write is acceptable.
func WriteRecord(dev TagDevice, rec Record, startPage uint8) []WriteResult {
	serialized := rec.Serialize()
	return WriteBytes(dev, serialized[:], startPage)
}

// WriteBytes chunks data into zero-padded pages and writes them
// sequentially. It issues exactly ceil(len(data)/PageSize) page writes.
func WriteBytes(dev TagDevice, data []byte, startPage uint8) []WriteResult {
	totalPages := (len(data) + PageSize - 1) / PageSize
	results := make([]WriteResult, 0, totalPages)

	for i := 0; i < totalPages; i++ {
		page := make([]byte, PageSize)
		copy(page, data[i*PageSize:min((i+1)*PageSize, len(data))])

		pageNum := startPage + uint8(i)
		err := dev.WritePage(pageNum, page)
		if err != nil {
			err = fmt.Errorf("%w: page %d: %w", ErrWriteFailed, pageNum, err)
			debugf("write page %d failed: %v", pageNum, err)
		}
		results = append(results, WriteResult{Page: pageNum, Err: err})
	}

	return results
}

// ReadRecord reads one block from the tag starting at startPage and
// reconstructs the record stored there. A checksum mismatch is
// reported through valid, not err: the decoded record is still
// surfaced so the operator can see what a corrupted tag holds. The tag
// session is ended afterward regardless of outcome.
func ReadRecord(dev TagDevice, startPage uint8) (rec Record, valid bool, err error) {
	defer func() {
		if endErr := dev.EndSession(); endErr != nil {
			debugf("end session: %v", endErr)
		}
	}()

	block, err := dev.ReadBlock(startPage)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if len(block) < RecordSize {
		return Record{}, false, fmt.Errorf("%w: block read returned %d bytes",
			ErrReadFailed, len(block))
	}

	raw := block[:RecordSize]
	rec, err = DeserializeRecord(raw)
	if err != nil {
		return Record{}, false, err
	}

	return rec, ValidateBytes(raw), nil
}
