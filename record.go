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
	"bytes"
	"fmt"
)

// Polarity identifies which side of a jumper cable a tag labels.
type Polarity string

// Polarity values as stored on the tag.
const (
	PolarityPositive Polarity = "POS"
	PolarityNegative Polarity = "NEG"
)

// Record layout constants
const (
	// PolarityLabelSize is the fixed on-tag width of the polarity label.
	// Shorter labels are NUL-padded.
	PolarityLabelSize = 4

	// RecordSize is the serialized length of a Record: label + id + checksum.
	RecordSize = PolarityLabelSize + 2

	// PageSize is the addressable write unit of NTAG203/Ultralight memory.
	PageSize = 4
)

// Record is the payload stored on one tag: a cable end's polarity and
// id, followed by an XOR checksum over the preceding serialized bytes.
// The tag itself is the only durable store; a Record in memory lives
// for one write or one read cycle.
type Record struct {
	Polarity Polarity
	ID       uint8
	Checksum uint8
}

// IsKnownPolarity reports whether the record carries one of the
// enumerated polarity labels. Records read from foreign tags may not.
func (r Record) IsKnownPolarity() bool {
	return r.Polarity == PolarityPositive || r.Polarity == PolarityNegative
}

// String returns the operator-facing form, e.g. "POS-1".
func (r Record) String() string {
	return fmt.Sprintf("%s-%d", r.Polarity, r.ID)
}

// Serialize packs the record into its fixed on-tag layout. It always
// succeeds; labels longer than the field are truncated.
func (r Record) Serialize() [RecordSize]byte {
	var buf [RecordSize]byte
	copy(buf[:PolarityLabelSize], r.Polarity)
	buf[PolarityLabelSize] = r.ID
	buf[PolarityLabelSize+1] = r.Checksum
	return buf
}

// Seal computes the checksum over the record's serialized non-checksum
// bytes and stores it. Call once, just before writing.
func (r *Record) Seal() {
	buf := r.Serialize()
	r.Checksum = Checksum(buf[:RecordSize-1])
}

// Valid reports whether the stored checksum matches the record's
// serialized bytes. Pure, no side effects.
func (r Record) Valid() bool {
	buf := r.Serialize()
	return Checksum(buf[:RecordSize-1]) == r.Checksum
}

// Checksum XOR-reduces data to a single byte. Not cryptographic; it
// exists to catch corrupted or non-conforming tags.
func Checksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// ValidateBytes reports whether a serialized record's trailing checksum
// byte equals the XOR reduction of the bytes before it. Input beyond
// RecordSize is ignored; input shorter than RecordSize is invalid.
func ValidateBytes(data []byte) bool {
	if len(data) < RecordSize {
		return false
	}
	return Checksum(data[:RecordSize-1]) == data[RecordSize-1]
}

// DeserializeRecord reconstructs a Record from raw tag bytes. Extra
// bytes past RecordSize are ignored. It does not validate the checksum;
// use ValidateBytes or Record.Valid for that.
func DeserializeRecord(data []byte) (Record, error) {
	if len(data) < RecordSize {
		return Record{}, fmt.Errorf("%w: got %d bytes, need %d",
			ErrRecordTruncated, len(data), RecordSize)
	}

	label := data[:PolarityLabelSize]
	if i := bytes.IndexByte(label, 0x00); i >= 0 {
		label = label[:i]
	}

	return Record{
		Polarity: Polarity(label),
		ID:       data[PolarityLabelSize],
		Checksum: data[PolarityLabelSize+1],
	}, nil
}
