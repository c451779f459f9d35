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
	"strconv"
	"strings"

	ndef "github.com/hsanjuan/go-ndef"
)

// NDEF is an alternative tag encoding: the cable record rendered as an
// NDEF text payload ("POS-1") so stock phone apps can read provisioned
// tags. The text form carries no checksum byte of its own; integrity
// comes from re-parsing against the closed polarity/id domain.

// TLV tags framing an NDEF message in Ultralight user memory.
const (
	tlvNDEFMessage = 0x03
	tlvTerminator  = 0xFE
)

// ndefLanguage is the IANA language code used for text payloads.
const ndefLanguage = "en"

// NDEFMessage renders rec as a one-record NDEF text message.
func NDEFMessage(rec Record) *ndef.Message {
	return ndef.NewTextMessage(rec.String(), ndefLanguage)
}

// ParseRecordText recovers a Record from the text form written by
// NDEFMessage. The checksum is recomputed, since the NDEF mirror does
// not store one.
func ParseRecordText(text string) (Record, error) {
	label, idStr, ok := strings.Cut(strings.TrimSpace(text), "-")
	if !ok {
		return Record{}, fmt.Errorf("%w: %q is not a cable record", ErrNoNDEF, text)
	}

	var rec Record
	switch Polarity(label) {
	case PolarityPositive, PolarityNegative:
		rec.Polarity = Polarity(label)
	default:
		return Record{}, fmt.Errorf("%w: unknown polarity %q", ErrNoNDEF, label)
	}

	id, err := strconv.ParseUint(idStr, 10, 8)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad id %q", ErrNoNDEF, idStr)
	}
	rec.ID = uint8(id)

	rec.Seal()
	return rec, nil
}

// WriteNDEFRecord writes rec as a TLV-wrapped NDEF message starting at
// startPage. Page failures are reported the same way WriteRecord
// reports them.
func WriteNDEFRecord(dev TagDevice, rec Record, startPage uint8) ([]WriteResult, error) {
	payload, err := NDEFMessage(rec).Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal NDEF message: %w", err)
	}
	if len(payload) > 0xFE {
		// Long-form TLV lengths never occur for a 5-character text.
		return nil, fmt.Errorf("%w: NDEF message is %d bytes", ErrDataTooLarge, len(payload))
	}

	tlv := make([]byte, 0, len(payload)+3)
	tlv = append(tlv, tlvNDEFMessage, byte(len(payload)))
	tlv = append(tlv, payload...)
	tlv = append(tlv, tlvTerminator)

	return WriteBytes(dev, tlv, startPage), nil
}

// ReadNDEFRecord reads back a tag written by WriteNDEFRecord. The bool
// mirrors ReadRecord's validity outcome: a payload that parses as a
// known cable record is valid, anything else is surfaced as invalid
// without failing the scan. The tag session is ended afterward.
func ReadNDEFRecord(dev TagDevice, startPage uint8) (rec Record, valid bool, err error) {
	defer func() {
		if endErr := dev.EndSession(); endErr != nil {
			debugf("end session: %v", endErr)
		}
	}()

	// Two block reads cover 32 bytes, more than the largest message
	// this firmware writes.
	data := make([]byte, 0, 2*BlockSize)
	for i := 0; i < 2; i++ {
		block, readErr := dev.ReadBlock(startPage + uint8(i*BlockSize/PageSize))
		if readErr != nil {
			return Record{}, false, fmt.Errorf("%w: %w", ErrReadFailed, readErr)
		}
		data = append(data, block...)
	}

	payload := extractNDEFPayload(data)
	if payload == nil {
		return Record{}, false, ErrNoNDEF
	}

	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(payload); err != nil {
		return Record{}, false, fmt.Errorf("%w: %w", ErrNoNDEF, err)
	}

	rec, err = ParseRecordText(msg.String())
	if err != nil {
		debugf("NDEF payload did not parse as a cable record: %v", err)
		return Record{}, false, nil
	}
	return rec, true, nil
}

// extractNDEFPayload walks the TLV structure in tag user memory and
// returns the first NDEF message payload, or nil if none is present.
func extractNDEFPayload(data []byte) []byte {
	for i := 0; i < len(data)-1; i++ {
		switch data[i] {
		case tlvNDEFMessage:
			length := int(data[i+1])
			if i+2+length > len(data) {
				return nil
			}
			return data[i+2 : i+2+length]
		case tlvTerminator:
			return nil
		}
	}
	return nil
}
