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

/*
Package cabletag programs and reads jumper cable end labels on small
NFC tags (NTAG203 / MIFARE Ultralight class) through a PN532 reader.

Each tag holds one fixed-size record: a polarity label (POS or NEG), a
cable end id, and an XOR checksum over the preceding bytes. Records are
chunked into the tag's 4-byte pages starting at the first user-writable
page; reading them back recovers the record and reports checksum
validity without failing on a mismatch.

The reader chip is driven through the Transport interface with I2C and
UART backends under transport/. The two-phase provisioning loop (write
all configured records one tag at a time, then scan and report
indefinitely) lives in the polling package.

Basic Usage:

	import (
	    cabletag "github.com/jumperlabs/go-cabletag"
	    "github.com/jumperlabs/go-cabletag/transport/i2c"
	)

	transport, err := i2c.New("1")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	device, err := cabletag.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	rec := cabletag.Record{Polarity: cabletag.PolarityPositive, ID: 1}
	rec.Seal()
	results := cabletag.WriteRecord(device, rec, cabletag.UserAreaStart)
	for _, failed := range cabletag.Failed(results) {
	    log.Printf("page %d: %v", failed.Page, failed.Err)
	}
*/
package cabletag
