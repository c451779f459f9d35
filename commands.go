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

// PN532 command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSamConfiguration    = 0x14
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// SAMConfiguration modes
const (
	samModeNormal = 0x01
)

// InListPassiveTarget baud rate / modulation selectors
const (
	brTy106kbpsTypeA = 0x00
)

// MIFARE Ultralight / NTAG native commands, tunneled through
// InDataExchange. READ returns 16 bytes (4 pages); WRITE takes one
// 4-byte page.
const (
	ultralightCmdRead  = 0x30
	ultralightCmdWrite = 0xA2
)
