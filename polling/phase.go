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

package polling

// Phase is the sequencer's state. The machine moves from PhaseWrite to
// PhaseScan exactly once and never back: provisioning is a one-shot
// pass followed by indefinite read-only monitoring.
type Phase int

const (
	// PhaseWrite provisions the configured records, one tag at a time.
	PhaseWrite Phase = iota
	// PhaseScan reads tags and reports their records indefinitely.
	PhaseScan
)

func (p Phase) String() string {
	switch p {
	case PhaseWrite:
		return "write"
	case PhaseScan:
		return "scan"
	default:
		return "unknown"
	}
}
