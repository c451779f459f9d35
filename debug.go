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
	"os"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetDebugEnabled toggles debug output on stderr. Operator-facing
// status lines are the caller's concern; this stream is for protocol
// and state diagnostics only.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether debug output is active.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

func debugf(format string, args ...any) {
	if debugEnabled.Load() {
		_, _ = fmt.Fprintf(os.Stderr, "[cabletag] "+format+"\n", args...)
	}
}

func debugln(args ...any) {
	if debugEnabled.Load() {
		_, _ = fmt.Fprintln(os.Stderr, append([]any{"[cabletag]"}, args...)...)
	}
}
