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

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cabletag "github.com/jumperlabs/go-cabletag"
	"github.com/jumperlabs/go-cabletag/internal/virtualtag"
)

// instantSleep reinserts the tag on every poll tick so waitForTag
// never spins, and never blocks on real time.
func instantSleep(tag *virtualtag.Tag) SleepFunc {
	return func(ctx context.Context, _ time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tag.Insert()
		return nil
	}
}

type scanResult struct {
	rec   cabletag.Record
	valid bool
}

func TestSequencerWriteThenScan(t *testing.T) {
	t.Parallel()

	tag := virtualtag.NewNTAG203(nil)
	config := DefaultConfig()
	config.Sleep = instantSleep(tag)

	seq := NewSequencer(tag, config)

	var phases []Phase
	seq.OnPhaseChange = func(p Phase) { phases = append(phases, p) }

	var written []cabletag.Record
	var provisioned [][]byte
	seq.OnRecordWritten = func(rec cabletag.Record, results []cabletag.WriteResult) {
		require.Empty(t, cabletag.Failed(results))
		written = append(written, rec)
		// Snapshot the record bytes before the operator pulls the tag.
		snapshot := append(tag.Page(4), tag.Page(5)...)
		provisioned = append(provisioned, snapshot)
		tag.Remove()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scans []scanResult
	seq.OnTagScanned = func(rec cabletag.Record, valid bool) {
		scans = append(scans, scanResult{rec: rec, valid: valid})
		tag.Remove()
		cancel()
	}

	err := seq.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// All four predefined records provisioned, in order, sealed.
	require.Len(t, written, 4)
	assert.Equal(t, "POS-1", written[0].String())
	assert.Equal(t, "POS-2", written[1].String())
	assert.Equal(t, "NEG-3", written[2].String())
	assert.Equal(t, "NEG-4", written[3].String())
	for i, snapshot := range provisioned {
		rec, err := cabletag.DeserializeRecord(snapshot)
		require.NoError(t, err)
		assert.Equal(t, written[i], rec, "tag %d contents", i)
		assert.True(t, cabletag.ValidateBytes(snapshot))
	}

	// One-way phase transition, then the last record scans back valid.
	assert.Equal(t, []Phase{PhaseWrite, PhaseScan}, phases)
	assert.Equal(t, PhaseScan, seq.Phase())
	require.Len(t, scans, 1)
	assert.Equal(t, "NEG-4", scans[0].rec.String())
	assert.True(t, scans[0].valid)
}

func TestSequencerScanReportsCorruptedTag(t *testing.T) {
	t.Parallel()

	tag := virtualtag.NewNTAG203(nil)

	rec := cabletag.Record{Polarity: cabletag.PolarityPositive, ID: 1}
	rec.Seal()
	require.Empty(t, cabletag.Failed(cabletag.WriteRecord(tag, rec, cabletag.UserAreaStart)))
	// Flip one bit of the id byte without touching the checksum.
	tag.Corrupt(5, 0, 0x02)

	config := DefaultConfig()
	config.Records = nil // scan only
	config.Sleep = instantSleep(tag)

	seq := NewSequencer(tag, config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scans []scanResult
	seq.OnTagScanned = func(got cabletag.Record, valid bool) {
		scans = append(scans, scanResult{rec: got, valid: valid})
		tag.Remove()
		cancel()
	}

	require.ErrorIs(t, seq.Run(ctx), context.Canceled)

	require.Len(t, scans, 1)
	assert.False(t, scans[0].valid, "corrupted record must scan as invalid")
	// The wrong decoded values are still reported.
	assert.Equal(t, uint8(3), scans[0].rec.ID)
	assert.Equal(t, cabletag.PolarityPositive, scans[0].rec.Polarity)
}

func TestSequencerScanPhaseIdlesWithoutTag(t *testing.T) {
	t.Parallel()

	tag := virtualtag.NewNTAG203(nil)
	tag.Remove()

	config := DefaultConfig()
	config.Records = nil

	// Count idle ticks; the loop must keep polling, not block or read.
	ticks := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	config.Sleep = func(context.Context, time.Duration) error {
		ticks++
		if ticks >= 5 {
			cancel()
			return context.Canceled
		}
		return nil
	}

	seq := NewSequencer(tag, config)
	scanned := false
	seq.OnTagScanned = func(cabletag.Record, bool) { scanned = true }

	require.ErrorIs(t, seq.Run(ctx), context.Canceled)
	assert.False(t, scanned, "no tag present, nothing to scan")
	assert.Equal(t, 5, ticks)
	assert.GreaterOrEqual(t, tag.Detects, 5)
}

func TestSequencerReportsWriteFailuresAndContinues(t *testing.T) {
	t.Parallel()

	tag := virtualtag.NewNTAG203(nil)
	tag.FailWritesTo(4, cabletag.ErrTransportWrite)

	config := DefaultConfig()
	config.Records = DefaultRecords()[:1]
	config.Sleep = instantSleep(tag)

	seq := NewSequencer(tag, config)

	var failedPages []uint8
	seq.OnRecordWritten = func(_ cabletag.Record, results []cabletag.WriteResult) {
		for _, r := range cabletag.Failed(results) {
			failedPages = append(failedPages, r.Page)
		}
		tag.Remove()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq.OnTagScanned = func(cabletag.Record, bool) {
		tag.Remove()
		cancel()
	}

	require.ErrorIs(t, seq.Run(ctx), context.Canceled)

	// Page 4 failed, page 5 was still written, and the sequencer
	// reached the scan phase anyway.
	assert.Equal(t, []uint8{4}, failedPages)
	assert.Equal(t, PhaseScan, seq.Phase())
}

func TestSequencerNDEFEncoding(t *testing.T) {
	t.Parallel()

	tag := virtualtag.NewNTAG203(nil)
	config := DefaultConfig()
	config.Records = DefaultRecords()[:1]
	config.Sleep = instantSleep(tag)
	config.Write = func(dev cabletag.TagDevice, rec cabletag.Record, startPage uint8) []cabletag.WriteResult {
		results, err := cabletag.WriteNDEFRecord(dev, rec, startPage)
		require.NoError(t, err)
		return results
	}
	config.Read = cabletag.ReadNDEFRecord

	seq := NewSequencer(tag, config)
	seq.OnRecordWritten = func(cabletag.Record, []cabletag.WriteResult) { tag.Remove() }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scans []scanResult
	seq.OnTagScanned = func(rec cabletag.Record, valid bool) {
		scans = append(scans, scanResult{rec: rec, valid: valid})
		tag.Remove()
		cancel()
	}

	require.ErrorIs(t, seq.Run(ctx), context.Canceled)
	require.Len(t, scans, 1)
	assert.True(t, scans[0].valid)
	assert.Equal(t, "POS-1", scans[0].rec.String())
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "write", PhaseWrite.String())
	assert.Equal(t, "scan", PhaseScan.String())
	assert.Equal(t, "unknown", Phase(99).String())
}
