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

// Package polling drives the two-phase tag provisioning loop: write
// each configured record to a freshly presented tag, then scan tags
// and report their records until canceled.
package polling

import (
	"context"
	"errors"
	"time"

	cabletag "github.com/jumperlabs/go-cabletag"
)

// WriteFunc writes a record to the tag currently in the field.
type WriteFunc func(dev cabletag.TagDevice, rec cabletag.Record, startPage uint8) []cabletag.WriteResult

// ReadFunc reads a record back from the tag currently in the field.
type ReadFunc func(dev cabletag.TagDevice, startPage uint8) (cabletag.Record, bool, error)

// SleepFunc blocks for d or until ctx is done. Injectable so tests run
// without real timing.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds sequencer configuration.
type Config struct {
	// Write and Read select the tag encoding. Defaults to the raw
	// record codec; swap both for the NDEF mirror encoding.
	Write WriteFunc
	Read  ReadFunc

	// Sleep is the blocking delay between presence polls.
	Sleep SleepFunc

	// Records is the ordered provisioning table for the write phase.
	// An empty table skips straight to the scan phase.
	Records []cabletag.Record

	// PollInterval is the fixed presence-poll delay.
	PollInterval time.Duration

	// StartPage is the first tag page a record occupies.
	StartPage uint8
}

// DefaultConfig returns the reference configuration: four records,
// 50ms polling, records starting at the first user-writable page.
func DefaultConfig() *Config {
	return &Config{
		Records:      DefaultRecords(),
		PollInterval: 50 * time.Millisecond,
		StartPage:    cabletag.UserAreaStart,
	}
}

// DefaultRecords returns the reference provisioning table: two
// positive and two negative cable ends.
func DefaultRecords() []cabletag.Record {
	return []cabletag.Record{
		{Polarity: cabletag.PolarityPositive, ID: 1},
		{Polarity: cabletag.PolarityPositive, ID: 2},
		{Polarity: cabletag.PolarityNegative, ID: 3},
		{Polarity: cabletag.PolarityNegative, ID: 4},
	}
}

// Sequencer owns the provisioning state machine. It is single-threaded
// and cooperative: all tag presence checks and transfers are blocking
// calls into the reader, paced by the configured poll interval. An
// absent tag blocks until the context is canceled; the device is
// operated by a human who supplies the next tag.
//
// Callback fields must be set before Run and are invoked from Run's
// goroutine.
type Sequencer struct {
	device cabletag.TagDevice
	config *Config

	// OnPhaseChange fires when the sequencer enters a new phase.
	OnPhaseChange func(Phase)
	// OnTagDetected fires when a tag enters the field.
	OnTagDetected func(*cabletag.DetectedTag)
	// OnRecordWritten fires after a write attempt, failed pages included.
	OnRecordWritten func(cabletag.Record, []cabletag.WriteResult)
	// OnTagScanned fires after a scan-phase read with the decoded
	// record and its checksum validity.
	OnTagScanned func(cabletag.Record, bool)
	// OnError fires for non-fatal errors; the loop always continues.
	OnError func(error)

	phase Phase
}

// NewSequencer creates a sequencer for the given reader. A nil config
// uses DefaultConfig.
func NewSequencer(device cabletag.TagDevice, config *Config) *Sequencer {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Write == nil {
		config.Write = cabletag.WriteRecord
	}
	if config.Read == nil {
		config.Read = cabletag.ReadRecord
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 50 * time.Millisecond
	}

	return &Sequencer{
		device: device,
		config: config,
		phase:  PhaseWrite,
	}
}

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase {
	return s.phase
}

// Run executes the write phase, transitions to the scan phase, and
// scans until ctx is canceled. The only error Run returns is ctx's.
func (s *Sequencer) Run(ctx context.Context) error {
	s.setPhase(PhaseWrite)

	if err := s.runWritePhase(ctx); err != nil {
		return err
	}

	s.setPhase(PhaseScan)
	return s.runScanPhase(ctx)
}

func (s *Sequencer) setPhase(phase Phase) {
	s.phase = phase
	if s.OnPhaseChange != nil {
		s.OnPhaseChange(phase)
	}
}

// runWritePhase writes each configured record to its own tag. Write
// failures are reported and the sequence moves on; the operator
// re-presents a tag to try again.
func (s *Sequencer) runWritePhase(ctx context.Context) error {
	for _, rec := range s.config.Records {
		rec.Seal()

		tag, err := s.waitForTag(ctx)
		if err != nil {
			return err
		}
		if s.OnTagDetected != nil {
			s.OnTagDetected(tag)
		}

		results := s.config.Write(s.device, rec, s.config.StartPage)
		if endErr := s.device.EndSession(); endErr != nil {
			s.reportError(endErr)
		}
		if s.OnRecordWritten != nil {
			s.OnRecordWritten(rec, results)
		}

		if err := s.waitForRemoval(ctx); err != nil {
			return err
		}
	}
	return nil
}

// runScanPhase polls for tags and reports their records. A poll with
// no tag present is a no-op tick. Waiting for removal after each read
// prevents re-reading the same physically present tag.
func (s *Sequencer) runScanPhase(ctx context.Context) error {
	for {
		tag, err := s.device.DetectTag()
		if err != nil {
			if !errors.Is(err, cabletag.ErrNoTagDetected) {
				s.reportError(err)
			}
			if err := s.config.Sleep(ctx, s.config.PollInterval); err != nil {
				return err
			}
			continue
		}

		if s.OnTagDetected != nil {
			s.OnTagDetected(tag)
		}

		rec, valid, err := s.config.Read(s.device, s.config.StartPage)
		if err != nil {
			// The scan attempt is abandoned; the loop keeps scanning.
			s.reportError(err)
		} else if s.OnTagScanned != nil {
			s.OnTagScanned(rec, valid)
		}

		if err := s.waitForRemoval(ctx); err != nil {
			return err
		}
	}
}

// waitForTag busy-polls at the configured interval until a tag enters
// the field. No timeout: an absent tag blocks until ctx is canceled.
func (s *Sequencer) waitForTag(ctx context.Context) (*cabletag.DetectedTag, error) {
	for {
		tag, err := s.device.DetectTag()
		if err == nil {
			return tag, nil
		}
		if !errors.Is(err, cabletag.ErrNoTagDetected) {
			s.reportError(err)
		}
		if err := s.config.Sleep(ctx, s.config.PollInterval); err != nil {
			return nil, err
		}
	}
}

// waitForRemoval busy-polls until the field is empty. While the tag is
// still present each probe re-selects it, so the session is ended
// again before the next poll.
func (s *Sequencer) waitForRemoval(ctx context.Context) error {
	for {
		_, err := s.device.DetectTag()
		switch {
		case errors.Is(err, cabletag.ErrNoTagDetected):
			return nil
		case err != nil:
			s.reportError(err)
		default:
			if endErr := s.device.EndSession(); endErr != nil {
				s.reportError(endErr)
			}
		}

		if err := s.config.Sleep(ctx, s.config.PollInterval); err != nil {
			return err
		}
	}
}

func (s *Sequencer) reportError(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

// sleepContext is the default SleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
