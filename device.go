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
	"encoding/hex"
	"fmt"
	"time"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Timeout is the default timeout for transport operations
	Timeout time.Duration
	// StartupDelay is slept after Init to let the RF field settle
	StartupDelay time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Timeout:      1 * time.Second,
		StartupDelay: 10 * time.Millisecond,
	}
}

// DetectedTag describes a tag found in the reader's RF field.
type DetectedTag struct {
	UID  []byte
	ATQA [2]byte
	SAK  byte
}

// UIDString returns the tag UID as a lowercase hex string.
func (t *DetectedTag) UIDString() string {
	return hex.EncodeToString(t.UID)
}

// IsUltralight reports whether the tag identifies as NTAG/Ultralight
// class. SAK 0x00 with ATQA 0x0044 is the NTAG20x/21x signature; a bare
// SAK 0x00 is accepted too since clone tags often report ATQA 0x0000.
func (t *DetectedTag) IsUltralight() bool {
	return t.SAK == 0x00
}

// FirmwareVersion describes the reader chip firmware.
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

func (v *FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02X v%d.%d", v.IC, v.Version, v.Revision)
}

// Device represents a PN532 NFC reader attached over a Transport.
//
// Device is NOT thread-safe. The provisioning loop is single-threaded
// by design; wrap with external synchronization for anything else.
type Device struct {
	transport Transport
	config    *DeviceConfig
}

// New creates a new reader device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the default timeout for operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// Init brings up the reader chip: configures the SAM for normal
// operation so the PN532 handles ISO14443A framing itself.
func (d *Device) Init() error {
	// mode, timeout (x50ms), no IRQ pin
	resp, err := d.transport.SendCommand(cmdSamConfiguration, []byte{samModeNormal, 0x14, 0x00})
	if err != nil {
		return fmt.Errorf("SAMConfiguration failed: %w", err)
	}
	if len(resp) < 1 || resp[0] != cmdSamConfiguration+1 {
		return fmt.Errorf("%w: unexpected SAMConfiguration response", ErrCommunicationFailed)
	}

	if d.config.StartupDelay > 0 {
		time.Sleep(d.config.StartupDelay)
	}

	debugln("reader initialized")
	return nil
}

// GetFirmwareVersion queries the reader chip firmware.
func (d *Device) GetFirmwareVersion() (*FirmwareVersion, error) {
	resp, err := d.transport.SendCommand(cmdGetFirmwareVersion, nil)
	if err != nil {
		return nil, fmt.Errorf("GetFirmwareVersion failed: %w", err)
	}
	// Response: 0x03, IC, Ver, Rev, Support
	if len(resp) < 5 || resp[0] != cmdGetFirmwareVersion+1 {
		return nil, fmt.Errorf("%w: GetFirmwareVersion response too short", ErrCommunicationFailed)
	}
	return &FirmwareVersion{
		IC:       resp[1],
		Version:  resp[2],
		Revision: resp[3],
		Support:  resp[4],
	}, nil
}

// DetectTag polls once for an ISO14443A tag and selects it. Returns
// ErrNoTagDetected when the field is empty; the caller's polling loop
// decides how long to keep asking.
func (d *Device) DetectTag() (*DetectedTag, error) {
	// MaxTg=1: a single tag in the field at a time is a physical
	// constraint of this device.
	resp, err := d.transport.SendCommand(cmdInListPassiveTarget, []byte{0x01, brTy106kbpsTypeA})
	if err != nil {
		return nil, fmt.Errorf("InListPassiveTarget failed: %w", err)
	}

	return parseListPassiveTarget(resp)
}

// parseListPassiveTarget decodes an InListPassiveTarget response:
// 0x4B, NbTg, Tg, ATQA[2], SAK, NFCIDLen, NFCID...
func parseListPassiveTarget(resp []byte) (*DetectedTag, error) {
	if len(resp) < 2 || resp[0] != cmdInListPassiveTarget+1 {
		return nil, fmt.Errorf("%w: unexpected InListPassiveTarget response", ErrCommunicationFailed)
	}
	if resp[1] == 0 {
		return nil, ErrNoTagDetected
	}
	if len(resp) < 7 {
		return nil, fmt.Errorf("%w: target data truncated", ErrCommunicationFailed)
	}

	uidLen := int(resp[6])
	if len(resp) < 7+uidLen {
		return nil, fmt.Errorf("%w: UID truncated", ErrCommunicationFailed)
	}

	tag := &DetectedTag{
		ATQA: [2]byte{resp[3], resp[4]},
		SAK:  resp[5],
		UID:  append([]byte(nil), resp[7:7+uidLen]...),
	}

	debugf("detected tag uid=%s atqa=%02X%02X sak=%02X",
		tag.UIDString(), tag.ATQA[0], tag.ATQA[1], tag.SAK)
	return tag, nil
}

// ReadBlock reads 16 bytes (4 consecutive pages) starting at page.
func (d *Device) ReadBlock(page uint8) ([]byte, error) {
	resp, err := d.transport.SendCommand(cmdInDataExchange,
		[]byte{0x01, ultralightCmdRead, page})
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", page, err)
	}

	if err := checkDataExchange(resp); err != nil {
		return nil, fmt.Errorf("read block %d: %w", page, err)
	}
	if len(resp) < 2+BlockSize {
		return nil, fmt.Errorf("read block %d: %w: got %d data bytes",
			page, ErrCommunicationFailed, len(resp)-2)
	}

	return resp[2 : 2+BlockSize], nil
}

// WritePage writes one 4-byte page.
func (d *Device) WritePage(page uint8, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("%w: page data must be %d bytes, got %d",
			ErrInvalidParameter, PageSize, len(data))
	}

	args := make([]byte, 0, 3+PageSize)
	args = append(args, 0x01, ultralightCmdWrite, page)
	args = append(args, data...)

	resp, err := d.transport.SendCommand(cmdInDataExchange, args)
	if err != nil {
		return fmt.Errorf("write page %d: %w", page, err)
	}
	if err := checkDataExchange(resp); err != nil {
		return fmt.Errorf("write page %d: %w", page, err)
	}
	return nil
}

// EndSession releases the selected tag, halting it and clearing any
// active authentication state on the reader.
func (d *Device) EndSession() error {
	// Tg=0x00 releases all targets
	resp, err := d.transport.SendCommand(cmdInRelease, []byte{0x00})
	if err != nil {
		return fmt.Errorf("InRelease failed: %w", err)
	}
	if len(resp) < 2 || resp[0] != cmdInRelease+1 || resp[1] != 0x00 {
		return fmt.Errorf("%w: InRelease status", ErrCommunicationFailed)
	}
	return nil
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// checkDataExchange validates an InDataExchange response header.
func checkDataExchange(resp []byte) error {
	if len(resp) < 2 || resp[0] != cmdInDataExchange+1 {
		return fmt.Errorf("%w: unexpected InDataExchange response", ErrCommunicationFailed)
	}
	if status := resp[1] & 0x3F; status != 0x00 {
		return fmt.Errorf("%w: status %02X", ErrCommunicationFailed, status)
	}
	return nil
}
