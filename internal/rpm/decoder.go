// SPDX-License-Identifier: EPL-2.0

package rpm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	maxStandardID = 0x7FF
	maxExtendedID = 0x1FFFFFFF

	// CAN FD payloads are at most 64 bytes.
	maxPayload = 64
)

// ByteOrder of the RPM field inside the payload.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}

	return "little"
}

// ParseByteOrder accepts "little"/"le" and "big"/"be".
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "le", "":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	}

	return LittleEndian, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
}

// Frame is a received CAN frame.
type Frame struct {
	ID        uint32
	Extended  bool
	Data      []byte
	Timestamp time.Time
}

// DecoderConfig locates the RPM field in a frame.
type DecoderConfig struct {
	TargetID    uint32
	Offset      int
	Width       int
	Order       ByteOrder
	Scale       float64
	ValueOffset float64
}

// Decoder extracts RPM samples from frames carrying TargetID.
type Decoder struct {
	cfg      DecoderConfig
	extended bool
}

// NewDecoder validates cfg. The target is treated as a 29-bit identifier
// when it does not fit in 11 bits.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if cfg.TargetID > maxExtendedID {
		return nil, fmt.Errorf("%w: 0x%X", ErrInvalidID, cfg.TargetID)
	}
	if cfg.Width < 1 || cfg.Width > 8 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, cfg.Width)
	}
	if cfg.Offset < 0 || cfg.Offset+cfg.Width > maxPayload {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, cfg.Offset)
	}
	if cfg.Scale == 0 || math.IsNaN(cfg.Scale) || math.IsInf(cfg.Scale, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, cfg.Scale)
	}

	return &Decoder{cfg: cfg, extended: cfg.TargetID > maxStandardID}, nil
}

// Extended reports whether the decoder expects 29-bit identifiers.
func (d *Decoder) Extended() bool {
	return d.extended
}

// Matches reports whether f carries the target identifier.
func (d *Decoder) Matches(f Frame) bool {
	return f.ID == d.cfg.TargetID && f.Extended == d.extended
}

// Decode returns the RPM carried by f.
//
// A frame for another identifier yields ok == false and no error. A matching
// frame with a payload too short for the field yields a *DecodeError.
func (d *Decoder) Decode(f Frame) (Sample, bool, error) {
	if !d.Matches(f) {
		return Sample{}, false, nil
	}

	need := d.cfg.Offset + d.cfg.Width
	if len(f.Data) < need {
		return Sample{}, false, &DecodeError{ID: f.ID, Need: need, Got: len(f.Data), Err: ErrShortPayload}
	}

	raw := readUint(f.Data[d.cfg.Offset:need], d.cfg.Order)
	value := float64(raw)*d.cfg.Scale + d.cfg.ValueOffset
	if value < 0 || math.IsNaN(value) {
		value = 0
	}

	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return Sample{Value: value, Timestamp: ts, Source: Live}, true, nil
}

func readUint(b []byte, order ByteOrder) uint64 {
	var buf [8]byte

	if order == BigEndian {
		copy(buf[8-len(b):], b)
		return binary.BigEndian.Uint64(buf[:])
	}

	copy(buf[:], b)

	return binary.LittleEndian.Uint64(buf[:])
}
