// SPDX-License-Identifier: EPL-2.0

package rpm

import (
	"errors"
	"fmt"
)

var (
	ErrShortPayload   = errors.New("frame payload shorter than the configured field")
	ErrInvalidWidth   = errors.New("field width must be between 1 and 8 bytes")
	ErrInvalidOffset  = errors.New("field offset out of range")
	ErrInvalidID      = errors.New("identifier exceeds 29 bits")
	ErrInvalidScale   = errors.New("scale must be a finite non-zero number")
	ErrInvalidOrder   = errors.New("unknown byte order")
	ErrInvalidRange   = errors.New("rpm range must satisfy 0 <= min < max")
	ErrBusUnavailable = errors.New("can bus unavailable")
	ErrNoFrame        = errors.New("no frame within the receive window")
)

// DecodeError reports a frame that matched the target identifier but could
// not be decoded.
type DecodeError struct {
	ID   uint32
	Need int
	Got  int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rpm frame 0x%X: need %d bytes, got %d: %v", e.ID, e.Need, e.Got, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
