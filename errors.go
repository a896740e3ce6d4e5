// SPDX-License-Identifier: EPL-2.0

package dmuffler

import "errors"

var (
	ErrInvalidChannels = errors.New("channel count must be positive")
)
