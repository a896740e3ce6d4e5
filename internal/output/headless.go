// SPDX-License-Identifier: EPL-2.0

//go:build headless

package output

import (
	"fmt"

	"github.com/ik5/dmuffler/internal/render"
)

// OpenOto is unavailable in headless builds.
func OpenOto(_ *render.Engine, _ int) (Stream, error) {
	return nil, fmt.Errorf("%w: built without audio support", ErrDeviceUnavailable)
}
