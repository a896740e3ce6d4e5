// SPDX-License-Identifier: EPL-2.0

package soundbank

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCatalog       = errors.New("sound catalog is empty")
	ErrDuplicateThreshold = errors.New("duplicate rpm threshold")
	ErrInvalidThreshold   = errors.New("rpm threshold must be a finite non-negative number")
	ErrAssetMissing       = errors.New("sound asset missing")
	ErrAssetUndecodable   = errors.New("sound asset undecodable")
	ErrInvalidFormat      = errors.New("stream format must have a positive rate and 1 or 2 channels")
)

// AssetError names every catalog file that could not be used.
type AssetError struct {
	Err    error
	Paths  []string
	Causes []error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Paths, ", "))
}

func (e *AssetError) Unwrap() []error {
	return append([]error{e.Err}, e.Causes...)
}
