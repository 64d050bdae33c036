// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Configuration errors (a user-supplied limit was violated) have kind
// errors.Invalid.  Malformed reads (e.g. base and quality counts differ) have
// kind errors.Integrity.

func configErrorf(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf(format, args...))
}

func malformedReadf(format string, args ...interface{}) error {
	return errors.E(errors.Integrity, fmt.Sprintf(format, args...))
}

// IsConfigError reports whether err was caused by settings that the read
// violates, such as a read longer than Opts.MaximumCycleValue.
func IsConfigError(err error) bool {
	return err != nil && errors.Is(errors.Invalid, err)
}

// IsMalformedRead reports whether err was caused by a read that violates a
// structural invariant.
func IsMalformedRead(err error) bool {
	return err != nil && errors.Is(errors.Integrity, err)
}

func storageErrorf(format string, args ...interface{}) error {
	return errors.E(errors.Precondition, fmt.Sprintf(format, args...))
}
