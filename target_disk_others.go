// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package unarchive

import (
	"fmt"
	"runtime"
	"time"
)

// canMaintainSymlinkTimestamps is false, symlink timestamps are left as created.
const canMaintainSymlinkTimestamps = false

// lchtimes is not available on this platform.
func lchtimes(_ string, _, _ time.Time) error {
	return fmt.Errorf("Lchtimes is not supported on this platform (%s)", runtime.GOOS)
}
