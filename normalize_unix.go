// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build unix

package unarchive

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isCrossDevice reports whether err is a rename failure across filesystems.
func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
