// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package unarchive

// isCrossDevice is not detected on this platform, the rename error is reported as is.
func isCrossDevice(error) bool {
	return false
}
