// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build unix

package unarchive

import (
	"time"

	"golang.org/x/sys/unix"
)

// canMaintainSymlinkTimestamps is true if the timestamps of a symlink itself
// can be set. os.Chtimes follows symlinks.
const canMaintainSymlinkTimestamps = true

// lchtimes modifies the access and modified timestamps of path without
// following a final symlink.
func lchtimes(path string, atime, mtime time.Time) error {
	return unix.Lutimes(path, []unix.Timeval{
		unixTimeval(atime),
		unixTimeval(mtime),
	})
}

// unixTimeval converts a time.Time to a unix.Timeval, rounded up to the
// next microsecond.
func unixTimeval(t time.Time) unix.Timeval {
	return unix.NsecToTimeval(t.UnixNano())
}
