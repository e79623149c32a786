// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"fmt"
	"io"
	"io/fs"
	"time"
)

// archiveWalker iterates the entries of a container. Next returns io.EOF
// after the last entry.
type archiveWalker interface {
	Type() string
	Next() (archiveEntry, error)
}

// archiveEntry is an entry of a container.
type archiveEntry interface {
	AccessTime() time.Time
	IsDir() bool
	IsHardLink() bool
	IsRegular() bool
	IsSymlink() bool
	Linkname() (string, error)
	Mode() fs.FileMode
	ModTime() time.Time
	Name() string
	Open() (io.ReadCloser, error)
	Size() int64
}

// readLinkname reads the link target of zip and 7z symlinks, which store it as
// the entry content.
func readLinkname(open func() (io.ReadCloser, error), size int64) (string, error) {
	// link targets are short, a larger entry is not a symlink we can handle
	const maxLinkname = 4096
	if size > maxLinkname {
		return "", fmt.Errorf("link target too long (%d bytes)", size)
	}

	rc, err := open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxLinkname))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
