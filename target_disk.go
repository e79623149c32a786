// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// TargetDisk is the [Target] that writes to the local filesystem.
type TargetDisk struct{}

// NewTargetDisk creates a new TargetDisk.
func NewTargetDisk() *TargetDisk {
	return &TargetDisk{}
}

// CreateDir creates a directory at the specified path with the specified mode. If the directory already
// exists, nothing is done.
func (d *TargetDisk) CreateDir(path string, mode fs.FileMode) error {
	if err := os.MkdirAll(path, mode.Perm()); err != nil {
		return fmt.Errorf("failed to create directory (%w)", err)
	}
	return nil
}

// CreateFile creates a file at the specified path with src as content. An existing file is
// truncated if overwrite is true. At most maxSize bytes are written, unless maxSize < 0.
func (d *TargetDisk) CreateFile(path string, src io.Reader, mode fs.FileMode, overwrite bool, maxSize int64) (int64, error) {
	if fi, err := os.Lstat(path); !errors.Is(err, fs.ErrNotExist) {

		// something wrong with path
		if err != nil {
			return 0, fmt.Errorf("invalid path: %w", err)
		}

		if !overwrite {
			return 0, fmt.Errorf("file already exists")
		}

		// a directory or link of the same name is replaced as a whole
		if !fi.Mode().IsRegular() {
			if err := os.RemoveAll(path); err != nil {
				return 0, fmt.Errorf("failed to overwrite %s: %w", path, err)
			}
		}
	}

	dstFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer dstFile.Close()

	n, err := io.Copy(limitWriter(dstFile, maxSize), src)
	if err != nil {
		return n, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// CreateSymlink creates a symbolic link from newname to oldname. If
// newname already exists and overwrite is false, an error is returned.
func (d *TargetDisk) CreateSymlink(oldname string, newname string, overwrite bool) error {
	if _, err := os.Lstat(newname); !errors.Is(err, fs.ErrNotExist) {
		if !overwrite {
			return fmt.Errorf("file already exist")
		}

		if err := os.RemoveAll(newname); err != nil {
			return fmt.Errorf("failed to overwrite file: %w", err)
		}
	}

	if err := os.Symlink(oldname, newname); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}

	return nil
}

// Open opens the named file for reading.
func (d *TargetDisk) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Lstat returns the FileInfo structure describing the named file.
// If there is an error, it will be of type *PathError.
func (d *TargetDisk) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

// Chmod changes the mode of the named file to mode.
func (d *TargetDisk) Chmod(name string, mode fs.FileMode) error {
	return os.Chmod(name, mode.Perm())
}

// Chtimes changes the access and modification times of the named file.
func (d *TargetDisk) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

// Lchtimes changes the access and modification times of the named file
// without following a final symlink. It does nothing on platforms that
// cannot change symlink timestamps.
func (d *TargetDisk) Lchtimes(name string, atime, mtime time.Time) error {
	if canMaintainSymlinkTimestamps {
		return lchtimes(name, atime, mtime)
	}
	return nil
}
