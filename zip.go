// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"
)

func init() {
	registerUnpacker(FormatZip, unpackZip)
}

// randomAccessSize returns size, or determines it by seeking to the end of src.
func randomAccessSize(src *ProgressReader, size int64) (int64, error) {
	if size >= 0 {
		return size, nil
	}
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("cannot seek to end of archive: %w", err)
	}
	return size, nil
}

// unpackZip reads the central directory of src and extracts the contents to dst.
func unpackZip(ctx context.Context, t Target, dst string, src *ProgressReader, size int64, _ ArchiveFormat, cfg *Config, td *TelemetryData) error {
	size, err := randomAccessSize(src, size)
	if err != nil {
		return err
	}

	reader, err := zip.NewReader(src, size)
	if err != nil {
		return fmt.Errorf("cannot create zip reader: %w", err)
	}
	return extract(ctx, t, dst, &zipWalker{zr: reader}, cfg, td)
}

// zipWalker is a walker for zip files
type zipWalker struct {
	zr *zip.Reader
	fp int
}

// Type returns the name of the walked format
func (z *zipWalker) Type() string {
	return FormatZip.Name()
}

// Next returns the next entry in the zip archive
func (z *zipWalker) Next() (archiveEntry, error) {
	if z.fp >= len(z.zr.File) {
		return nil, io.EOF
	}
	defer func() { z.fp++ }()
	return &zipEntry{z.zr.File[z.fp]}, nil
}

// zipEntry is an entry in a zip archive
type zipEntry struct {
	zf *zip.File
}

// AccessTime returns the zero time, zip does not record access times
func (z *zipEntry) AccessTime() time.Time {
	return time.Time{}
}

// IsDir returns true if the entry is a directory
func (z *zipEntry) IsDir() bool {
	return z.zf.Mode().IsDir()
}

// IsHardLink returns false, zip has no hard links
func (z *zipEntry) IsHardLink() bool {
	return false
}

// IsRegular returns true if the entry is a regular file
func (z *zipEntry) IsRegular() bool {
	return z.zf.Mode().IsRegular()
}

// IsSymlink returns true if the entry is a symlink
func (z *zipEntry) IsSymlink() bool {
	return z.zf.Mode().Type() == fs.ModeSymlink
}

// Linkname returns the link target, which zip stores as file content
func (z *zipEntry) Linkname() (string, error) {
	return readLinkname(z.zf.Open, z.Size())
}

// Mode returns the mode of the entry
func (z *zipEntry) Mode() fs.FileMode {
	return z.zf.Mode()
}

// ModTime returns the modification time of the entry
func (z *zipEntry) ModTime() time.Time {
	return z.zf.Modified
}

// Name returns the name of the entry
func (z *zipEntry) Name() string {
	return z.zf.Name
}

// Open returns a reader for the entry
func (z *zipEntry) Open() (io.ReadCloser, error) {
	return z.zf.Open()
}

// Size returns the size of the entry
func (z *zipEntry) Size() int64 {
	return int64(z.zf.UncompressedSize64)
}
