// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build !nosevenzip

package unarchive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/bodgit/sevenzip"
)

// The 7z capability is optional. Building with the tag nosevenzip leaves
// FormatSevenZip unregistered.
func init() {
	registerUnpacker(FormatSevenZip, unpackSevenZip)
}

// unpackSevenZip extracts the 7z archive src to dst.
func unpackSevenZip(ctx context.Context, t Target, dst string, src *ProgressReader, size int64, _ ArchiveFormat, cfg *Config, td *TelemetryData) error {
	size, err := randomAccessSize(src, size)
	if err != nil {
		return err
	}

	reader, err := sevenzip.NewReader(src, size)
	if err != nil {
		return fmt.Errorf("cannot create 7z reader: %w", err)
	}
	return extract(ctx, t, dst, &sevenZipWalker{r: reader}, cfg, td)
}

// sevenZipWalker is a walker for 7z archives
type sevenZipWalker struct {
	r  *sevenzip.Reader
	fp int
}

// Type returns the name of the walked format
func (z *sevenZipWalker) Type() string {
	return FormatSevenZip.Name()
}

// Next returns the next entry in the 7z archive
func (z *sevenZipWalker) Next() (archiveEntry, error) {
	if z.fp >= len(z.r.File) {
		return nil, io.EOF
	}
	defer func() { z.fp++ }()
	return &sevenZipEntry{z.r.File[z.fp]}, nil
}

// sevenZipEntry is an entry in a 7z archive
type sevenZipEntry struct {
	f *sevenzip.File
}

// AccessTime returns the access time of the entry
func (z *sevenZipEntry) AccessTime() time.Time {
	return z.f.Accessed
}

// IsDir returns true if the entry is a directory
func (z *sevenZipEntry) IsDir() bool {
	return z.f.Mode().IsDir()
}

// IsHardLink returns false, 7z archives carry no hard links
func (z *sevenZipEntry) IsHardLink() bool {
	return false
}

// IsRegular returns true if the entry is a regular file
func (z *sevenZipEntry) IsRegular() bool {
	return z.f.Mode().IsRegular()
}

// IsSymlink returns true if the entry is a symlink
func (z *sevenZipEntry) IsSymlink() bool {
	return z.f.Mode().Type() == fs.ModeSymlink
}

// Linkname returns the symlink target, which 7z stores as the entry content
func (z *sevenZipEntry) Linkname() (string, error) {
	return readLinkname(z.f.Open, z.Size())
}

// Mode returns the mode of the entry
func (z *sevenZipEntry) Mode() fs.FileMode {
	return z.f.Mode()
}

// ModTime returns the modification time of the entry
func (z *sevenZipEntry) ModTime() time.Time {
	return z.f.Modified
}

// Name returns the name of the entry
func (z *sevenZipEntry) Name() string {
	return z.f.Name
}

// Open returns a reader for the entry content
func (z *sevenZipEntry) Open() (io.ReadCloser, error) {
	return z.f.Open()
}

// Size returns the uncompressed size of the entry
func (z *sevenZipEntry) Size() int64 {
	return int64(z.f.UncompressedSize)
}
