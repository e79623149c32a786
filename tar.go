// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"archive/tar"
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"
)

// tarReadBufferSize is the buffer between the archive file and the decompressor.
const tarReadBufferSize = 64 * 1024

func init() {
	for _, f := range []ArchiveFormat{FormatTar, FormatTarGz, FormatTarBz2, FormatTarXz, FormatTarLzma, FormatTarZst} {
		registerUnpacker(f, unpackTar)
	}
}

// unpackTar decompresses src according to f and extracts the tar stream to dst.
func unpackTar(ctx context.Context, t Target, dst string, src *ProgressReader, _ int64, f ArchiveFormat, cfg *Config, td *TelemetryData) error {
	dec, err := newDecompressor(f, bufio.NewReaderSize(src, tarReadBufferSize))
	if err != nil {
		return err
	}
	defer dec.Close()

	if err := extract(ctx, t, dst, &tarWalker{tr: tar.NewReader(dec), format: f}, cfg, td); err != nil {
		return err
	}

	// the tar end marker may be followed by padding and the trailer of the
	// compression stream; its checksum is only verified when read to the end
	if _, err := io.Copy(io.Discard, dec); err != nil {
		return fmt.Errorf("read after tar end: %w", err)
	}
	return nil
}

// tarWalker is a walker for tar streams
type tarWalker struct {
	tr     *tar.Reader
	format ArchiveFormat
}

// Type returns the name of the walked format
func (t *tarWalker) Type() string {
	return t.format.Name()
}

// Next returns the next entry in the tar archive. PAX global headers, like
// the `pax_global_header` written by git archive, carry no file and are skipped.
func (t *tarWalker) Next() (archiveEntry, error) {
	for {
		hdr, err := t.tr.Next()
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		return &tarEntry{hdr, t.tr}, nil
	}
}

// tarEntry is an entry in a tar archive
type tarEntry struct {
	hdr *tar.Header
	tr  *tar.Reader
}

// AccessTime returns the access time of the entry, zero if not recorded
func (t *tarEntry) AccessTime() time.Time {
	return t.hdr.AccessTime
}

// IsDir returns true if the entry is a directory
func (t *tarEntry) IsDir() bool {
	return t.hdr.Typeflag == tar.TypeDir
}

// IsHardLink returns true if the entry is a hard link to an earlier entry
func (t *tarEntry) IsHardLink() bool {
	return t.hdr.Typeflag == tar.TypeLink
}

// IsRegular returns true if the entry is a regular file
func (t *tarEntry) IsRegular() bool {
	return t.hdr.Typeflag == tar.TypeReg
}

// IsSymlink returns true if the entry is a symlink
func (t *tarEntry) IsSymlink() bool {
	return t.hdr.Typeflag == tar.TypeSymlink
}

// Linkname returns the target of a symlink or hard link
func (t *tarEntry) Linkname() (string, error) {
	return t.hdr.Linkname, nil
}

// Mode returns the mode of the entry
func (t *tarEntry) Mode() fs.FileMode {
	return t.hdr.FileInfo().Mode()
}

// ModTime returns the modification time of the entry
func (t *tarEntry) ModTime() time.Time {
	return t.hdr.ModTime
}

// Name returns the name of the entry
func (t *tarEntry) Name() string {
	return t.hdr.Name
}

// Open returns a reader for the entry. The entry data is only readable until
// the walker moves on.
func (t *tarEntry) Open() (io.ReadCloser, error) {
	return io.NopCloser(t.tr), nil
}

// Size returns the size of the entry
func (t *tarEntry) Size() int64 {
	return t.hdr.Size
}
