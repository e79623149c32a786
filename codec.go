// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// decompressionFunc wraps a compressed stream into a decompressing reader.
type decompressionFunc func(src io.Reader) (io.ReadCloser, error)

// magicBytesXz are the magic bytes of a xz stream. Legacy lzma streams
// carry no magic at all.
var magicBytesXz = [][]byte{
	{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00},
}

// decompressors maps the tar based formats to their stream adapter.
var decompressors = map[ArchiveFormat]decompressionFunc{
	FormatTar:     decompressIdentity,
	FormatTarGz:   decompressGZipStream,
	FormatTarBz2:  decompressBz2Stream,
	FormatTarXz:   decompressXzOrLzmaStream,
	FormatTarLzma: decompressXzOrLzmaStream,
	FormatTarZst:  decompressZstdStream,
}

// newDecompressor returns a reader that yields the uncompressed tar stream
// of a tar based format. The caller closes the returned reader.
func newDecompressor(f ArchiveFormat, src io.Reader) (io.ReadCloser, error) {
	dec, ok := decompressors[f]
	if !ok {
		return nil, fmt.Errorf("no decompressor for format %s", f)
	}
	rc, err := dec(src)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s decompressor: %w", f, err)
	}
	return rc, nil
}

// decompressIdentity passes a plain tar stream through.
func decompressIdentity(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(src), nil
}

// decompressGZipStream reads concatenated gzip members as one stream.
func decompressGZipStream(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

// decompressBz2Stream reads a bzip2 stream, concatenated streams included.
func decompressBz2Stream(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bzip2.NewReader(src)), nil
}

// decompressXzOrLzmaStream handles both .tar.xz and .tar.lzma. Files in the
// wild carry either stream kind behind either extension, so the decoder is
// chosen by the xz magic bytes.
func decompressXzOrLzmaStream(src io.Reader) (io.ReadCloser, error) {
	hr, err := newHeaderReader(src, len(magicBytesXz[0]))
	if err != nil {
		return nil, err
	}

	if matchesMagicBytes(hr.PeekHeader(), 0, magicBytesXz) {
		r, err := xz.NewReader(hr)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(r), nil
	}

	r, err := lzma.NewReader(hr)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(r), nil
}

// decompressZstdStream releases the decoder goroutines on Close.
func decompressZstdStream(src io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}
