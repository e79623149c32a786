// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ArchiveFormat identifies a container/compression combination. The zero value
// [FormatUnknown] is not a valid format.
type ArchiveFormat int

const (
	// FormatUnknown is returned when no format could be determined.
	FormatUnknown ArchiveFormat = iota

	// FormatTar is a plain tar archive.
	FormatTar

	// FormatTarGz is a gzip compressed tar archive.
	FormatTarGz

	// FormatTarBz2 is a bzip2 compressed tar archive.
	FormatTarBz2

	// FormatTarXz is a xz compressed tar archive.
	FormatTarXz

	// FormatTarLzma is a lzma compressed tar archive.
	FormatTarLzma

	// FormatTarZst is a zstandard compressed tar archive.
	FormatTarZst

	// FormatZip is a zip archive.
	FormatZip

	// FormatSevenZip is a 7-Zip archive. It is only available if the 7z
	// capability is part of the build, see [IsSupported].
	FormatSevenZip
)

// formatInfo holds the static properties of a format.
type formatInfo struct {
	name       string
	extensions []string
	tarBased   bool
}

// formats is indexed by ArchiveFormat.
var formats = [...]formatInfo{
	FormatUnknown:  {name: "UNKNOWN"},
	FormatTar:      {name: "TAR", extensions: []string{".tar"}, tarBased: true},
	FormatTarGz:    {name: "TAR.GZ", extensions: []string{".tar.gz", ".tgz", ".taz"}, tarBased: true},
	FormatTarBz2:   {name: "TAR.BZ2", extensions: []string{".tar.bz2", ".tbz", ".tbz2", ".tz2"}, tarBased: true},
	FormatTarXz:    {name: "TAR.XZ", extensions: []string{".tar.xz", ".txz"}, tarBased: true},
	FormatTarLzma:  {name: "TAR.LZMA", extensions: []string{".tar.lzma", ".tlz"}, tarBased: true},
	FormatTarZst:   {name: "TAR.ZST", extensions: []string{".tar.zst", ".tzst"}, tarBased: true},
	FormatZip:      {name: "ZIP", extensions: []string{".zip"}},
	FormatSevenZip: {name: "7Z", extensions: []string{".7z"}},
}

// detectionOrder is the order in which suffixes are tested. Compound tar
// suffixes must be checked before the bare ".tar".
var detectionOrder = []ArchiveFormat{
	FormatTarGz,
	FormatTarBz2,
	FormatTarXz,
	FormatTarLzma,
	FormatTarZst,
	FormatTar,
	FormatZip,
	FormatSevenZip,
}

// Valid returns true if f is one of the defined archive formats.
func (f ArchiveFormat) Valid() bool {
	return f > FormatUnknown && int(f) < len(formats)
}

// Name returns the human-readable name of the format, e.g. "TAR.GZ".
func (f ArchiveFormat) Name() string {
	if !f.Valid() {
		return formats[FormatUnknown].name
	}
	return formats[f].name
}

// String implements [fmt.Stringer].
func (f ArchiveFormat) String() string {
	return f.Name()
}

// Extensions returns the canonical file extensions of the format, including
// the leading dot.
func (f ArchiveFormat) Extensions() []string {
	if !f.Valid() {
		return nil
	}
	return append([]string(nil), formats[f].extensions...)
}

// IsTarBased returns true if the container of the format is tar.
func (f ArchiveFormat) IsTarBased() bool {
	return f.Valid() && formats[f].tarBased
}

// DetectFormat detects the archive format from a filename. The check is case
// insensitive and tests the most specific suffixes first, so "a.tar.gz" is
// detected as [FormatTarGz] and never as [FormatTar].
func DetectFormat(filename string) (ArchiveFormat, bool) {
	lower := strings.ToLower(filename)
	for _, f := range detectionOrder {

		// optional capabilities are only detected if they are registered
		if !f.IsTarBased() && !IsSupported(f) {
			continue
		}

		for _, ext := range formats[f].extensions {
			if strings.HasSuffix(lower, ext) {
				return f, true
			}
		}
	}
	return FormatUnknown, false
}

// DetectFormatFromPath detects the archive format from the last element of p.
func DetectFormatFromPath(p string) (ArchiveFormat, bool) {
	return DetectFormat(filepath.Base(p))
}

// DetectFormatFromURL detects the archive format from the path component of u.
// Query and fragment are ignored.
func DetectFormatFromURL(u *url.URL) (ArchiveFormat, bool) {
	if u == nil || len(u.Path) == 0 {
		return FormatUnknown, false
	}
	return DetectFormat(path.Base(u.Path))
}

// DetectFormatFromURLString parses raw as URL and detects the archive format
// from its path.
func DetectFormatFromURLString(raw string) (ArchiveFormat, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return FormatUnknown, false
	}
	return DetectFormatFromURL(u)
}

// IsArchive returns true if filename has a known archive extension.
func IsArchive(filename string) bool {
	_, ok := DetectFormat(filename)
	return ok
}

// IsTarball returns true if filename has the extension of a tar based archive.
func IsTarball(filename string) bool {
	f, ok := DetectFormat(filename)
	return ok && f.IsTarBased()
}

// ParseFormat parses a format given by name ("tar.gz", "TAR.GZ") or by one
// of its extensions (".tgz", "tgz").
func ParseFormat(s string) (ArchiveFormat, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if len(in) == 0 {
		return FormatUnknown, fmt.Errorf("empty format")
	}
	for _, f := range detectionOrder {
		if strings.ToLower(formats[f].name) == in {
			return f, nil
		}
		for _, ext := range formats[f].extensions {
			if ext == in || ext[1:] == in {
				return f, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("unknown archive format %q", s)
}
