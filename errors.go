// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an [Error].
type ErrorKind int

const (
	// KindIo is any underlying filesystem or stream failure.
	KindIo ErrorKind = iota + 1

	// KindUnsupportedFormat means neither an explicit format nor detection produced a
	// format that is supported by this build.
	KindUnsupportedFormat

	// KindTarExtraction means unpacking a tar based archive failed.
	KindTarExtraction

	// KindZipExtraction means unpacking a zip archive failed.
	KindZipExtraction

	// KindSevenZipExtraction means unpacking a 7z archive failed.
	KindSevenZipExtraction

	// KindTempDirCreation means the scratch directory could not be created.
	KindTempDirCreation

	// KindFormatDetection means the format could not be inferred from a URL.
	KindFormatDetection

	// KindEmptyArchive means the archive unpacked to zero entries.
	KindEmptyArchive

	// KindRootDirectoryStripping means a rename during root directory stripping failed.
	KindRootDirectoryStripping
)

// Sentinel errors, one per [ErrorKind], for use with [errors.Is].
var (
	ErrIo                     = errors.New("I/O error")
	ErrUnsupportedFormat      = errors.New("unsupported archive format")
	ErrTarExtraction          = errors.New("tar extraction failed")
	ErrZipExtraction          = errors.New("zip extraction failed")
	ErrSevenZipExtraction     = errors.New("7z extraction failed")
	ErrTempDirCreation        = errors.New("temporary directory creation failed")
	ErrFormatDetection        = errors.New("format detection failed")
	ErrEmptyArchive           = errors.New("archive appears to be empty or contains no extractable content")
	ErrRootDirectoryStripping = errors.New("root directory stripping failed")
)

var (
	// ErrMaxFilesExceeded is returned if the number of entries exceeds the configured maximum.
	ErrMaxFilesExceeded = errors.New("maximum files exceeded")

	// ErrMaxExtractionSizeExceeded is returned if the extracted bytes exceed the configured maximum.
	ErrMaxExtractionSizeExceeded = errors.New("maximum extraction size exceeded")
)

// sentinels maps a kind to its sentinel error.
var sentinels = map[ErrorKind]error{
	KindIo:                     ErrIo,
	KindUnsupportedFormat:      ErrUnsupportedFormat,
	KindTarExtraction:          ErrTarExtraction,
	KindZipExtraction:          ErrZipExtraction,
	KindSevenZipExtraction:     ErrSevenZipExtraction,
	KindTempDirCreation:        ErrTempDirCreation,
	KindFormatDetection:        ErrFormatDetection,
	KindEmptyArchive:           ErrEmptyArchive,
	KindRootDirectoryStripping: ErrRootDirectoryStripping,
}

// Error is the error type returned by all extraction operations.
//
// Only the fields relevant for the Kind are set: Filename for
// [KindUnsupportedFormat], Path for [KindRootDirectoryStripping] and Context
// for [KindFormatDetection]. Reason carries the diagnostic message. Err is
// the underlying cause, if any, and is returned by Unwrap.
type Error struct {
	Kind     ErrorKind
	Filename string
	Path     string
	Context  string
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindIo:
		return fmt.Sprintf("I/O error: %s", e.Reason)
	case KindUnsupportedFormat:
		return fmt.Sprintf("Unsupported archive format for file: %s", e.Filename)
	case KindTarExtraction:
		return fmt.Sprintf("Failed to extract tar archive: %s", e.Reason)
	case KindZipExtraction:
		return fmt.Sprintf("Failed to extract zip archive: %s", e.Reason)
	case KindSevenZipExtraction:
		return fmt.Sprintf("Failed to extract 7z archive: %s", e.Reason)
	case KindTempDirCreation:
		return fmt.Sprintf("Failed to create temporary directory: %s", e.Reason)
	case KindFormatDetection:
		return fmt.Sprintf("Could not detect archive format from %s: %s", e.Context, e.Reason)
	case KindEmptyArchive:
		return "Archive appears to be empty or contains no extractable content"
	case KindRootDirectoryStripping:
		return fmt.Sprintf("Failed to strip root directory from %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("unknown error: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// newIoError wraps a filesystem or stream error.
func newIoError(err error) *Error {
	return &Error{Kind: KindIo, Reason: err.Error(), Err: err}
}

// newUnsupportedFormatError reports that no usable format exists for filename.
func newUnsupportedFormatError(filename string) *Error {
	return &Error{Kind: KindUnsupportedFormat, Filename: filename}
}

// newExtractionError wraps a container failure into the kind of the format family.
func newExtractionError(f ArchiveFormat, err error) *Error {
	kind := KindTarExtraction
	switch f {
	case FormatZip:
		kind = KindZipExtraction
	case FormatSevenZip:
		kind = KindSevenZipExtraction
	}
	return &Error{Kind: kind, Reason: err.Error(), Err: err}
}

// newTempDirError reports a failing scratch directory creation.
func newTempDirError(err error) *Error {
	return &Error{Kind: KindTempDirCreation, Reason: err.Error(), Err: err}
}

// newFormatDetectionError reports a failed format detection for context.
func newFormatDetectionError(context string, reason string) *Error {
	return &Error{Kind: KindFormatDetection, Context: context, Reason: reason}
}

// newRootStrippingError reports a failed move of path.
func newRootStrippingError(path string, reason string, err error) *Error {
	return &Error{Kind: KindRootDirectoryStripping, Path: path, Reason: reason, Err: err}
}
