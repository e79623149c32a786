// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"fmt"
	"io"
)

// limitErrorWriter is a wrapper around an io.Writer that fails once more than
// limit bytes would be written. The error wraps [ErrMaxExtractionSizeExceeded]
// and io.ErrShortWrite.
type limitErrorWriter struct {
	w     io.Writer
	limit int64
	n     int64
}

// Write writes p to the underlying writer. If p does not fit into the
// remaining budget, only the fitting prefix is written and an error is returned.
func (l *limitErrorWriter) Write(p []byte) (int, error) {
	if l.n >= l.limit && len(p) > 0 {
		return 0, l.exceeded()
	}

	if rest := l.limit - l.n; int64(len(p)) > rest {
		n, err := l.w.Write(p[:rest])
		l.n += int64(n)
		if err == nil {
			err = l.exceeded()
		}
		return n, err
	}

	n, err := l.w.Write(p)
	l.n += int64(n)
	return n, err
}

func (l *limitErrorWriter) exceeded() error {
	return fmt.Errorf("%w: limit of %d bytes (%w)", ErrMaxExtractionSizeExceeded, l.limit, io.ErrShortWrite)
}

// limitWriter returns w limited to maxSize bytes. A negative maxSize disables the limit.
func limitWriter(w io.Writer, maxSize int64) io.Writer {
	if maxSize < 0 {
		return w
	}
	return &limitErrorWriter{w: w, limit: maxSize}
}
