// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"fmt"
	"io"
	"sync/atomic"
)

// ProgressReporter receives lifecycle and byte-count signals during an
// extraction. All calls are advisory and must not block for long.
//
// An extraction started through an [AsyncExtractor] calls the reporter from a
// worker goroutine, so implementations must be safe for use from a goroutine
// other than the one that created them.
type ProgressReporter interface {
	// OnStart is called once before unpacking. totalBytes is the size of the
	// archive file, or -1 if it is unknown.
	OnStart(totalBytes int64)

	// OnProgress is called with the cumulative number of bytes read from the
	// archive file.
	OnProgress(bytesProcessed int64)

	// OnFinish is called once after a successful extraction.
	OnFinish(message string)
}

// NoopProgressReporter is a [ProgressReporter] that does nothing. It is the default.
type NoopProgressReporter struct{}

// OnStart does nothing.
func (NoopProgressReporter) OnStart(int64) {}

// OnProgress does nothing.
func (NoopProgressReporter) OnProgress(int64) {}

// OnFinish does nothing.
func (NoopProgressReporter) OnFinish(string) {}

// ProgressFuncs adapts plain functions to the [ProgressReporter] interface.
// Nil functions are skipped.
type ProgressFuncs struct {
	Start    func(totalBytes int64)
	Progress func(bytesProcessed int64)
	Finish   func(message string)
}

// OnStart calls Start, if set.
func (p ProgressFuncs) OnStart(totalBytes int64) {
	if p.Start != nil {
		p.Start(totalBytes)
	}
}

// OnProgress calls Progress, if set.
func (p ProgressFuncs) OnProgress(bytesProcessed int64) {
	if p.Progress != nil {
		p.Progress(bytesProcessed)
	}
}

// OnFinish calls Finish, if set.
func (p ProgressFuncs) OnFinish(message string) {
	if p.Finish != nil {
		p.Finish(message)
	}
}

// ProgressReader decorates a reader and forwards the running total of read
// bytes to a [ProgressReporter] after every read, including reads that return
// zero bytes or io.EOF.
//
// Seek and ReadAt are forwarded if the wrapped reader implements them, which
// lets a ProgressReader stand in for an *os.File in front of random access
// containers.
type ProgressReader struct {
	r        io.Reader
	reporter ProgressReporter
	n        atomic.Int64
}

// NewProgressReader returns a new ProgressReader that reads from r and reports to reporter.
func NewProgressReader(r io.Reader, reporter ProgressReporter) *ProgressReader {
	if reporter == nil {
		reporter = NoopProgressReporter{}
	}
	return &ProgressReader{r: r, reporter: reporter}
}

// Read reads from the underlying reader and reports the running total.
func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.reporter.OnProgress(p.n.Add(int64(n)))
	return n, err
}

// ReadAt reads from the underlying io.ReaderAt and reports the running total.
func (p *ProgressReader) ReadAt(b []byte, off int64) (int, error) {
	ra, ok := p.r.(io.ReaderAt)
	if !ok {
		return 0, fmt.Errorf("underlying reader does not implement io.ReaderAt")
	}
	n, err := ra.ReadAt(b, off)
	p.reporter.OnProgress(p.n.Add(int64(n)))
	return n, err
}

// Seek forwards to the underlying io.Seeker. Seeking does not change the
// reported total.
func (p *ProgressReader) Seek(offset int64, whence int) (int64, error) {
	s, ok := p.r.(io.Seeker)
	if !ok {
		return 0, fmt.Errorf("underlying reader does not implement io.Seeker")
	}
	return s.Seek(offset, whence)
}

// BytesRead returns how many bytes have been read from the underlying reader.
func (p *ProgressReader) BytesRead() int64 {
	return p.n.Load()
}
