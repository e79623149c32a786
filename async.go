// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"context"
	"fmt"
	"net/url"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// AsyncOption is a function pointer to implement the option pattern for [AsyncExtractor].
type AsyncOption func(*AsyncExtractor)

// WithWorkers options pattern function to limit the number of extractions
// running at the same time. Values below 1 are ignored.
func WithWorkers(n int) AsyncOption {
	return func(a *AsyncExtractor) {
		if n > 0 {
			a.workers = int64(n)
		}
	}
}

// AsyncExtractor runs extractions of an [Extractor] on worker goroutines, so
// that callers driving many concurrent operations are not blocked by
// decompression. The number of running extractions is bounded.
//
// A context only bounds how long the caller waits. An extraction that has
// started runs to completion even if the caller gave up; its result is
// discarded.
type AsyncExtractor struct {
	e       *Extractor
	workers int64
	sem     *semaphore.Weighted
}

// NewAsyncExtractor returns an AsyncExtractor for e. A nil e means an
// Extractor with the default configuration.
func NewAsyncExtractor(e *Extractor, opts ...AsyncOption) *AsyncExtractor {
	if e == nil {
		e = NewExtractor()
	}
	a := &AsyncExtractor{e: e, workers: int64(runtime.GOMAXPROCS(0))}
	for _, opt := range opts {
		opt(a)
	}
	a.sem = semaphore.NewWeighted(a.workers)
	return a
}

// Extractor returns the wrapped Extractor.
func (a *AsyncExtractor) Extractor() *Extractor {
	return a.e
}

// Extract runs [Extractor.Extract] on a worker goroutine and waits for it.
//
// If ctx is done first, ctx.Err() is returned instead of a silent no-op. The
// extraction itself does not observe ctx and runs on to completion in the
// background. A panic of the extraction is raised again on the calling
// goroutine.
func (a *AsyncExtractor) Extract(ctx context.Context, archivePath string, destination string) error {
	return a.wait(ctx, a.start(ctx, archivePath, destination, a.e.cfg))
}

// ExtractFromURL extracts archivePath like Extract, but detects the format
// from the path of u, e.g. for a download whose local file name has no
// extension. A format configured on the Extractor takes precedence.
//
// If no format can be detected, an error of kind [KindFormatDetection] is
// returned before any work is offloaded.
func (a *AsyncExtractor) ExtractFromURL(ctx context.Context, archivePath string, destination string, u *url.URL) error {
	cfg := a.e.cfg
	if _, ok := cfg.Format(); !ok {
		format, ok := DetectFormatFromURL(u)
		if !ok {
			return newFormatDetectionError(fmt.Sprintf("URL: %s", u), "no known archive extension in URL path")
		}
		cfg = cfg.clone()
		cfg.format = format
	}
	return a.wait(ctx, a.start(ctx, archivePath, destination, cfg))
}

// Go starts the extraction and returns a channel that receives its result.
// A panic of the extraction is raised again when the result is received by
// Extract; callers of Go receive it as an error instead.
func (a *AsyncExtractor) Go(ctx context.Context, archivePath string, destination string) <-chan error {
	out := make(chan error, 1)
	res := a.start(ctx, archivePath, destination, a.e.cfg)
	go func() {
		r := <-res
		if r.panicked {
			out <- fmt.Errorf("extraction panicked: %v", r.panicValue)
			return
		}
		out <- r.err
	}()
	return out
}

// asyncResult is the outcome of a worker.
type asyncResult struct {
	err        error
	panicked   bool
	panicValue any
}

// start acquires a worker slot and runs the extraction. The returned channel
// is buffered, so the worker never blocks on a caller that stopped waiting.
func (a *AsyncExtractor) start(ctx context.Context, archivePath string, destination string, cfg *Config) <-chan asyncResult {
	res := make(chan asyncResult, 1)

	if err := a.sem.Acquire(ctx, 1); err != nil {
		res <- asyncResult{err: err}
		return res
	}

	// the extraction must not observe the caller's cancellation
	workerCtx := context.WithoutCancel(ctx)
	e := a.e

	go func() {
		defer a.sem.Release(1)
		defer func() {
			if v := recover(); v != nil {
				res <- asyncResult{panicked: true, panicValue: v}
			}
		}()
		res <- asyncResult{err: e.extract(workerCtx, archivePath, destination, cfg)}
	}()
	return res
}

// wait returns the result of res, or ctx.Err() if ctx is done first.
func (a *AsyncExtractor) wait(ctx context.Context, res <-chan asyncResult) error {
	select {
	case r := <-res:
		if r.panicked {
			panic(r.panicValue)
		}
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
