// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// BarProgressReporter renders the extraction progress as a byte based
// terminal progress bar. A spinner is shown if the archive size is unknown.
type BarProgressReporter struct {
	mu          sync.Mutex
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
}

// NewBarProgressReporter returns a [ProgressReporter] that renders to w.
func NewBarProgressReporter(w io.Writer, description string) *BarProgressReporter {
	return &BarProgressReporter{w: w, description: description}
}

// OnStart creates the bar with totalBytes as maximum.
func (b *BarProgressReporter) OnStart(totalBytes int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bar = progressbar.NewOptions64(totalBytes,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(b.description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowTotalBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// OnProgress moves the bar to bytesProcessed.
func (b *BarProgressReporter) OnProgress(bytesProcessed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		return
	}
	_ = b.bar.Set64(bytesProcessed)
}

// OnFinish completes the bar and prints message on its own line.
func (b *BarProgressReporter) OnFinish(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
	fmt.Fprintf(b.w, "\n%s\n", message)
}
