// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive_test

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	unarchive "github.com/hashicorp/go-unarchive"
)

// blockingReporter blocks OnStart until release is closed.
type blockingReporter struct {
	unarchive.NoopProgressReporter
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newBlockingReporter() *blockingReporter {
	return &blockingReporter{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingReporter) OnStart(int64) {
	b.once.Do(func() { close(b.started) })
	<-b.release
}

func TestAsyncExtract(t *testing.T) {
	a := unarchive.NewAsyncExtractor(nil)
	require.NotNil(t, a.Extractor())

	dst := t.TempDir()
	require.NoError(t, a.Extract(context.Background(), projectTarGz(t), dst))
	assertProjectStripped(t, dst)
}

func TestAsyncExtractError(t *testing.T) {
	archive := writeArchive(t, t.TempDir(), "bad.zip", []byte("garbage"))
	err := unarchive.NewAsyncExtractor(unarchive.NewExtractor()).Extract(context.Background(), archive, t.TempDir())
	require.ErrorIs(t, err, unarchive.ErrZipExtraction)
}

func TestAsyncExtractPanic(t *testing.T) {
	ex := unarchive.NewExtractor(unarchive.WithProgressReporter(unarchive.ProgressFuncs{
		Start: func(int64) { panic("boom") },
	}))
	a := unarchive.NewAsyncExtractor(ex, unarchive.WithWorkers(1))
	archive := projectTarGz(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = a.Extract(context.Background(), archive, t.TempDir())
	})

	// the worker slot was released, Go reports the panic as error
	err := <-a.Go(context.Background(), archive, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction panicked: boom")
}

func TestAsyncExtractCanceled(t *testing.T) {
	reporter := newBlockingReporter()
	done := make(chan *unarchive.TelemetryData, 1)
	ex := unarchive.NewExtractor(
		unarchive.WithProgressReporter(reporter),
		unarchive.WithTelemetryHook(func(_ context.Context, td *unarchive.TelemetryData) { done <- td }),
	)
	a := unarchive.NewAsyncExtractor(ex)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-reporter.started
		cancel()
	}()

	dst := t.TempDir()
	err := a.Extract(ctx, projectTarGz(t), dst)
	require.ErrorIs(t, err, context.Canceled)

	// the worker is not interrupted and finishes on its own
	close(reporter.release)
	select {
	case td := <-done:
		assert.NoError(t, td.LastExtractionError)
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not finish")
	}
	assertProjectStripped(t, dst)
}

func TestAsyncExtractFromURL(t *testing.T) {
	data := compress(t, unarchive.FormatTarGz, packTar(t, projectContent()))

	cases := []struct {
		name     string
		url      string
		opts     []unarchive.ConfigOption
		expected error
	}{
		{name: "extension in path", url: "https://example.com/releases/project-1.0.tar.gz?token=1"},
		{name: "short extension", url: "https://example.com/project.tgz#latest"},
		{name: "no extension", url: "https://example.com/download?file=project.tar.gz", expected: unarchive.ErrFormatDetection},
		{name: "configured format wins", url: "https://example.com/download", opts: []unarchive.ConfigOption{unarchive.WithFormat(unarchive.FormatTarGz)}},
		{name: "wrong extension", url: "https://example.com/project.zip", expected: unarchive.ErrZipExtraction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			archive := writeArchive(t, t.TempDir(), "download", data)
			u, err := url.Parse(tc.url)
			require.NoError(t, err)

			hookCalls := 0
			opts := append([]unarchive.ConfigOption{
				unarchive.WithTelemetryHook(func(context.Context, *unarchive.TelemetryData) { hookCalls++ }),
			}, tc.opts...)
			a := unarchive.NewAsyncExtractor(unarchive.NewExtractor(opts...))

			dst := t.TempDir()
			err = a.ExtractFromURL(context.Background(), archive, dst, u)
			if tc.expected == nil {
				require.NoError(t, err)
				assertProjectStripped(t, dst)
				assert.Equal(t, 1, hookCalls)
				return
			}
			require.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestAsyncExtractFromURLDetectionFailure(t *testing.T) {
	hookCalls := 0
	ex := unarchive.NewExtractor(unarchive.WithTelemetryHook(func(context.Context, *unarchive.TelemetryData) { hookCalls++ }))
	u, err := url.Parse("https://example.com/download?id=3")
	require.NoError(t, err)

	err = unarchive.NewAsyncExtractor(ex).ExtractFromURL(context.Background(), "unused", t.TempDir(), u)
	require.ErrorIs(t, err, unarchive.ErrFormatDetection)
	assert.Equal(t, "Could not detect archive format from URL: https://example.com/download?id=3: no known archive extension in URL path", err.Error())
	assert.Zero(t, hookCalls)

	// the configuration of the extractor is unchanged
	_, ok := ex.Config().Format()
	assert.False(t, ok)
}

func TestAsyncWorkers(t *testing.T) {
	reporter := newBlockingReporter()
	a := unarchive.NewAsyncExtractor(unarchive.NewExtractor(unarchive.WithProgressReporter(reporter)), unarchive.WithWorkers(1))
	archive := projectTarGz(t)

	first := a.Go(context.Background(), archive, t.TempDir())
	<-reporter.started

	// the only worker is busy
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := a.Extract(ctx, archive, t.TempDir())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(reporter.release)
	require.NoError(t, <-first)

	// the slot is free again
	require.NoError(t, a.Extract(context.Background(), archive, t.TempDir()))
}

func TestAsyncConcurrentExtractions(t *testing.T) {
	a := unarchive.NewAsyncExtractor(unarchive.NewExtractor(), unarchive.WithWorkers(2))
	archive := projectTarGz(t)
	base := t.TempDir()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = a.Extract(context.Background(), archive, filepath.Join(base, string(rune('a'+i))))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err)
		assertProjectStripped(t, filepath.Join(base, string(rune('a'+i))))
	}
}
