package pdfparser

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"fjacquet/statement-import/internal/logging"
)

// Backend names accepted by NewHandle.
const (
	BackendAuto      = "auto"
	BackendNative    = "native"
	BackendPdftotext = "pdftotext"
)

// DefaultLoadTimeout bounds the wait for the text backend.
const DefaultLoadTimeout = 5 * time.Second

// Loader resolves a text extractor. It runs at most once per Handle.
type Loader func() (TextExtractor, error)

// Handle lazily resolves the PDF text backend. The first Get starts the load;
// later calls share its outcome. A single Handle is created per process and
// passed to every PDF parser.
type Handle struct {
	load    Loader
	timeout time.Duration
	logger  logging.Logger

	once      sync.Once
	done      chan struct{}
	extractor TextExtractor
	err       error
}

// NewHandle creates a handle for the named backend.
func NewHandle(backend string, timeout time.Duration, logger logging.Logger) *Handle {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return NewHandleWithLoader(backendLoader(backend, logger), timeout, logger)
}

// NewHandleWithLoader creates a handle around a custom loader.
func NewHandleWithLoader(load Loader, timeout time.Duration, logger logging.Logger) *Handle {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Handle{
		load:    load,
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// StaticHandle wraps an already available extractor.
func StaticHandle(extractor TextExtractor) *Handle {
	return NewHandleWithLoader(func() (TextExtractor, error) { return extractor, nil }, 0, nil)
}

// Get returns the loaded extractor. It waits for the load until ctx is done or
// the load timeout elapses. A timed out caller does not cancel the load: the
// next caller may still find it complete.
func (h *Handle) Get(ctx context.Context) (TextExtractor, error) {
	h.once.Do(func() {
		go func() {
			defer close(h.done)
			start := time.Now()
			h.extractor, h.err = h.load()
			h.logger.Debug("PDF text backend loaded",
				logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()},
				logging.Field{Key: logging.FieldError, Value: h.err})
		}()
	})

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case <-h.done:
		return h.extractor, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: load timed out after %s", ErrBackendUnavailable, h.timeout)
	}
}

func backendLoader(backend string, logger logging.Logger) Loader {
	return func() (TextExtractor, error) {
		switch backend {
		case BackendNative:
			return NewNativeExtractor(), nil
		case BackendPdftotext:
			path, err := exec.LookPath("pdftotext")
			if err != nil {
				return nil, fmt.Errorf("%w: pdftotext not found: %v", ErrBackendUnavailable, err)
			}
			return NewCommandExtractor(path), nil
		case BackendAuto, "":
			if path, err := exec.LookPath("pdftotext"); err == nil {
				logger.Debug("Using pdftotext backend", logging.Field{Key: logging.FieldBackend, Value: path})
				return NewCommandExtractor(path), nil
			}
			logger.Debug("pdftotext not found, using native backend")
			return NewNativeExtractor(), nil
		default:
			return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, backend)
		}
	}
}
