package pdfparser

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fjacquet/statement-import/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_LoadsOnce(t *testing.T) {
	var loads int32
	want := NewMockExtractor("text", nil)
	h := NewHandleWithLoader(func() (TextExtractor, error) {
		atomic.AddInt32(&loads, 1)
		return want, nil
	}, time.Second, logging.NewMockLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := h.Get(context.Background())
			assert.NoError(t, err)
			assert.Same(t, want, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestHandle_TimeoutDoesNotCancelLoad(t *testing.T) {
	release := make(chan struct{})
	var loads int32
	h := NewHandleWithLoader(func() (TextExtractor, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return NewMockExtractor("late", nil), nil
	}, 20*time.Millisecond, logging.NewMockLogger())

	_, err := h.Get(context.Background())
	require.ErrorIs(t, err, ErrBackendUnavailable)

	close(release)
	var ext TextExtractor
	require.Eventually(t, func() bool {
		ext, err = h.Get(context.Background())
		return err == nil
	}, time.Second, 5*time.Millisecond)
	text, err := ext.ExtractText(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "late", text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestHandle_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	h := NewHandleWithLoader(func() (TextExtractor, error) {
		<-release
		return nil, nil
	}, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewHandle_Backends(t *testing.T) {
	ext, err := NewHandle(BackendNative, time.Second, logging.NewMockLogger()).Get(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &NativeExtractor{}, ext)

	_, err = NewHandle("ocr", time.Second, logging.NewMockLogger()).Get(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	ext, err = NewHandle(BackendAuto, time.Second, logging.NewMockLogger()).Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ext)
}

func TestNativeExtractor_RejectsGarbage(t *testing.T) {
	_, err := NewNativeExtractor().ExtractText(context.Background(), []byte("not a pdf at all"))
	assert.Error(t, err)
}
