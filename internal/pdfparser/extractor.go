package pdfparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls the reading-order text out of a PDF document. Pages are
// separated by newlines; no layout information survives.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// NativeExtractor reads the text layer in-process with ledongthuc/pdf.
type NativeExtractor struct{}

// NewNativeExtractor creates a NativeExtractor.
func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{}
}

// ExtractText concatenates the plain text of every page.
func (e *NativeExtractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		buf.WriteString(pageText)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// CommandExtractor runs the poppler pdftotext binary in layout mode.
type CommandExtractor struct {
	path string
}

// NewCommandExtractor creates an extractor running the binary at path.
func NewCommandExtractor(path string) *CommandExtractor {
	return &CommandExtractor{path: path}
}

// ExtractText writes data to a temporary file and reads pdftotext's output.
func (e *CommandExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	tempFile, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary PDF file: %w", err)
	}
	defer func() { _ = os.Remove(tempFile.Name()) }()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("failed to write temporary PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary PDF file: %w", err)
	}

	// #nosec G204 -- the binary path comes from exec.LookPath
	cmd := exec.CommandContext(ctx, e.path, "-layout", "-enc", "UTF-8", tempFile.Name(), "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("error running pdftotext: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// MockExtractor returns fixed text, for tests.
type MockExtractor struct {
	MockText string
	MockErr  error
}

// NewMockExtractor creates a MockExtractor with the given text and error.
func NewMockExtractor(text string, err error) *MockExtractor {
	return &MockExtractor{MockText: text, MockErr: err}
}

// ExtractText returns the predefined text or error.
func (e *MockExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	if e.MockErr != nil {
		return "", e.MockErr
	}
	return e.MockText, nil
}

// ErrBackendUnavailable means the configured text backend cannot be used.
var ErrBackendUnavailable = errors.New("pdf text backend unavailable")
