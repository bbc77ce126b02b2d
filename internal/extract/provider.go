// Package extract obtains video metadata from an external extraction tool.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xymaxim/vpick/internal/info"
)

// Provider extracts metadata for a video URL.
type Provider interface {
	Extract(ctx context.Context, url string) (*info.Metadata, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, url string) (*info.Metadata, error)

func (f ProviderFunc) Extract(ctx context.Context, url string) (*info.Metadata, error) {
	return f(ctx, url)
}

// ExtractionError is any failure of the metadata provider: unsupported URL,
// network failure, timeout or unparseable output.
type ExtractionError struct {
	URL    string
	Stderr string
	Err    error
}

func (e *ExtractionError) Error() string {
	return e.Description()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Description is the human-readable cause, preferring the tool's own stderr
// over the process error.
func (e *ExtractionError) Description() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "extraction timed out"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("extracting %s failed", e.URL)
}
