// Package completion is the boundary to the text-generation service. Call
// sites never depend on a completion succeeding: every caller carries a
// deterministic fallback, and no request is retried more than once.
package completion

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Error taxonomy. Callers recover from all of these locally.
var (
	ErrNetwork           = errors.New("completion service unreachable")
	ErrAuth              = errors.New("completion service rejected credentials")
	ErrMalformedResponse = errors.New("completion response could not be parsed")
)

// Request is one prompt sent to the completion service.
type Request struct {
	// System is the optional system prompt.
	System string

	// Prompt is the rendered user prompt.
	Prompt string

	// MaxTokens bounds the response length. Zero means the config default
	// was already applied by the caller.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// Format, when non-nil, is a JSON schema constraining the output.
	Format json.RawMessage
}

// Client turns a rendered prompt into text.
type Client interface {
	// Complete performs one completion round-trip.
	Complete(ctx context.Context, req Request) (string, error)

	// Ping verifies the service is reachable.
	Ping(ctx context.Context) error
}
