// Package ai defines the boundary to the generative inference service. The
// service is untrusted: its output is text that is merely expected to be one
// JSON object, and every caller must decode and validate it before use.
package ai

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when the service completes a call without
// producing any content.
var ErrEmptyResponse = errors.New("inference service returned no content")

// Generator produces one textual completion for a prompt. Implementations
// must honor context cancellation and pin deterministic decoding.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ExtractJSON strips markdown code fences that models wrap around JSON
// output despite instructions not to.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
