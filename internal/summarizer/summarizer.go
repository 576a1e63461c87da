// Package summarizer talks to an Ollama-compatible /api/generate endpoint.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInference matches every *InferenceError via errors.Is.
var ErrInference = errors.New("inference failed")

// Summarizer turns normalized text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// InferenceError reports a failed call to the inference endpoint.
// StatusCode is 0 when no HTTP response was received.
type InferenceError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *InferenceError) Error() string {
	var b strings.Builder
	b.WriteString("inference endpoint")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " returned status %d", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool { return target == ErrInference }

const promptHeader = "You are a concise technical summarizer.\n" +
	"Return 3-5 short bullets highlighting purpose, key points, metrics, and any actions.\n" +
	"Text:\n"

// BuildPrompt prepends the fixed instruction to text cut to maxChars runes.
// maxChars <= 0 leaves the text whole.
func BuildPrompt(text string, maxChars int) string {
	return promptHeader + truncateRunes(text, maxChars)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
