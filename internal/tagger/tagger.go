// Package tagger sends extracted document text to the generative model and
// normalizes the response into a TagResult. Parse failures never surface as
// errors: an unparseable model response degrades to an empty result so an
// upload is never failed by a malformed completion.
package tagger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/meridianwm/backoffice/internal/gcp"
	"github.com/meridianwm/backoffice/internal/models"
)

// TransportError marks a failed call to the generative model, as opposed to
// an unparseable completion, which degrades to an empty result. Handlers map
// it to an upstream failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tagger: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Config bounds the tagger's calls.
type Config struct {
	CallTimeout   time.Duration
	MaxInputBytes int
}

// Tagger classifies document text via the pre-configured Vertex model.
type Tagger struct {
	vertex *gcp.VertexClient
	config Config
}

// New creates a Tagger around an existing Vertex client.
func New(vertex *gcp.VertexClient, config Config) *Tagger {
	if config.CallTimeout <= 0 {
		config.CallTimeout = 60 * time.Second
	}
	if config.MaxInputBytes <= 0 {
		config.MaxInputBytes = 64 * 1024
	}
	return &Tagger{vertex: vertex, config: config}
}

// ExtractTags classifies text. Transport failures return an error; a response
// the model produced but we cannot parse returns a zero TagResult and no
// error. Empty text short-circuits to a zero result without a model call.
func (t *Tagger) ExtractTags(ctx context.Context, text string) (models.TagResult, error) {
	if strings.TrimSpace(text) == "" {
		return models.TagResult{}, nil
	}
	if len(text) > t.config.MaxInputBytes {
		text = text[:t.config.MaxInputBytes]
	}

	callCtx, cancel := context.WithTimeout(ctx, t.config.CallTimeout)
	defer cancel()

	prompt := genai.Text(gcp.TaggerUserPrompt + text)
	resp, err := t.vertex.TaggerModel.GenerateContent(callCtx, prompt)
	if err != nil {
		return models.TagResult{}, &TransportError{Err: err}
	}

	raw := collectText(resp)
	result, ok := ParseResponse(raw)
	if !ok {
		slog.Warn("Tagger response was not parseable, degrading to empty result.",
			"responseLength", len(raw))
	}
	return result, nil
}

// collectText concatenates all text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
