// Package extract turns invoice documents into structured bill records via
// multimodal AI inference.
//
// The package assembles a deterministic prompt embedding the organization's
// chart of accounts, configured taxes and jurisdiction context, sends it to
// the configured provider (Gemini by default, with raw PDF bytes attached for
// multimodal reading of scanned invoices), and parses the strict-JSON reply
// into a models.ExtractedBill. The model's output is never trusted: due-date
// defaulting is re-applied locally, and all downstream validation happens in
// the resolver and assembler layers.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

// Input is one document to extract.
type Input struct {
	// Text is the PDF's embedded text layer; may be empty for scans.
	Text string

	// PDF is the raw document, attached to the request when the provider
	// supports multimodal input.
	PDF []byte

	// Context is the reference data and organization identity for the
	// prompt.
	Context PromptContext
}

// Extractor is a single AI extraction backend.
type Extractor interface {
	// ExtractBill runs one inference call and returns the parsed bill.
	// Returns ErrExtractionFailed when the model output is empty or not
	// valid JSON.
	ExtractBill(ctx context.Context, in Input) (*models.ExtractedBill, error)

	// ProviderName identifies the backend ("gemini", "openai").
	ProviderName() string
}

// Config selects and configures an extraction provider.
type Config struct {
	Provider string // "gemini" (default) or "openai"

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey string
	OpenAIModel  string
}

// New creates the configured extraction provider.
func New(ctx context.Context, cfg Config) (Extractor, error) {
	switch cfg.Provider {
	case "", "gemini":
		return newGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "openai":
		return newOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("%w: %s (supported: gemini, openai)", ErrUnknownProvider, cfg.Provider)
	}
}

// parseResponse strips markdown code fences from the model reply and decodes
// the bill. The due-date default (date + 30 days) is enforced here rather
// than trusted to the model.
func parseResponse(raw string) (*models.ExtractedBill, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrExtractionFailed)
	}

	var bill models.ExtractedBill
	if err := json.Unmarshal([]byte(cleaned), &bill); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	bill.ApplyDueDateDefault()
	return &bill, nil
}
