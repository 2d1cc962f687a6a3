package extract

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

// geminiExtractor extracts bills with Google Gemini. The model is run in
// strict-JSON mode and receives the raw PDF as an inline blob alongside the
// prompt, so scanned invoices without a text layer still extract.
type geminiExtractor struct {
	client    *genai.Client
	modelName string
	log       zerolog.Logger
}

func newGeminiExtractor(ctx context.Context, apiKey, modelName string) (*geminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingAPIKey)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("extract: create gemini client: %w", err)
	}

	return &geminiExtractor{
		client:    client,
		modelName: modelName,
		log:       logger.WithComponent("extract-gemini"),
	}, nil
}

func (g *geminiExtractor) ProviderName() string { return "gemini" }

func (g *geminiExtractor) ExtractBill(ctx context.Context, in Input) (*models.ExtractedBill, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.GenerationConfig.ResponseMIMEType = "application/json"

	prompt := BuildPrompt(in.Text, in.Context)

	parts := []genai.Part{genai.Text(prompt)}
	if len(in.PDF) > 0 {
		parts = append(parts, genai.Blob{MIMEType: "application/pdf", Data: in.PDF})
	}

	g.log.Debug().
		Str("model", g.modelName).
		Int("prompt_len", len(prompt)).
		Bool("multimodal", len(in.PDF) > 0).
		Msg("Sending extraction request")

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return parseResponse(responseText(resp))
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}
