package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

// openaiExtractor extracts bills with an OpenAI chat model in JSON mode.
// It is text-only: invoices whose PDFs carry no text layer should use the
// gemini provider, which reads the document bytes directly.
type openaiExtractor struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func newOpenAIExtractor(apiKey, model string) (*openaiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingAPIKey)
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &openaiExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logger.WithComponent("extract-openai"),
	}, nil
}

func (o *openaiExtractor) ProviderName() string { return "openai" }

func (o *openaiExtractor) ExtractBill(ctx context.Context, in Input) (*models.ExtractedBill, error) {
	if in.Text == "" {
		o.log.Warn().Msg("No text layer in document; openai provider cannot read PDF bytes")
	}

	prompt := BuildPrompt(in.Text, in.Context)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrExtractionFailed)
	}

	return parseResponse(resp.Choices[0].Message.Content)
}
