package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/receiptgw/receipt-gateway/pkg/logger"
	"google.golang.org/genai"
)

// Extractor sends a receipt image plus an instruction prompt to a
// multimodal model and returns the raw text it produced.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// GeminiExtractor calls the Gemini API. The client is stateless per call,
// so a single instance is shared by all concurrent analyses.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiExtractor{
		client: client,
		model:  model,
	}, nil
}

func (e *GeminiExtractor) Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	start := time.Now()
	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from model")
	}

	logger.Debug("extraction call completed", "model", e.model, "latency", time.Since(start).String(), "image_bytes", len(image))

	return text, nil
}
