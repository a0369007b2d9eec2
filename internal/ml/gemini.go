package ml

import (
	"context"
	"fmt"

	"github.com/franckalain/ecoscan/internal/models"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiModel talks to the Gemini API with an API key
type GeminiModel struct {
	config GeminiConfig
	client *genai.Client
}

// GeminiModelFactory implements ModelFactory for Gemini API models
type GeminiModelFactory struct {
	config GeminiConfig
}

// NewGeminiModelFactory creates a new Gemini model factory
func NewGeminiModelFactory(config GeminiConfig) *GeminiModelFactory {
	return &GeminiModelFactory{config: config}
}

// CreateModel creates a new Gemini model instance
func (f *GeminiModelFactory) CreateModel() (Model, error) {
	if f.config.APIKey == "" {
		return nil, fmt.Errorf("gemini model: API key is required")
	}
	return &GeminiModel{config: f.config}, nil
}

// Load creates the API client
func (m *GeminiModel) Load(ctx context.Context) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  m.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}
	m.client = client
	return nil
}

// ProcessImage sends the prompt and the image in a single user turn
func (m *GeminiModel) ProcessImage(ctx context.Context, imageData []byte, mimeType string) (*models.AnalysisResult, error) {
	if m.client == nil {
		return nil, fmt.Errorf("model not loaded")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(analysisPrompt),
			genai.NewPartFromBytes(imageData, mimeType),
		}, genai.RoleUser),
	}

	logrus.WithFields(logrus.Fields{
		"component": "ml.gemini",
		"model":     m.config.Model,
		"bytes":     len(imageData),
	}).Debug("Calling the model")

	resp, err := m.client.Models.GenerateContent(ctx, m.config.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call ai: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("no content in response")
	}
	return ParseResponse(text)
}
