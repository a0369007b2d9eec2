package ml

import (
	"context"
	"fmt"

	"github.com/franckalain/ecoscan/internal/models"
)

// Model represents a machine learning model that can process images
type Model interface {
	// Load initializes the model with its configuration
	Load(ctx context.Context) error
	// ProcessImage takes an image and returns the object, material and footprint estimate
	ProcessImage(ctx context.Context, imageData []byte, mimeType string) (*models.AnalysisResult, error)
}

// ModelFactory creates a new model instance based on configuration
type ModelFactory interface {
	// CreateModel creates a new model instance
	CreateModel() (Model, error)
}

// NewModel creates a new model instance based on cfg.Type
func NewModel(cfg Config) (Model, error) {
	var factory ModelFactory

	switch cfg.Type {
	case "google":
		google := cfg.Google
		google.applyEnv()
		factory = NewGoogleModelFactory(google)
	case "gemini":
		gemini := cfg.Gemini
		gemini.applyEnv()
		factory = NewGeminiModelFactory(gemini)
	case "local", "":
		factory = NewLocalModelFactory(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported model type: %s", cfg.Type)
	}
	return factory.CreateModel()
}
