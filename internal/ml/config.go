package ml

import (
	"os"
)

// Config selects and configures the image model
type Config struct {
	Type   string       `mapstructure:"type"` // "local", "google" or "gemini"
	Google GoogleConfig `mapstructure:"google"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Local  LocalConfig  `mapstructure:"local"`
}

// GoogleConfig holds configuration for the Vertex AI model
type GoogleConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Model           string `mapstructure:"model"`
}

// applyEnv falls back to environment variables for unset values
func (c *GoogleConfig) applyEnv() {
	if c.ProjectID == "" {
		c.ProjectID = os.Getenv("GOOGLE_PROJECT_ID")
	}
	if c.Location == "" {
		c.Location = os.Getenv("GOOGLE_LOCATION")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")
	}
	if c.Model == "" {
		c.Model = "gemini-1.5-flash"
	}
}

// GeminiConfig holds configuration for the Gemini API model
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

func (c *GeminiConfig) applyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
}

// LocalConfig holds configuration for the local mock detector
type LocalConfig struct {
	// Seed for the detector's random source; 0 seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}
