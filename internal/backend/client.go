// Package backend is the HTTP client for a remote vision backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/franckalain/ecoscan/internal/models"
	"github.com/sirupsen/logrus"
)

// AnalyzePath is the endpoint every vision backend exposes
const AnalyzePath = "/analyze-image"

const maxResponseBytes = 1 << 20

// BackendError is returned for non-2xx responses and for 2xx responses carrying an
// error field. Message is empty when the backend gave no explanation.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vision backend returned status %d", e.Status)
	}
	return fmt.Sprintf("vision backend returned status %d: %s", e.Status, e.Message)
}

// Client submits images to a vision backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the overall request timeout on a copy of the HTTP client,
// leaving a client passed to WithHTTPClient untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// NewClient creates a client for the backend at baseURL (scheme://host[:port][/prefix])
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        logrus.WithField("component", "backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts the image as multipart field "image" and decodes the result.
func (c *Client) Submit(ctx context.Context, image []byte, mimeType string) (*models.AnalysisResult, error) {
	body, contentType, err := encodeImage(image, mimeType)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling vision backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading vision backend response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"bytes":    len(image),
		"duration": time.Since(start),
	}).Debug("vision backend responded")

	var envelope struct {
		Error string `json:"error"`
	}
	envErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{Status: resp.StatusCode, Message: envelope.Error}
	}
	if envErr != nil {
		return nil, &BackendError{Status: resp.StatusCode, Message: "invalid response from vision backend"}
	}
	if envelope.Error != "" {
		return nil, &BackendError{Status: resp.StatusCode, Message: envelope.Error}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &BackendError{Status: resp.StatusCode, Message: "invalid response from vision backend"}
	}
	if result.FootprintUnit == "" {
		result.FootprintUnit = models.UnitGramsCO2
	}
	return &result, nil
}

func encodeImage(image []byte, mimeType string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, fileName(mimeType)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("writing multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func fileName(mimeType string) string {
	exts, _ := mime.ExtensionsByType(mimeType)
	if len(exts) == 0 {
		return "upload"
	}
	return "upload" + exts[0]
}
