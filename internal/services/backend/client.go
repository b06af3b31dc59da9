package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"deckify/internal/config"
	"deckify/internal/services"
)

const (
	serviceName        = "backend"
	defaultHTTPTimeout = 60 * time.Second
	maxErrorBodyBytes  = 2048
	imageFieldName     = "image"
	pageIDFieldName    = "page_id"
	imageMIMEType      = "image/jpeg"
)

// HTTPDoer describes the HTTP client used by the backend client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server returned an error status (http %d)", e.StatusCode)
	}
	return fmt.Sprintf("server returned an error status (http %d): %s", e.StatusCode, body)
}

// Client talks to the page analysis backend.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// NewClient constructs a backend client from configuration.
func NewClient(cfg config.Backend, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AnalyzePage uploads one preprocessed page image and returns the decoded
// analysis. pageID is optional; when set it names the upload and is sent as
// the page_id form field.
func (c *Client) AnalyzePage(ctx context.Context, image []byte, pageID string) (PageAnalysis, error) {
	var result PageAnalysis
	if len(image) == 0 {
		return result, services.Wrap(services.ErrValidation, serviceName, "analyze page", "image data is empty", nil)
	}
	pageID = strings.TrimSpace(pageID)

	body, contentType, err := encodeUpload(image, pageID)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, serviceName, "analyze page", "encode upload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-page", body)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, serviceName, "analyze page", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	payload, err := c.do(req, "analyze page")
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return result, services.Wrap(services.ErrDecode, serviceName, "analyze page", "unable to decode response", err)
	}
	return result, nil
}

// Health checks the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, serviceName, "health", "build request", err)
	}
	payload, err := c.do(req, "health")
	if err != nil {
		return err
	}
	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return services.Wrap(services.ErrDecode, serviceName, "health", "unable to decode response", err)
	}
	if !strings.EqualFold(strings.TrimSpace(parsed.Status), "ok") {
		return services.Wrap(services.ErrUnavailable, serviceName, "health", fmt.Sprintf("unexpected status %q", parsed.Status), nil)
	}
	return nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, serviceName, op, "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, serviceName, op, "read response", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet := payload
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return nil, services.Wrap(services.ErrUnavailable, serviceName, op, "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		})
	}
	return payload, nil
}

func encodeUpload(image []byte, pageID string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := pageID
	if filename == "" {
		filename = "page"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, imageFieldName, filename+".jpg"))
	header.Set("Content-Type", imageMIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	if pageID != "" {
		if err := writer.WriteField(pageIDFieldName, pageID); err != nil {
			return nil, "", fmt.Errorf("write page id: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
