// Package bgremoval strips the background from a logo through a remote
// segmentation service.
package bgremoval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/book-expert/logo-variants-service/internal/logoerr"
)

// DefaultTimeout bounds a single background-removal call.
const DefaultTimeout = 60 * time.Second

const (
	// maxErrorBody caps how much of an error response is kept as diagnostics.
	maxErrorBody = 4096
	// maxResultBody caps the size of a successful response.
	maxResultBody = 64 << 20
)

// ErrMissingAPIKey is returned when the client has no credential configured.
var ErrMissingAPIKey = fmt.Errorf("%w: background removal API key is not set", logoerr.ErrConfiguration)

// Remover removes the background of an encoded image and returns a PNG with alpha.
type Remover interface {
	RemoveBackground(ctx context.Context, image []byte) ([]byte, error)
}

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
}

// Client is the HTTP implementation of Remover. It makes exactly one attempt per call.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	timeout    time.Duration
}

// NewClient creates a Client, applying defaults for zero-value options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		timeout:    timeout,
	}
}

// RemoveBackground posts the image and returns the service's PNG unmodified.
// A missing API key fails before any network activity.
func (c *Client) RemoveBackground(ctx context.Context, image []byte) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: background removal endpoint is not set", logoerr.ErrConfiguration)
	}

	body, contentType, buildErr := buildMultipartBody(image)
	if buildErr != nil {
		return nil, logoerr.Processing("build removal request", buildErr)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if reqErr != nil {
		return nil, fmt.Errorf("%w: invalid endpoint: %w", logoerr.ErrConfiguration, reqErr)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "image/*")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, &logoerr.UpstreamError{Err: doErr}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &logoerr.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(detail),
		}
	}

	result, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResultBody))
	if readErr != nil {
		return nil, &logoerr.UpstreamError{Err: readErr}
	}

	if len(result) == 0 {
		return nil, &logoerr.UpstreamError{Err: errors.New("empty response body")}
	}

	return result, nil
}

// buildMultipartBody encodes the image as a PNG part plus the output_format field.
func buildMultipartBody(image []byte) (*bytes.Buffer, string, error) {
	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}

	if _, err = part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}

	if err = writer.WriteField("output_format", "png"); err != nil {
		return nil, "", fmt.Errorf("write output_format field: %w", err)
	}

	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}

// Passthrough is a Remover that returns its input unchanged, for sources that
// already carry transparency.
type Passthrough struct{}

// RemoveBackground returns image as is.
func (Passthrough) RemoveBackground(_ context.Context, image []byte) ([]byte, error) {
	return image, nil
}
