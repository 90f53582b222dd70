package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/utils"

	"github.com/rs/zerolog/log"
)

// Client uploads product media to the object-storage HTTP endpoint.
// Uploads are keyed by products/{productID}/{filename}, so retrying a
// PUT is safe: the same content lands under the same key.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	publicBaseURL string
	apiKey        string
	maxRetries    int
	retryDelay    time.Duration
}

// New creates a storage client from configuration.
func New(cfg config.StorageConfig) *Client {
	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = cfg.BaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		publicBaseURL: strings.TrimRight(publicBase, "/"),
		apiKey:        cfg.APIKey,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Second,
	}
}

// ObjectKey builds the canonical storage key for a product file.
func ObjectKey(productID, filename string) string {
	return fmt.Sprintf("products/%s/%s", productID, filename)
}

// Upload stores the content and returns its public URL.
func (c *Client) Upload(ctx context.Context, productID, filename string, content []byte, contentType string) (string, error) {
	if filename == "" {
		return "", utils.ErrEmptyFilename
	}
	if len(content) == 0 {
		return "", utils.ErrEmptyFileContent
	}

	key := ObjectKey(productID, filename)
	url := c.baseURL + "/" + key

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.put(ctx, url, content, contentType); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			if attempt < c.maxRetries {
				log.Warn().
					Err(err).
					Str("key", key).
					Int("attempt", attempt+1).
					Msg("Upload failed, retrying")
				select {
				case <-time.After(c.retryDelay):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
			continue
		}

		publicURL := c.publicBaseURL + "/" + key
		log.Info().Str("key", key).Int("bytes", len(content)).Msg("Upload complete")
		return publicURL, nil
	}

	return "", fmt.Errorf("upload %s: %w", key, lastErr)
}

func (c *Client) put(ctx context.Context, url string, content []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(content))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
