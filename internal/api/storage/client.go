// Package storage uploads photo attachments (dashboard photos, fuel
// receipts) to an object store over its REST API. Uploads are best effort:
// callers keep going when one fails and treat attachment URLs as possibly
// absent.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Client talks to the object store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	bucket     string
}

// NewClient creates a client. An empty baseURL disables uploads, which is
// fine: attachments are optional everywhere.
func NewClient(baseURL, serviceKey, bucket string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
	}
}

// Enabled reports whether an object store is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Upload stores the bytes under a name derived from pathHint and returns
// the public URL.
func (c *Client) Upload(ctx context.Context, data []byte, pathHint string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("object store not configured")
	}

	objectPath := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), sanitizePath(pathHint))
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", http.DetectContentType(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectPath), nil
}

func sanitizePath(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = "anexo"
	}
	return unsafePathChars.ReplaceAllString(hint, "_")
}
