// Package uploads talks to the external image store. The core only ever
// needs the hosted URL an upload returns.
package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/trove-market/trove/internal/shared"
)

// Store accepts binary uploads and returns a retrievable URL.
type Store interface {
	Upload(ctx context.Context, file io.Reader, folder, fileName string) (string, error)
}

// Deleter removes a previously hosted file. Used by the cleanup worker
// for images whose item never got persisted.
type Deleter interface {
	Delete(ctx context.Context, hostedURL string) error
}

// Client is an HTTP implementation of Store.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a Client for the image store endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Store = (*Client)(nil)

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload streams the file as multipart form data and returns the hosted
// URL. Any transport or remote failure maps to ErrUpload so the create
// path can abort without persisting a partial item.
func (c *Client) Upload(ctx context.Context, file io.Reader, folder, fileName string) (string, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		if err := form.WriteField("folder", folder); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := form.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUpload, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: image store returned status %d", shared.ErrUpload, resp.StatusCode)
	}

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", shared.ErrUpload, err)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("%w: empty url in response", shared.ErrUpload)
	}
	return payload.URL, nil
}

// Delete asks the image store to remove a hosted file.
func (c *Client) Delete(ctx context.Context, hostedURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/upload", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpload, err)
	}
	q := req.URL.Query()
	q.Set("url", hostedURL)
	req.URL.RawQuery = q.Encode()
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: image store returned status %d", shared.ErrUpload, resp.StatusCode)
	}
	return nil
}

var _ Deleter = (*Client)(nil)
