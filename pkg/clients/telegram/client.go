// Package telegram is a minimal Telegram Bot API client covering the
// three calls the webhook path needs: getFile, file download and
// sendMessage.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

type Client struct {
	baseURL string
	token   string

	httpClient *http.Client
}

// NewClient constructs a Bot API client for token.
func NewClient(token string) (*Client, error) {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

// NewClientWithBaseURL allows pointing the client at a different API
// origin, mainly for tests.
func NewClientWithBaseURL(token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, errors.New("empty bot token")
	}
	if baseURL == "" {
		return nil, errors.New("empty base URL")
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// GetFile resolves a file identifier into a download path.
func (c *Client) GetFile(ctx context.Context, fileID string) (string, error) {
	u := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.baseURL, c.token, url.QueryEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("getFile request: %w", err)
	}
	defer resp.Body.Close()

	var body getFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("getFile response: %w", err)
	}
	if !body.OK || body.Result == nil || body.Result.FilePath == "" {
		if body.Description != "" {
			return "", fmt.Errorf("getFile failed: %s", body.Description)
		}
		return "", fmt.Errorf("getFile failed: status %d", resp.StatusCode)
	}
	return body.Result.FilePath, nil
}

// Download fetches the file bytes for a path returned by GetFile and
// reports the response content type alongside.
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, string, error) {
	u := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("file download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("file download failed: status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("file download read: %w", err)
	}
	return b, resp.Header.Get("Content-Type"), nil
}

// SendMessage posts a chat message. Callers on the webhook path treat
// this as best-effort and only log failures.
func (c *Client) SendMessage(ctx context.Context, msg SendMessageRequest) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage failed: status %d", resp.StatusCode)
	}
	return nil
}
