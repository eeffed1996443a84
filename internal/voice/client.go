// Package voice - тонкий мост к ElevenLabs: синтез речи, signed URL для
// разговорного агента и сценарий "дуэта" LEO/LUNA.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxErrorBody = 512

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

// TextToSpeech возвращает mp3 с озвученным текстом
func (c *Client) TextToSpeech(ctx context.Context, voiceID, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
	})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, url.PathEscape(voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	return c.do(req)
}

// SignedURL выдает одноразовый URL для подключения браузера к агенту
func (c *Client) SignedURL(ctx context.Context, agentID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/convai/conversation/get-signed-url?agent_id=%s", c.baseURL, url.QueryEscape(agentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	raw, err := c.do(req)
	if err != nil {
		return "", err
	}
	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("voice: decode signed url: %w", err)
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("voice: empty signed_url in response")
	}
	return out.SignedURL, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("xi-api-key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ThrottleError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Cause:      &StatusError{Code: resp.StatusCode, Body: truncate(data)},
		}
	case resp.StatusCode >= 300:
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(data)}
	}
	return data, nil
}

func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
