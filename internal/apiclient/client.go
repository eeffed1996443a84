// Package apiclient читает API дашборда так же, как фронтенд:
// сначала живой эндпоинт, при сбое статическая фикстура из /mocks.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxErrorBody = 256

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, logger: logger.Named("apiclient")}
}

// Fetch декодирует primary в dst. Если primary ответил не 2xx или прислал
// некорректный JSON, читается fallback. Ошибка возвращается, только когда
// не удалось ни то ни другое, и содержит обе причины.
func (c *Client) Fetch(ctx context.Context, primary, fallback string, dst any) error {
	primaryErr := c.get(ctx, primary, dst)
	if primaryErr == nil {
		return nil
	}
	if fallback == "" {
		return primaryErr
	}
	c.logger.Warn("primary fetch failed, using fallback",
		zap.String("primary", primary),
		zap.String("fallback", fallback),
		zap.Error(primaryErr),
	)
	if err := c.get(ctx, fallback, dst); err != nil {
		return fmt.Errorf("%v; fallback: %w", primaryErr, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// Сначала в буфер: при ошибке декодирования dst не должен остаться наполовину заполненным
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if !json.Valid(raw) {
		return fmt.Errorf("GET %s: %w", path, ErrBadPayload)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("GET %s: %w: %v", path, ErrBadPayload, err)
	}
	return nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

var ErrBadPayload = errors.New("unexpected payload")

// StatusError - ответ вне диапазона 2xx
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.Path, e.Code, e.Body)
}
