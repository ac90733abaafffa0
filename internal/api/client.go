// Package api: HTTP-клиент серверного API сообщества.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/linen/internal/logger"
)

// StatusError: сервер ответил не-2xx.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// IsStatus: true, если err несёт StatusError с кодом code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type Options struct {
	BaseURL     string
	Token       string
	CommunityID string
	Timeout     time.Duration
	// RequestRate: запросов в секунду; 0 без ограничения.
	RequestRate float64
	Burst       int
	HTTPClient  *http.Client
}

// Client вызывает API сообщества от имени текущего пользователя.
type Client struct {
	baseURL     string
	token       string
	communityID string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestRate > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestRate), burst)
	}
	return &Client{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		token:       opts.Token,
		communityID: opts.CommunityID,
		httpClient:  hc,
		limiter:     limiter,
	}
}

// do отправляет in как JSON и декодирует ответ в out (если out != nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	defer logger.DeferLogDuration("api."+method+" "+path, time.Now())()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("api: rate limit: %w", err)
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: request %s: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// Пустое тело при 2xx: ответ без данных, out остаётся нулевым.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}
