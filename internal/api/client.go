// Package api is the typed REST client for the marketplace backend.
// It mirrors the backend's JSON surface verbatim; error details are
// passed through so callers can show them to the user unchanged.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tgadmarket/miniapp/internal/util"
)

const initDataHeader = "X-Telegram-Init-Data"

const getMaxRetries = 2

// Error is a non-2xx backend response. Detail is the backend-reported
// message when one was present in the body.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Request failed (%d)", e.StatusCode)
}

// Forbidden reports whether the error is an authorization failure. The
// backend uses both 403 and "not authorized" detail strings.
func (e *Error) Forbidden() bool {
	return e.StatusCode == http.StatusForbidden ||
		strings.Contains(strings.ToLower(e.Detail), "not authorized")
}

// Conflict reports a stale-state rejection (client acted on a deal
// whose server state has since changed).
func (e *Error) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}

type Client struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	initData string
}

// New creates a client for the marketplace API. rps throttles all
// upstream calls; bursts of one keep page requests strictly ordered.
func New(baseURL string, timeout time.Duration, rps float64) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// WithInitData returns a copy of the client that authenticates every
// call with the given Telegram init data blob.
func (c *Client) WithInitData(initData string) *Client {
	clone := *c
	clone.initData = initData
	return &clone
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	if c.initData != "" {
		req.Header.Set(initDataHeader, c.initData)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func decodeInto(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var payload struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
			apiErr.Detail = payload.Detail
		}
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// getJSON performs a GET with bounded retries. Only transport failures
// and 5xx responses are retried; 4xx means the request itself is wrong.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	var permanent error
	err := util.RetryWithBackoff(ctx, getMaxRetries, func(attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		decodeErr := decodeInto(resp, out)
		var apiErr *Error
		if errors.As(decodeErr, &apiErr) && apiErr.StatusCode < 500 {
			permanent = decodeErr
			return nil
		}
		return decodeErr
	})
	if permanent != nil {
		return permanent
	}
	return err
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	return c.sendJSONWithHeader(ctx, method, path, body, out, "", "")
}

func (c *Client) sendJSONWithHeader(ctx context.Context, method, path string, body, out any, headerKey, headerValue string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var reader io.Reader
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, reader, contentType)
	if err != nil {
		return err
	}
	if headerKey != "" {
		req.Header.Set(headerKey, headerValue)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return decodeInto(resp, out)
}

func (c *Client) sendMultipart(ctx context.Context, path, filename string, file io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("creating multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copying upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf, writer.FormDataContentType())
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	return decodeInto(resp, out)
}
