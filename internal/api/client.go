// Package api is the HTTP client for the tariff and cost endpoints.
package api

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

	"golang.org/x/sync/errgroup"

	"github.com/jask/tariffdesk/internal/log"
	"github.com/jask/tariffdesk/internal/tariff"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("api: %s %s: http %d: %s", e.Method, e.Path, e.Code, msg)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPI) }
}

// NewClient returns a client rooted at baseURL ("http://host:8080").
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTariffs loads one year of role tariffs.
func (c *Client) FetchTariffs(ctx context.Context, year int) (YearTariffs, error) {
	var out YearTariffs
	q := url.Values{"anio": {strconv.Itoa(year)}}
	if err := c.do(ctx, http.MethodGet, "/api/tarifas?"+q.Encode(), nil, &out); err != nil {
		return YearTariffs{}, err
	}
	if out.Year == 0 {
		out.Year = year
	}
	return out, nil
}

// FetchWindow loads years Y-1, Y and Y+1 concurrently. The first failure
// cancels the others and is returned. Results are in request order and keep
// the year each response reports.
func (c *Client) FetchWindow(ctx context.Context, year int) ([]tariff.YearData, error) {
	years := []int{year - 1, year, year + 1}
	out := make([]tariff.YearData, len(years))
	g, gctx := errgroup.WithContext(ctx)
	for i, y := range years {
		i, y := i, y
		g.Go(func() error {
			resp, err := c.FetchTariffs(gctx, y)
			if err != nil {
				return fmt.Errorf("fetch tariffs %d: %w", y, err)
			}
			out[i] = resp.YearData()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchCosts loads the project cost report.
func (c *Client) FetchCosts(ctx context.Context) ([]ProjectCost, error) {
	var out []ProjectCost
	if err := c.do(ctx, http.MethodGet, "/api/costos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRole saves one role's changes for one year.
func (c *Client) UpdateRole(ctx context.Context, roleID string, body RoleUpdate) error {
	if body.Cleared == nil {
		body.Cleared = []int{}
	}
	return c.do(ctx, http.MethodPut, "/api/tarifas/"+url.PathEscape(roleID), body, nil)
}

// BulkUpdate saves every change in a single request.
func (c *Client) BulkUpdate(ctx context.Context, items []BulkItem) error {
	return c.do(ctx, http.MethodPut, "/api/tarifas", items, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", log.FieldMethod, method, log.FieldPath, path, log.FieldError, err)
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request done",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: errorText(msg)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorText pulls "error" out of a JSON error body, else returns it raw.
func errorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
