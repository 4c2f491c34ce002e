// Package yandex implements the catalog gateway against the Yandex
// Music HTTP API. Every call is OAuth-authenticated, rate limited by an
// adaptive limiter, and retried within the caller's context budget.
package yandex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"wavebot/internal/logging"
	"wavebot/pkg/retrylimit"

	_ "github.com/bdandy/go-socks4" // registers socks4:// with x/net/proxy
	simplejson "github.com/bitly/go-simplejson"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
)

const defaultBaseURL = "https://api.music.yandex.net"

// Fallback resolves a stream URL by other means when the direct
// download-info flow yields nothing (see catalog/fallback).
type Fallback interface {
	ResolveStreamURL(ctx context.Context, title, artist string) (string, error)
}

// Client talks to the Yandex Music API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	limiter *retrylimit.AdaptiveLimiter
	log     zerolog.Logger

	fallback Fallback

	mu  sync.Mutex
	uid string // account uid, fetched lazily for library endpoints
}

// Option tweaks a Client.
type Option func(*Client)

// WithBaseURL overrides the API host (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithFallback installs a secondary stream URL resolver.
func WithFallback(f Fallback) Option {
	return func(c *Client) { c.fallback = f }
}

// WithProxy routes all API traffic through a socks4:// or socks5:// proxy.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		u, err := url.Parse(proxyURL)
		if err != nil {
			c.log.Error().Err(err).Str("proxy", proxyURL).Msg("invalid proxy url, ignoring")
			return
		}
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			c.log.Error().Err(err).Str("proxy", proxyURL).Msg("unsupported proxy, ignoring")
			return
		}
		c.http.Transport = &http.Transport{
			Dial: dialer.Dial,
		}
		c.log.Info().Str("proxy", u.Host).Msg("catalog traffic proxied")
	}
}

// New builds an authenticated client.
func New(token string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		token:   token,
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 10, 1, 0.5),
		log:     logging.For("yandex"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON performs a rate-limited, retried GET and returns the parsed body.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (*simplejson.Json, error) {
	var body *simplejson.Json
	err := retrylimit.WithRetry(ctx, func() error {
		b, err := c.doGet(ctx, path, query)
		if err != nil {
			return classifyStatus(err)
		}
		body = b
		return nil
	}, c.limiter)
	return body, err
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values) (*simplejson.Json, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{path: path, status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return simplejson.NewJson(raw)
}

// apiError carries the HTTP status so the retry layer can tell rate
// limits and server errors apart (retrylimit.HTTPError).
type apiError struct {
	path   string
	status int
}

func (e *apiError) Error() string   { return fmt.Sprintf("yandex api: %s returned %d", e.path, e.status) }
func (e *apiError) StatusCode() int { return e.status }

// classifyStatus marks 4xx answers (other than 429) as not worth retrying.
func classifyStatus(err error) error {
	var api *apiError
	if errors.As(err, &api) && api.status >= 400 && api.status < 500 && api.status != http.StatusTooManyRequests {
		return &retrylimit.FatalError{Err: err}
	}
	return err
}

// userID returns the account uid, fetching /account/status on first use.
func (c *Client) userID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != "" {
		return c.uid, nil
	}

	body, err := c.getJSON(ctx, "/account/status", nil)
	if err != nil {
		return "", fmt.Errorf("account status: %w", err)
	}
	uid := body.GetPath("result", "account", "uid")
	if id, err := uid.Int64(); err == nil && id > 0 {
		c.uid = fmt.Sprint(id)
		return c.uid, nil
	}
	if id, err := uid.String(); err == nil && id != "" {
		c.uid = id
		return c.uid, nil
	}
	return "", fmt.Errorf("account status: no uid in response")
}
