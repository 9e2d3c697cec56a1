package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxErrorBodyBytes = 512

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient returns a Client for the bridge at baseURL. The timeout
// bounds every call; a slow provider fails that single request only.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewHTTPClientFactory returns a ClientFactory producing HTTP clients that
// share one timeout.
func NewHTTPClientFactory(timeout time.Duration) ClientFactory {
	return func(baseURL, apiKey string) Client {
		return NewHTTPClient(baseURL, apiKey, timeout)
	}
}

func (c *httpClient) CreateInstance(ctx context.Context, name string) (*Instance, error) {
	var instance Instance
	err := c.do(ctx, http.MethodPost, "/api/instances", map[string]string{"name": name}, &instance)
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (c *httpClient) GetInstance(ctx context.Context, instanceID string) (*Instance, error) {
	var instance Instance
	err := c.do(ctx, http.MethodGet, "/api/instances/"+url.PathEscape(instanceID), nil, &instance)
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (c *httpClient) GetQRCode(ctx context.Context, instanceID string) (*QRCode, error) {
	var qr QRCode
	err := c.do(ctx, http.MethodGet, "/api/instances/"+url.PathEscape(instanceID)+"/qr", nil, &qr)
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (c *httpClient) SendMessage(ctx context.Context, instanceID string, req SendMessageRequest) (*SendMessageResponse, error) {
	var resp SendMessageResponse
	err := c.do(ctx, http.MethodPost, "/api/instances/"+url.PathEscape(instanceID)+"/messages", req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) DeleteInstance(ctx context.Context, instanceID string) error {
	return c.do(ctx, http.MethodDelete, "/api/instances/"+url.PathEscape(instanceID), nil, nil)
}

func (c *httpClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	fullURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("method", method).
			Str("path", path).
			Dur("elapsed", elapsed).
			Msg("provider request error")
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		log.Error().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("provider request failed")
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("provider request ok")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
