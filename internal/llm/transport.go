package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/seoforge/internal/util"
)

const (
	hostedTimeout = 180 * time.Second
	localTimeout  = 300 * time.Second

	// API endpoints never legitimately bounce more than a couple of times
	apiRedirects = 3

	errorBodyLimit = 300
)

// httpClientFor builds the proxy-aware client every adapter talks through
func httpClientFor(config Config, fallback time.Duration) *http.Client {
	timeout := fallback
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	proxy := util.ProxySettings{
		HTTPProxy:  config.HTTPProxy,
		HTTPSProxy: config.HTTPSProxy,
		NoProxy:    config.NoProxy,
	}
	return util.NewHTTPClient(timeout, proxy, apiRedirects)
}

// jsonCall is one POST of a JSON body to a hand-rolled REST backend
type jsonCall struct {
	provider string
	client   *http.Client
	url      string
	header   http.Header

	// errorMessage pulls a readable message out of a non-2xx body
	errorMessage func(body []byte) string
}

// do sends in as JSON and decodes a 2xx answer into out. Other statuses
// become a *StatusError.
func (c jsonCall) do(ctx context.Context, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range c.header {
		req.Header[key] = values
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", c.provider, err)
	}

	if resp.StatusCode/100 != 2 {
		msg := ""
		if c.errorMessage != nil {
			msg = c.errorMessage(body)
		}
		if msg == "" {
			msg = truncate(string(body), errorBodyLimit)
		}
		return &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	return nil
}
