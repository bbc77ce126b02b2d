package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultRetryMax      = 3
	DefaultTimeout       = 5 * time.Minute
	DefaultHeaderTimeout = 30 * time.Second
)

// New returns a retrying client for small responses. Timeout bounds each
// attempt including reading the response body, so it must not be used for
// long transfers.
func New(retryMax int, timeout time.Duration) *retryablehttp.Client {
	return newClient(retryMax, &http.Client{Timeout: timeout})
}

// NewStreaming returns a retrying client for large bodies. Only the wait for
// response headers is bounded; the body may take as long as the request
// context allows.
func NewStreaming(retryMax int, headerTimeout time.Duration) *retryablehttp.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return newClient(retryMax, &http.Client{Transport: transport})
}

func newClient(retryMax int, httpClient *http.Client) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = retryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.CheckRetry = retryPolicy
	client.Logger = slog.Default()
	return client
}

func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if retry {
		if resp != nil {
			slog.Warn("got recoverable HTTP error, retrying", "code", resp.StatusCode)
		} else {
			slog.Warn("request failed, retrying", "err", err)
		}
	}
	return retry, checkErr
}
