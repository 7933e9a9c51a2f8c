// Package httpclient builds the shared outbound client used for the image
// model, the enhancement model and Telegram file downloads.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	PreferIPv4 bool
	Timeout    time.Duration
	// Transport overrides the dialing transport, mainly for tests.
	Transport http.RoundTripper
	Logger    *zerolog.Logger
}

func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	base := opts.Transport
	if base == nil {
		base = newTransport(opts.PreferIPv4)
	}

	if opts.Logger != nil {
		base = &loggingTransport{next: base, logger: *opts.Logger}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: base,
	}
}

func newTransport(preferIPv4 bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if preferIPv4 {
				return dialer.DialContext(ctx, "tcp4", addr)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 15 * time.Second,
		// Image edits can take well over a minute before the first byte.
		ResponseHeaderTimeout: 150 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// loggingTransport records method, host, status and latency of every call.
// URLs are logged without the query string so API keys never reach the log.
type loggingTransport struct {
	next   http.RoundTripper
	logger zerolog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	event := t.logger.Debug()
	if err != nil {
		event = t.logger.Warn().Err(err)
	} else if resp.StatusCode >= 400 {
		event = t.logger.Warn()
	}

	event = event.
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Dur("duration", time.Since(start))
	if resp != nil {
		event = event.Int("status", resp.StatusCode)
	}
	event.Msg("outbound request")

	return resp, err
}
