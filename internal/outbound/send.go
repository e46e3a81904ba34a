package outbound

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/as2gw/gateway/internal/as2crypto"
)

// SendResult carries the partner's HTTP response, used by the caller to
// extract a synchronous MDN when one was requested.
type SendResult struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Send POSTs a built AS2 message to the partner's target URL (spec §4.5
// / pyas2 as2lib.send_message), honoring HTTP basic auth and a
// partner-pinned CA certificate when configured.
func Send(ctx context.Context, targetURL string, headers map[string]string, body []byte,
	httpAuthUser, httpAuthPass, httpsCACertPEM string, timeout time.Duration) (*SendResult, error) {

	client := &http.Client{Timeout: timeout}
	if httpsCACertPEM != "" {
		certs, err := as2crypto.ParseCertChain(httpsCACertPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse https ca certificate: %w", err)
		}
		pool := x509.NewCertPool()
		for _, c := range certs {
			pool.AddCert(c)
		}
		client.Transport = &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if httpAuthUser != "" {
		req.SetBasicAuth(httpAuthUser, httpAuthPass)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message to partner: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read partner response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("partner responded with status %d", resp.StatusCode)
	}

	return &SendResult{StatusCode: resp.StatusCode, Headers: resp.Header, Body: respBody}, nil
}

// HeaderMap collapses the partner's HTTP response headers to a
// single-valued map, the form mdnengine.Parse expects for a
// synchronous MDN carried in the response body.
func (r *SendResult) HeaderMap() map[string]string {
	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}
