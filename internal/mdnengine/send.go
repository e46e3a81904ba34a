package mdnengine

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Send POSTs a stored MDN's bytes to its async return URL, matching the
// partner's original receipt-delivery-option (spec §4.7 Send).
func Send(ctx context.Context, returnURL string, headers map[string]string, body []byte, timeout time.Duration) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, returnURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build async mdn request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver async mdn: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("async mdn delivery rejected with status %d", resp.StatusCode)
	}
	return nil
}
