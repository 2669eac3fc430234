package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"designmate/internal/common/middleware"
)

// ============================================================
// Remote Session Verifier
// ============================================================

var ErrUnauthorized = fmt.Errorf("session rejected: %w", middleware.ErrUnauthenticated)

// RemoteVerifier резолвит bearer токены через auth сервис (/internal/session).
// Сетевые ошибки и 5xx повторяются, 401 возвращается сразу.
type RemoteVerifier struct {
	baseURL string
	client  *retryablehttp.Client
}

func NewRemoteVerifier(baseURL string) *RemoteVerifier {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 100 * time.Millisecond
	c.RetryWaitMax = time.Second
	c.HTTPClient.Timeout = 5 * time.Second
	c.Logger = slog.Default()
	c.ResponseLogHook = logResponse
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  c,
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/internal/session", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized
	default:
		return "", fmt.Errorf("auth service: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("auth service: decode session: %w", err)
	}
	if body.UserID == "" {
		return "", ErrUnauthorized
	}
	return body.UserID, nil
}

func logResponse(_ retryablehttp.Logger, r *http.Response) {
	if r.StatusCode >= 500 {
		slog.Warn("auth service response", "method", r.Request.Method, "url", r.Request.URL, "status", r.StatusCode)
	}
}
