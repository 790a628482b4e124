// Package client talks to the gophauth token API over HTTP.
//
// Server-side failures are mapped onto sentinel errors callers can match with
// errors.Is: common.ErrInvalidRefreshToken for a rejected refresh token,
// ErrUnavailable when the server or its store cannot answer, ErrUnauthorized
// for a missing or wrong admin token, ErrUnknownUser and ErrBadRequest.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Client interface {
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	Revoke(ctx context.Context, refreshToken string) error
	Issue(ctx context.Context, userID string) (*models.Session, error)
}

// HTTPClient implements Client against the HTTP API.
type HTTPClient struct {
	baseURL    string
	adminToken string
	http       *http.Client
}

func NewHTTPClient(baseURL, adminToken string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		http:       hc,
	}
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	var s models.Session
	if err := c.post(ctx, "/token", map[string]string{"refreshToken": refreshToken}, false, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Revoke(ctx context.Context, refreshToken string) error {
	return c.post(ctx, "/token/revoke", map[string]string{"refreshToken": refreshToken}, false, nil)
}

func (c *HTTPClient) Issue(ctx context.Context, userID string) (*models.Session, error) {
	var s models.Session
	if err := c.post(ctx, "/sessions", map[string]string{"userId": userID}, true, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, admin bool, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return mapError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)

	switch body.Error {
	case common.CodeInvalidRefreshToken:
		return common.ErrInvalidRefreshToken
	case common.CodeStoreUnavailable:
		return ErrUnavailable
	case common.CodeUnknownUser:
		return ErrUnknownUser
	case common.CodeUnauthorized:
		return ErrUnauthorized
	case common.CodeInvalidRequest:
		return ErrBadRequest
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return fmt.Errorf("unexpected response: %s; body: %s", resp.Status, string(raw))
}
