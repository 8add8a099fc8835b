package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rdacruz/maintdash/internal/client/models"
	"github.com/rdacruz/maintdash/internal/common"
)

const (
	// DefaultTimeout bounds a single request round-trip.
	DefaultTimeout = 10 * time.Second

	// maxResponseSize caps response bodies read into memory.
	maxResponseSize = 1 << 20 // 1MB

	userAgent = "maintdash-client/1.0"
)

// RESTClient is the HTTP implementation of Gateway.
//
// It is safe for concurrent use. The device ID is generated once per client
// and sent on login so the server-side session registry can label the
// session.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	deviceID   string
}

// NewRESTClient creates a Gateway talking to the given base URL
// (e.g. "https://api.example.org").
func NewRESTClient(baseURL string) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		deviceID:   uuid.NewString(),
	}
}

// WithTimeout sets the per-request timeout.
func (c *RESTClient) WithTimeout(timeout time.Duration) *RESTClient {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func (c *RESTClient) WithHTTPClient(hc *http.Client) *RESTClient {
	c.httpClient = hc
	return c
}

// DeviceID returns the per-install device identifier sent on login.
func (c *RESTClient) DeviceID() string {
	return c.deviceID
}

// Wire DTOs. Field names follow the backend contract.

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
	DeviceID   string `json:"device_id"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	RememberMe  bool   `json:"remember_me"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type refreshResponse struct {
	DiliTime                 string `json:"dili_time"`
	TimeUntilMidnightSeconds int64  `json:"time_until_midnight_seconds"`
	Message                  string `json:"message"`
}

type remoteSessionDTO struct {
	Token      string `json:"token"`
	DeviceName string `json:"device_name"`
	LastSeen   string `json:"last_seen"`
	Current    bool   `json:"current"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *RESTClient) Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error) {
	req := loginRequest{
		Username:   creds.Username,
		Password:   creds.Password,
		RememberMe: creds.RememberMe,
		DeviceID:   c.deviceID,
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "login response missing access_token"}
	}

	return &AuthResult{
		Token:      resp.AccessToken,
		ExpiresIn:  time.Duration(resp.ExpiresIn) * time.Second,
		RememberMe: resp.RememberMe,
	}, nil
}

func (c *RESTClient) FetchCurrentUser(ctx context.Context, token string) (*models.UserProfile, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return &models.UserProfile{
		ID:       resp.ID,
		Username: resp.Username,
		FullName: resp.FullName,
		Role:     resp.Role,
	}, nil
}

func (c *RESTClient) Refresh(ctx context.Context, token string) (*RefreshResult, error) {
	var resp refreshResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", token, nil, &resp); err != nil {
		return nil, err
	}
	return &RefreshResult{
		ServerTime:           resp.DiliTime,
		SecondsUntilMidnight: resp.TimeUntilMidnightSeconds,
		Message:              resp.Message,
	}, nil
}

func (c *RESTClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *RESTClient) ListSessions(ctx context.Context, token, userID string) ([]models.RemoteSession, error) {
	var resp []remoteSessionDTO
	path := "/auth/sessions/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}

	sessions := make([]models.RemoteSession, 0, len(resp))
	for _, s := range resp {
		rs := models.RemoteSession{
			Token:      s.Token,
			DeviceName: s.DeviceName,
			Current:    s.Current,
		}
		if s.LastSeen != "" {
			if ts, err := time.Parse(time.RFC3339, s.LastSeen); err == nil {
				rs.LastSeen = ts
			}
		}
		sessions = append(sessions, rs)
	}
	return sessions, nil
}

func (c *RESTClient) RevokeSession(ctx context.Context, token, otherToken string) error {
	path := "/auth/sessions/" + url.PathEscape(otherToken) + "/revoke"
	return c.do(ctx, http.MethodPost, path, token, nil, nil)
}

// do performs one JSON round-trip. A nil body sends no payload; a nil out
// discards the response body. Errors are mapped to the shared sentinels:
// transport failures to common.ErrUnavailable, 401/403 to
// common.ErrUnauthorized, and other non-2xx statuses to *APIError.
func (c *RESTClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapStatusError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readBody reads the response body with a size cap.
func readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == maxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", maxResponseSize)
	}
	return data, nil
}

func mapStatusError(status int, body []byte) error {
	msg := ""
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		msg = er.Message
	} else {
		msg = strings.TrimSpace(string(body))
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", common.ErrUnauthorized, msg)
		}
		return common.ErrUnauthorized
	default:
		return &APIError{Status: status, Message: msg}
	}
}
