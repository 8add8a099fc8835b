package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/rdacruz/maintdash/internal/common"
)

var testSigningKey = []byte("test-signing-key")

// mintToken issues a short HS256 token the way the backend would.
func mintToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return tok
}

func requireBearer(t *testing.T, r *http.Request, want string) {
	t.Helper()
	require.Equal(t, "Bearer "+want, r.Header.Get("Authorization"))
}

func TestAuthenticate_Success(t *testing.T) {
	token := mintToken(t, "u-1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "admin", req.Username)
		require.Equal(t, "admin123", req.Password)
		require.True(t, req.RememberMe)
		require.NotEmpty(t, req.DeviceID)

		_ = json.NewEncoder(w).Encode(loginResponse{
			AccessToken: token,
			ExpiresIn:   3600,
			RememberMe:  true,
		})
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	res, err := c.Authenticate(context.Background(), Credentials{
		Username: "admin", Password: "admin123", RememberMe: true,
	})
	require.NoError(t, err)
	require.Equal(t, token, res.Token)
	require.Equal(t, time.Hour, res.ExpiresIn)
	require.True(t, res.RememberMe)
}

func TestAuthenticate_BadCredentials_MapsToUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(errorResponse{Message: "invalid credentials"})
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	_, err := c.Authenticate(context.Background(), Credentials{Username: "x", Password: "y"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	require.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthenticate_NetworkError_MapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewRESTClient(srv.URL)
	_, err := c.Authenticate(context.Background(), Credentials{Username: "x", Password: "y"})
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestFetchCurrentUser_SendsBearerAndParsesProfile(t *testing.T) {
	token := mintToken(t, "u-7")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/me", r.URL.Path)
		requireBearer(t, r, token)

		_ = json.NewEncoder(w).Encode(userResponse{
			ID: "u-7", Username: "maria", FullName: "Maria Gusmao", Role: "technician",
		})
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	user, err := c.FetchCurrentUser(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "u-7", user.ID)
	require.Equal(t, "maria", user.Username)
	require.Equal(t, "technician", user.Role)
}

func TestRefresh_ParsesReferenceClock(t *testing.T) {
	token := mintToken(t, "u-1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/refresh", r.URL.Path)
		requireBearer(t, r, token)

		_ = json.NewEncoder(w).Encode(refreshResponse{
			DiliTime:                 "2025-06-01 21:30:00",
			TimeUntilMidnightSeconds: 9000,
			Message:                  "ok",
		})
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	res, err := c.Refresh(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "2025-06-01 21:30:00", res.ServerTime)
	require.Equal(t, int64(9000), res.SecondsUntilMidnight)
	require.Equal(t, "ok", res.Message)
}

func TestRefresh_Expired_MapsToUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	_, err := c.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestLogout_AcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	require.NoError(t, c.Logout(context.Background(), "tok"))
}

func TestListSessions_ParsesRegistry(t *testing.T) {
	token := mintToken(t, "u-1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/sessions/u-1", r.URL.Path)
		requireBearer(t, r, token)

		_ = json.NewEncoder(w).Encode([]remoteSessionDTO{
			{Token: "tok-a", DeviceName: "web", LastSeen: "2025-06-01T09:00:00Z", Current: true},
			{Token: "tok-b", DeviceName: "mobile", Current: false},
		})
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	sessions, err := c.ListSessions(context.Background(), token, "u-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "tok-a", sessions[0].Token)
	require.True(t, sessions[0].Current)
	require.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), sessions[0].LastSeen)
	require.Equal(t, "mobile", sessions[1].DeviceName)
	require.True(t, sessions[1].LastSeen.IsZero())
}

func TestRevokeSession_EscapesTokenInPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	require.NoError(t, c.RevokeSession(context.Background(), "mine", "tok/123"))
	require.Equal(t, "/auth/sessions/tok%2F123/revoke", gotPath)
}

func TestRevokeSession_ServerError_ReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(errorResponse{Message: "session already revoked"})
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL)
	err := c.RevokeSession(context.Background(), "mine", "tok-123")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "session already revoked", apiErr.Message)
}

func TestDeviceID_StableAcrossCalls(t *testing.T) {
	c := NewRESTClient("http://example.invalid")
	require.NotEmpty(t, c.DeviceID())
	require.Equal(t, c.DeviceID(), c.DeviceID())
}
