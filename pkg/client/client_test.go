package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestSuccessUnwrapsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/stats", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"totalUsers": 7, "growthPercent": 12.5},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithToken("tok"))
	require.NoError(t, err)

	res := c.DashboardStats(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, int64(7), res.Data.TotalUsers)
	assert.Equal(t, 12.5, res.Data.GrowthPercent)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestServerErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"error":   "EMAIL_NOT_VERIFIED",
			"message": "Email not verified",
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	res := c.SignIn(context.Background(), "a@example.com", "password123", true)
	assert.False(t, res.Success)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", res.Error)
	assert.Equal(t, "Email not verified", res.Message)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	res := c.Health(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, NetworkError, res.Error)
}

func TestSignInStoresToken(t *testing.T) {
	var lastAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/auth/sign-in/email":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": "session-1"}})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "u1"}})
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	require.True(t, c.SignIn(context.Background(), "a@example.com", "pw", false).Success)
	me := c.Me(context.Background())
	require.True(t, me.Success)
	assert.Equal(t, "u1", me.Data.ID)
	assert.Equal(t, "Bearer session-1", lastAuth)
}

func TestListUsersEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "ADMIN", q.Get("role"))
		assert.Equal(t, "false", q.Get("verified"))
		assert.False(t, q.Has("search"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"items": []any{}, "page": 2, "pageSize": 10, "total": 11, "totalPages": 2,
		}})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	verified := false
	res := c.ListUsers(context.Background(), UserQuery{Page: 2, Role: "ADMIN", Verified: &verified})
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data.TotalPages)
}

func TestUploadMediaSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": []any{map[string]any{"key": files[0].Filename}}})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	res := c.UploadMedia(context.Background(), map[string]io.Reader{"a.png": strings.NewReader("png")})
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "a.png", res.Data[0].Key)
}
