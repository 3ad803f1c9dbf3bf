package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/adminkit-backend/api/middleware"
	"github.com/angelmondragon/adminkit-backend/internal/users"
	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	users.Service
	listParams users.ListParams
	created    users.CreateInput
	actor      users.Actor
	bulkIDs    []string
}

func (s *stubUsers) List(_ context.Context, params users.ListParams) (types.Page[models.User], error) {
	s.listParams = params
	return types.NewPage([]models.User{}, params.Page, params.PageSize, 0), nil
}

func (s *stubUsers) Create(_ context.Context, actor users.Actor, input users.CreateInput) (*users.CreateResult, error) {
	s.actor = actor
	s.created = input
	return &users.CreateResult{User: &models.User{ID: "new", Email: input.Email, Role: input.Role}}, nil
}

func (s *stubUsers) BulkDelete(_ context.Context, actor users.Actor, ids []string) (users.BulkResult, error) {
	s.actor = actor
	s.bulkIDs = ids
	return users.BulkResult{Done: len(ids)}, nil
}

func withAdmin(req *http.Request) *http.Request {
	resolved := &session.Resolved{
		User:    &models.User{ID: "admin-1", Role: enums.RoleAdmin},
		Session: &models.Session{ID: "s1"},
	}
	return req.WithContext(middleware.WithSession(req.Context(), resolved, "tok"))
}

func TestAdminUsersListParsesQuery(t *testing.T) {
	svc := &stubUsers{}
	h := AdminUsersList(svc, logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/users?search=%20ann%20&role=admin&verified=true&sortBy=email&sortOrder=asc&page=2&pageSize=5", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ann", svc.listParams.Search)
	assert.Equal(t, enums.RoleAdmin, svc.listParams.Role)
	require.NotNil(t, svc.listParams.Verified)
	assert.True(t, *svc.listParams.Verified)
	assert.Equal(t, "email", svc.listParams.SortBy)
	assert.Equal(t, 2, svc.listParams.Page)
	assert.Equal(t, 5, svc.listParams.PageSize)
	assert.Contains(t, resp.Body.String(), `"items":[]`)
}

func TestAdminUsersListRejectsBadFilters(t *testing.T) {
	h := AdminUsersList(&stubUsers{}, logger.Nop())

	for _, q := range []string{"role=owner", "verified=maybe", "page=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users?"+q, nil)
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code, q)
	}
}

func TestAdminUsersCreateDefaultsRole(t *testing.T) {
	svc := &stubUsers{}
	h := AdminUsersCreate(svc, logger.Nop())

	req := withAdmin(httptest.NewRequest(http.MethodPost, "/api/users/create", strings.NewReader(`{"email":"new@example.com","name":"New"}`)))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "new@example.com", body.Data["email"])
	assert.Contains(t, body.Data, "notification")
	assert.Equal(t, enums.RoleUser, svc.created.Role)
	assert.Empty(t, svc.created.Password)
	assert.Equal(t, users.Actor{ID: "admin-1", Role: enums.RoleAdmin}, svc.actor)
}

func TestAdminUsersBulkDeleteValidatesIDs(t *testing.T) {
	svc := &stubUsers{}
	h := AdminUsersBulkDelete(svc, logger.Nop())

	req := withAdmin(httptest.NewRequest(http.MethodPost, "/api/users/bulk-delete", strings.NewReader(`{"ids":[]}`)))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	ids := make([]string, users.MaxBulkIDs+1)
	for i := range ids {
		ids[i] = `"x"`
	}
	req = withAdmin(httptest.NewRequest(http.MethodPost, "/api/users/bulk-delete", strings.NewReader(`{"ids":[`+strings.Join(ids, ",")+`]}`)))
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	req = withAdmin(httptest.NewRequest(http.MethodPost, "/api/users/bulk-delete", strings.NewReader(`{"ids":["a","b"]}`)))
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"a", "b"}, svc.bulkIDs)
	assert.Contains(t, resp.Body.String(), `"done":2`)
}

func TestControllersGuardNilService(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminUsersGet(nil, logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/users/x", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
