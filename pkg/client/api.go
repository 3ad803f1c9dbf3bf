package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// UserQuery filters the admin user list. Zero values are omitted.
type UserQuery struct {
	Page      int
	PageSize  int
	Search    string
	Role      string
	Verified  *bool
	SortBy    string
	SortOrder string
}

func (q UserQuery) values() url.Values {
	v := url.Values{}
	setInt(v, "page", q.Page)
	setInt(v, "pageSize", q.PageSize)
	setString(v, "search", q.Search)
	setString(v, "role", q.Role)
	setString(v, "sortBy", q.SortBy)
	setString(v, "sortOrder", q.SortOrder)
	if q.Verified != nil {
		v.Set("verified", strconv.FormatBool(*q.Verified))
	}
	return v
}

func setInt(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}

func setString(v url.Values, key, s string) {
	if s != "" {
		v.Set(key, s)
	}
}

// Auth

func (c *Client) SignUp(ctx context.Context, email, password, name string) Result[SignUpResult] {
	return call[SignUpResult](ctx, c, http.MethodPost, "/api/auth/sign-up/email", nil, map[string]string{
		"email": email, "password": password, "name": name,
	})
}

// SignIn stores the returned token on success.
func (c *Client) SignIn(ctx context.Context, email, password string, rememberMe bool) Result[SignInResult] {
	res := call[SignInResult](ctx, c, http.MethodPost, "/api/auth/sign-in/email", nil, map[string]any{
		"email": email, "password": password, "rememberMe": rememberMe,
	})
	if res.Success {
		c.SetToken(res.Data.Token)
	}
	return res
}

func (c *Client) SignOut(ctx context.Context) Result[any] {
	res := call[any](ctx, c, http.MethodPost, "/api/auth/sign-out", nil, nil)
	if res.Success {
		c.SetToken("")
	}
	return res
}

// GetSession returns a nil Data pointer when the caller is anonymous.
func (c *Client) GetSession(ctx context.Context) Result[*SessionInfo] {
	return call[*SessionInfo](ctx, c, http.MethodGet, "/api/auth/get-session", nil, nil)
}

func (c *Client) SendVerificationEmail(ctx context.Context, email, callbackURL string) Result[any] {
	return call[any](ctx, c, http.MethodPost, "/api/auth/send-verification-email", nil, map[string]string{
		"email": email, "callbackURL": callbackURL,
	})
}

func (c *Client) ForgotPassword(ctx context.Context, email, redirectTo string) Result[any] {
	return call[any](ctx, c, http.MethodPost, "/api/auth/forget-password", nil, map[string]string{
		"email": email, "redirectTo": redirectTo,
	})
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) Result[any] {
	return call[any](ctx, c, http.MethodPost, "/api/auth/reset-password", nil, map[string]string{
		"token": token, "newPassword": newPassword,
	})
}

// Profile

func (c *Client) Me(ctx context.Context) Result[User] {
	return call[User](ctx, c, http.MethodGet, "/api/user/me", nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, patch map[string]any) Result[User] {
	return call[User](ctx, c, http.MethodPatch, "/api/profile", nil, patch)
}

func (c *Client) UploadAvatar(ctx context.Context, filename string, body io.Reader) Result[User] {
	return upload[User](ctx, c, "/api/profile/avatar", "file", map[string]io.Reader{filename: body})
}

func (c *Client) RemoveAvatar(ctx context.Context) Result[User] {
	return call[User](ctx, c, http.MethodDelete, "/api/profile/avatar", nil, nil)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string, revokeOthers bool) Result[any] {
	return call[any](ctx, c, http.MethodPost, "/api/profile/change-password", nil, map[string]any{
		"currentPassword": current, "newPassword": next, "revokeOtherSessions": revokeOthers,
	})
}

func (c *Client) SetPassword(ctx context.Context, password string) Result[any] {
	return call[any](ctx, c, http.MethodPost, "/api/profile/set-password", nil, map[string]string{"newPassword": password})
}

func (c *Client) UserSettings(ctx context.Context) Result[UserSettings] {
	return call[UserSettings](ctx, c, http.MethodGet, "/api/profile/settings", nil, nil)
}

// UpdateUserSettings sends patch verbatim; a nil value clears that color.
func (c *Client) UpdateUserSettings(ctx context.Context, patch map[string]*string) Result[UserSettings] {
	return call[UserSettings](ctx, c, http.MethodPatch, "/api/profile/settings", nil, patch)
}

// Users

func (c *Client) ListUsers(ctx context.Context, q UserQuery) Result[Page[User]] {
	return call[Page[User]](ctx, c, http.MethodGet, "/api/users", q.values(), nil)
}

func (c *Client) GetUser(ctx context.Context, id string) Result[User] {
	return call[User](ctx, c, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateUser(ctx context.Context, email, name, role, password string) Result[CreateUserResult] {
	return call[CreateUserResult](ctx, c, http.MethodPost, "/api/users/create", nil, map[string]string{
		"email": email, "name": name, "role": role, "password": password,
	})
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch map[string]any) Result[User] {
	return call[User](ctx, c, http.MethodPatch, "/api/users/"+url.PathEscape(id), nil, patch)
}

func (c *Client) DeleteUser(ctx context.Context, id string) Result[any] {
	return call[any](ctx, c, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GeneratePassword(ctx context.Context) Result[map[string]string] {
	return call[map[string]string](ctx, c, http.MethodGet, "/api/users/generate-password", nil, nil)
}

func (c *Client) BulkDeleteUsers(ctx context.Context, ids []string) Result[BulkResult] {
	return call[BulkResult](ctx, c, http.MethodPost, "/api/users/bulk-delete", nil, map[string][]string{"ids": ids})
}

func (c *Client) BulkVerifyUsers(ctx context.Context, ids []string, verified bool) Result[BulkResult] {
	path := "/api/users/bulk-verify"
	if !verified {
		path = "/api/users/bulk-unverify"
	}
	return call[BulkResult](ctx, c, http.MethodPost, path, nil, map[string][]string{"ids": ids})
}

func (c *Client) SetUserVerified(ctx context.Context, id string, verified bool) Result[User] {
	action := "/verify-email"
	if !verified {
		action = "/unverify-email"
	}
	return call[User](ctx, c, http.MethodPost, "/api/users/"+url.PathEscape(id)+action, nil, nil)
}

func (c *Client) SendPasswordReset(ctx context.Context, id string) Result[map[string]Notification] {
	return call[map[string]Notification](ctx, c, http.MethodPost, "/api/users/"+url.PathEscape(id)+"/send-password-reset", nil, nil)
}

// Media

func (c *Client) ListMedia(ctx context.Context, page, pageSize int, search string) Result[Page[MediaItem]] {
	v := url.Values{}
	setInt(v, "page", page)
	setInt(v, "pageSize", pageSize)
	setString(v, "search", search)
	return call[Page[MediaItem]](ctx, c, http.MethodGet, "/api/media", v, nil)
}

// UploadMedia sends files keyed by filename as one multipart request.
func (c *Client) UploadMedia(ctx context.Context, files map[string]io.Reader) Result[[]MediaItem] {
	return upload[[]MediaItem](ctx, c, "/api/media/upload", "files", files)
}

func (c *Client) DeleteMedia(ctx context.Context, key string) Result[any] {
	return call[any](ctx, c, http.MethodDelete, "/api/media/"+key, nil, nil)
}

func (c *Client) MediaUploadSettings(ctx context.Context) Result[MediaUploadSettings] {
	return call[MediaUploadSettings](ctx, c, http.MethodGet, "/api/settings/media-upload", nil, nil)
}

func (c *Client) PublicMediaUploadSettings(ctx context.Context) Result[MediaUploadSettings] {
	return call[MediaUploadSettings](ctx, c, http.MethodGet, "/api/settings/media-upload/public", nil, nil)
}

func (c *Client) UpdateMediaUploadSettings(ctx context.Context, patch map[string]any) Result[MediaUploadSettings] {
	return call[MediaUploadSettings](ctx, c, http.MethodPatch, "/api/settings/media-upload", nil, patch)
}

// Dashboard and system

func (c *Client) DashboardStats(ctx context.Context) Result[DashboardStats] {
	return call[DashboardStats](ctx, c, http.MethodGet, "/api/dashboard/stats", nil, nil)
}

func (c *Client) DashboardActivity(ctx context.Context, days int) Result[DashboardActivity] {
	v := url.Values{}
	setInt(v, "days", days)
	return call[DashboardActivity](ctx, c, http.MethodGet, "/api/dashboard/activity", v, nil)
}

func (c *Client) SystemStats(ctx context.Context) Result[map[string]any] {
	return call[map[string]any](ctx, c, http.MethodGet, "/api/system/stats", nil, nil)
}

func (c *Client) Health(ctx context.Context) Result[Health] {
	return call[Health](ctx, c, http.MethodGet, "/api/health", nil, nil)
}

func upload[T any](ctx context.Context, c *Client, path, field string, files map[string]io.Reader) Result[T] {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, body := range files {
		part, err := w.CreateFormFile(field, name)
		if err != nil {
			return Result[T]{Error: "VALIDATION_ERROR", Message: err.Error()}
		}
		if _, err := io.Copy(part, body); err != nil {
			return Result[T]{Error: "VALIDATION_ERROR", Message: err.Error()}
		}
	}
	if err := w.Close(); err != nil {
		return Result[T]{Error: "VALIDATION_ERROR", Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return Result[T]{Error: NetworkError, Message: err.Error()}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return send[T](c, req)
}
