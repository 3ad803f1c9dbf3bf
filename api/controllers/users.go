package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/adminkit-backend/api/responses"
	"github.com/angelmondragon/adminkit-backend/api/validators"
	"github.com/angelmondragon/adminkit-backend/internal/users"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty" validate:"omitempty,max=128"`
}

type updateUserRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Role          *string `json:"role,omitempty"`
	EmailVerified *bool   `json:"emailVerified,omitempty"`
	Image         *string `json:"image,omitempty" validate:"omitempty,max=2048"`
	Bio           *string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

type bulkRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

func AdminUsersList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		params, err := parseUserListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseUserListParams(r *http.Request) (users.ListParams, error) {
	pageParams, err := validators.ParsePagination(r)
	if err != nil {
		return users.ListParams{}, err
	}
	verified, err := validators.ParseQueryBool(r, "verified")
	if err != nil {
		return users.ListParams{}, err
	}

	q := r.URL.Query()
	params := users.ListParams{
		Params:    pageParams,
		Search:    validators.SanitizeString(q.Get("search"), 100),
		Verified:  verified,
		SortBy:    strings.TrimSpace(q.Get("sortBy")),
		SortOrder: strings.TrimSpace(q.Get("sortOrder")),
	}
	if raw := strings.TrimSpace(q.Get("role")); raw != "" {
		role, err := enums.ParseRole(raw)
		if err != nil {
			return users.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role filter")
		}
		params.Role = role
	}
	return params, nil
}

func AdminUsersGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		user, err := svc.Get(r.Context(), pathParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AdminUsersCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		var req createUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.CreateInput{
			Email:    req.Email,
			Name:     validators.SanitizeString(req.Name, 100),
			Role:     enums.RoleUser,
			Password: req.Password,
		}
		if req.Role != "" {
			role, err := enums.ParseRole(req.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = role
		}

		result, err := svc.Create(r.Context(), actorFrom(r), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, result, "User created")
	}
}

func AdminUsersUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		var req updateUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.UpdateInput{
			Name:          req.Name,
			Email:         req.Email,
			EmailVerified: req.EmailVerified,
			Image:         req.Image,
			Bio:           req.Bio,
		}
		if req.Role != nil {
			role, err := enums.ParseRole(*req.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = &role
		}

		user, err := svc.Update(r.Context(), actorFrom(r), pathParam(r, "id"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, user, "User updated")
	}
}

func AdminUsersDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		if err := svc.Delete(r.Context(), actorFrom(r), pathParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, nil, "User deleted")
	}
}

func AdminUsersGeneratePassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		password, err := svc.GeneratePassword()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"password": password})
	}
}

func AdminUsersBulkDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		ids, err := decodeBulkIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BulkDelete(r.Context(), actorFrom(r), ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminUsersBulkVerify sets emailVerified on every id to the given value.
func AdminUsersBulkVerify(svc users.Service, verified bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		ids, err := decodeBulkIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BulkSetVerified(r.Context(), ids, verified)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func decodeBulkIDs(r *http.Request) ([]string, error) {
	var req bulkRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	if len(req.IDs) > users.MaxBulkIDs {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d ids per request", users.MaxBulkIDs)
	}
	return req.IDs, nil
}

func AdminUsersSetVerified(svc users.Service, verified bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		user, err := svc.SetVerified(r.Context(), pathParam(r, "id"), verified)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AdminUsersSendPasswordReset(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		result, err := svc.SendPasswordReset(r.Context(), pathParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"notification": result})
	}
}
