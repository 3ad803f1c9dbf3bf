package controllers

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/adminkit-backend/api/middleware"
	"github.com/angelmondragon/adminkit-backend/api/responses"
	"github.com/angelmondragon/adminkit-backend/api/validators"
	"github.com/angelmondragon/adminkit-backend/internal/profile"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

const avatarFormMemory = profile.MaxAvatarBytes + 1<<20

// Me returns the signed-in user, including whether a password is set.
func Me(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return ProfileGet(svc, logg)
}

func ProfileGet(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		view, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func ProfileUpdate(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		var input profile.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Update(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, view, "Profile updated")
	}
}

func ProfileUploadAvatar(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, avatarFormMemory)
		if err := r.ParseMultipartForm(avatarFormMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, multipartError(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required"))
			return
		}
		defer file.Close()

		view, err := svc.UploadAvatar(r.Context(), userID, profile.AvatarFile{
			Name: header.Filename,
			Size: header.Size,
			Body: file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, view, "Avatar updated")
	}
}

func ProfileRemoveAvatar(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		view, err := svc.RemoveAvatar(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, view, "Avatar removed")
	}
}

func ProfileHasPassword(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		has, err := svc.HasPassword(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"hasPassword": has})
	}
}

func ProfileSetPassword(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		var input profile.SetPasswordInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetPassword(r.Context(), userID, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, nil, "Password set")
	}
}

func ProfileChangePassword(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		var input profile.ChangePasswordInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		token := middleware.TokenFromContext(r.Context())
		if err := svc.ChangePassword(r.Context(), userID, token, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, nil, "Password changed")
	}
}

func ProfileSettingsGet(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		settings, err := svc.Settings(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func ProfileSettingsUpdate(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		var patch profile.SettingsPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.UpdateSettings(r.Context(), userID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, settings, "Settings updated")
	}
}

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "upload exceeds %d bytes", tooLarge.Limit)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
}
