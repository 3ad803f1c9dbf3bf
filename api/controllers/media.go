package controllers

import (
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/angelmondragon/adminkit-backend/api/responses"
	"github.com/angelmondragon/adminkit-backend/api/validators"
	"github.com/angelmondragon/adminkit-backend/internal/media"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

const mediaFormMemory = 32 << 20

func MediaList(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		pageParams, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), media.ListParams{
			Params: pageParams,
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// MediaUpload stores every part named "files". Count, size and type limits
// are enforced by the service against the stored upload settings.
func MediaUpload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		limit, err := svc.MaxUploadBytes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(mediaFormMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, multipartError(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "files are required"))
			return
		}

		files := make([]media.UploadFile, 0, len(headers))
		opened := make([]multipart.File, 0, len(headers))
		defer func() {
			for _, f := range opened {
				_ = f.Close()
			}
		}()
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload"))
				return
			}
			opened = append(opened, f)
			files = append(files, media.UploadFile{Name: h.Filename, Size: h.Size, Body: f})
		}

		items, err := svc.Upload(r.Context(), files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, items, "Files uploaded")
	}
}

func MediaDelete(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		key, err := url.PathUnescape(pathParam(r, "*"))
		if err != nil || key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "key is required"))
			return
		}
		if err := svc.Delete(r.Context(), key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, nil, "File deleted")
	}
}
