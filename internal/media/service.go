package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/filetypes"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/pagination"
	"github.com/angelmondragon/adminkit-backend/pkg/storage/s3"
	"github.com/angelmondragon/adminkit-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Prefix is the bucket folder holding media library files.
const Prefix = "media/"

const (
	maxNameLength = 100
	// room for multipart boundaries and part headers on top of file bytes
	multipartOverhead = 1 << 20
)

var errStorageDisabled = pkgerrors.New(pkgerrors.CodeDependency, "file storage is not configured")

type objectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (s3.Object, error)
	List(ctx context.Context, prefix string) ([]s3.Object, error)
	Delete(ctx context.Context, key string) error
}

type settingsReader interface {
	Get(ctx context.Context) (*models.MediaUploadSettings, error)
}

// Item is a media library entry. Key omits the media folder prefix.
type Item = s3.Object

// UploadFile is one file of a multipart upload.
type UploadFile struct {
	Name string
	Size int64
	Body io.Reader
}

// ListParams filters and paginates the library.
type ListParams struct {
	pagination.Params
	Search string
}

// Service lists, uploads, and deletes media library files.
type Service interface {
	List(ctx context.Context, params ListParams) (types.Page[Item], error)
	Upload(ctx context.Context, files []UploadFile) ([]Item, error)
	Delete(ctx context.Context, key string) error
	// MaxUploadBytes is the largest request body the current settings can accept.
	MaxUploadBytes(ctx context.Context) (int64, error)
}

type service struct {
	store    objectStore
	settings settingsReader
	logg     *logger.Logger
}

// NewService builds the media service. A nil store yields a service whose
// operations report storage as unavailable.
func NewService(store objectStore, settings settingsReader, logg *logger.Logger) (Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, settings: settings, logg: logg}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (types.Page[Item], error) {
	params.Params = pagination.Normalize(params.Params)
	if s.store == nil {
		return types.Page[Item]{}, errStorageDisabled
	}
	objects, err := s.store.List(ctx, Prefix)
	if err != nil {
		return types.Page[Item]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media")
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	filtered := make([]Item, 0, len(objects))
	for _, obj := range objects {
		obj.Key = strings.TrimPrefix(obj.Key, Prefix)
		if search != "" && !strings.Contains(strings.ToLower(obj.Name), search) {
			continue
		}
		filtered = append(filtered, obj)
	}

	total := len(filtered)
	start := min(params.Offset(), total)
	end := min(start+params.Limit(), total)
	return types.NewPage(filtered[start:end], params.Page, params.PageSize, int64(total)), nil
}

// Upload validates every file against the global settings before storing any.
func (s *service) Upload(ctx context.Context, files []UploadFile) ([]Item, error) {
	if s.store == nil {
		return nil, errStorageDisabled
	}
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load upload settings")
	}
	if len(files) > cfg.MaxFileCount {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d files per upload", cfg.MaxFileCount)
	}

	type prepared struct {
		file        UploadFile
		contentType string
		body        io.Reader
	}
	ready := make([]prepared, 0, len(files))
	rejected := map[string]string{}
	for _, f := range files {
		if f.Size > cfg.MaxFileSizeBytes() {
			rejected[f.Name] = fmt.Sprintf("exceeds %d MB", cfg.MaxFileSize)
			continue
		}
		detected, body, err := filetypes.Sniff(f.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
		}
		contentType, ok := filetypes.Match(detected, cfg.AllowedMimeTypes)
		if !ok {
			rejected[f.Name] = fmt.Sprintf("type %s is not allowed", filetypes.Normalize(detected.String()))
			continue
		}
		ready = append(ready, prepared{file: f, contentType: contentType, body: body})
	}
	if len(rejected) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "some files were rejected").WithDetails(rejected)
	}

	out := make([]Item, 0, len(ready))
	stored := make([]string, 0, len(ready))
	for _, p := range ready {
		key := Prefix + uuid.NewString() + "-" + SanitizeFileName(p.file.Name)
		obj, err := s.store.Put(ctx, key, p.contentType, p.body, p.file.Size)
		if err != nil {
			if cleanupErr := s.discard(context.WithoutCancel(ctx), stored); cleanupErr != nil {
				s.logg.Error(s.logg.WithField(ctx, "keys", stored), "media.upload_cleanup_failed", cleanupErr)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
		}
		stored = append(stored, key)
		obj.Key = strings.TrimPrefix(obj.Key, Prefix)
		out = append(out, obj)
	}
	s.logg.Info(s.logg.WithField(ctx, "count", len(out)), "media.uploaded")
	return out, nil
}

// discard removes objects stored earlier in a failed upload.
func (s *service) discard(ctx context.Context, keys []string) error {
	var errs error
	for _, key := range keys {
		errs = multierr.Append(errs, s.store.Delete(ctx, key))
	}
	return errs
}

func (s *service) MaxUploadBytes(ctx context.Context) (int64, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load upload settings")
	}
	return cfg.MaxFileSizeBytes()*int64(cfg.MaxFileCount) + multipartOverhead, nil
}

func (s *service) Delete(ctx context.Context, key string) error {
	if s.store == nil {
		return errStorageDisabled
	}
	key = strings.TrimPrefix(strings.TrimSpace(key), Prefix)
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid media key")
	}
	if err := s.store.Delete(ctx, Prefix+key); err != nil {
		if errors.Is(err, s3.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete media")
	}
	s.logg.Info(s.logg.WithField(ctx, "key", key), "media.deleted")
	return nil
}

// SanitizeFileName strips path components and control characters and
// replaces whitespace with dashes.
func SanitizeFileName(name string) string {
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	result := strings.Trim(b.String(), "-_.")
	if len(result) > maxNameLength {
		ext := path.Ext(result)
		if len(ext) >= maxNameLength/2 {
			ext = ""
		}
		result = strings.ToValidUTF8(result[:maxNameLength-len(ext)], "") + ext
	}
	if result == "" {
		return "file"
	}
	return result
}
