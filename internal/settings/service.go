package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/adminkit-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/filetypes"
)

const (
	MinLimit = 1
	MaxLimit = 50
)

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	MaxFileSize      *int      `json:"maxFileSize,omitempty"`
	MaxFileCount     *int      `json:"maxFileCount,omitempty"`
	AllowedMimeTypes *[]string `json:"allowedMimeTypes,omitempty"`
}

// Public is the subset any signed-in user may read before uploading.
type Public struct {
	MaxFileSize      int      `json:"maxFileSize"`
	MaxFileCount     int      `json:"maxFileCount"`
	AllowedMimeTypes []string `json:"allowedMimeTypes"`
}

// Service reads and updates the global media upload settings.
type Service interface {
	Get(ctx context.Context) (*models.MediaUploadSettings, error)
	Public(ctx context.Context) (Public, error)
	Update(ctx context.Context, actorID string, patch Patch) (*models.MediaUploadSettings, error)
}

type settingsStore interface {
	Get(ctx context.Context) (*models.MediaUploadSettings, error)
	Update(ctx context.Context, changes map[string]any) (*models.MediaUploadSettings, error)
}

type service struct {
	repo settingsStore
}

func NewService(repo settingsStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context) (*models.MediaUploadSettings, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load media upload settings")
	}
	return row, nil
}

func (s *service) Public(ctx context.Context) (Public, error) {
	row, err := s.Get(ctx)
	if err != nil {
		return Public{}, err
	}
	return Public{
		MaxFileSize:      row.MaxFileSize,
		MaxFileCount:     row.MaxFileCount,
		AllowedMimeTypes: []string(row.AllowedMimeTypes),
	}, nil
}

// Update validates every field before writing any of them.
func (s *service) Update(ctx context.Context, actorID string, patch Patch) (*models.MediaUploadSettings, error) {
	changes, err := validatePatch(patch)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return s.Get(ctx)
	}
	if actorID != "" {
		changes["updated_by"] = actorID
	}
	row, err := s.repo.Update(ctx, changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update media upload settings")
	}
	return row, nil
}

func validatePatch(patch Patch) (map[string]any, error) {
	details := map[string]any{}
	changes := map[string]any{}

	if patch.MaxFileSize != nil {
		if v := *patch.MaxFileSize; v < MinLimit || v > MaxLimit {
			details["maxFileSize"] = fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit)
		} else {
			changes["max_file_size"] = v
		}
	}
	if patch.MaxFileCount != nil {
		if v := *patch.MaxFileCount; v < MinLimit || v > MaxLimit {
			details["maxFileCount"] = fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit)
		} else {
			changes["max_file_count"] = v
		}
	}
	if patch.AllowedMimeTypes != nil {
		types, invalid := normalizeTypes(*patch.AllowedMimeTypes)
		switch {
		case len(invalid) > 0:
			details["allowedMimeTypes"] = "contains unsupported types"
			details["invalidMimeTypes"] = invalid
			details["supportedMimeTypes"] = filetypes.Allowed()
		case len(types) == 0:
			details["allowedMimeTypes"] = "must contain at least one type"
		default:
			changes["allowed_mime_types"] = types
		}
	}

	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media upload settings").WithDetails(details)
	}
	return changes, nil
}

func normalizeTypes(raw []string) (dbtypes.StringList, []string) {
	seen := map[string]struct{}{}
	out := dbtypes.StringList{}
	var invalid []string
	for _, value := range raw {
		t := filetypes.Normalize(value)
		if t == "" {
			continue
		}
		if !filetypes.IsAllowed(t) {
			invalid = append(invalid, strings.TrimSpace(value))
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, invalid
}
