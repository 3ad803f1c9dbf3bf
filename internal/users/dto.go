package users

import (
	"strings"

	"github.com/angelmondragon/adminkit-backend/internal/notifications"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	"github.com/angelmondragon/adminkit-backend/pkg/pagination"
)

// Sortable columns for the admin list, keyed by their API names.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"email":     "email",
	"role":      "role",
}

// ListParams filters and orders the admin user list.
type ListParams struct {
	pagination.Params
	Search    string
	Role      enums.Role
	Verified  *bool
	SortBy    string
	SortOrder string
}

func (p ListParams) orderClause() string {
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		dir = "ASC"
	}
	return col + " " + dir + ", id " + dir
}

// Actor is the authenticated admin performing an operation.
type Actor struct {
	ID   string
	Role enums.Role
}

// CreateInput is the admin create-user payload. An empty password is generated.
type CreateInput struct {
	Email    string
	Name     string
	Role     enums.Role
	Password string
}

// CreateResult is the created user with the welcome email outcome alongside.
// The user fields encode at the top level.
type CreateResult struct {
	*models.User
	Notification      notifications.Result `json:"notification"`
	GeneratedPassword bool                 `json:"generatedPassword"`
}

// UpdateInput holds optional admin edits. Nil fields are left unchanged.
type UpdateInput struct {
	Name          *string
	Email         *string
	Role          *enums.Role
	EmailVerified *bool
	Image         *string
	Bio           *string
}

// BulkResult reports how many ids succeeded and failed.
type BulkResult struct {
	Done   int `json:"done"`
	Failed int `json:"failed"`
}
