package controllers

import (
	"net/http"

	"github.com/angelmondragon/adminkit-backend/api/responses"
)

// RouteDoc is one entry of the route index.
type RouteDoc struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Docs serves the route index. The router mounts it only when basic-auth
// credentials are configured.
func Docs(version string, routes []RouteDoc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"version": version,
			"routes":  routes,
		})
	}
}
