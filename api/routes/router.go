package routes

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/adminkit-backend/api/controllers"
	"github.com/angelmondragon/adminkit-backend/api/middleware"
	"github.com/angelmondragon/adminkit-backend/api/responses"
	"github.com/angelmondragon/adminkit-backend/internal/auth"
	"github.com/angelmondragon/adminkit-backend/internal/dashboard"
	"github.com/angelmondragon/adminkit-backend/internal/media"
	"github.com/angelmondragon/adminkit-backend/internal/profile"
	"github.com/angelmondragon/adminkit-backend/internal/settings"
	"github.com/angelmondragon/adminkit-backend/internal/system"
	"github.com/angelmondragon/adminkit-backend/internal/users"
	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/metrics"
	"github.com/angelmondragon/adminkit-backend/pkg/ratelimit"
	pkgredis "github.com/angelmondragon/adminkit-backend/pkg/redis"
)

const (
	apiLimiterPrefix  = "api"
	authLimiterPrefix = "auth"
)

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Resolved, error)
}

// Deps carries everything the router mounts. Nil services answer with an
// internal error instead of panicking.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	StartedAt time.Time

	Gatherer         prometheus.Gatherer
	HTTPMetrics      *metrics.HTTPMetrics
	RateLimitMetrics *metrics.RateLimitMetrics
	RateLimitStore   ratelimit.Store
	Idempotency      pkgredis.IdempotencyStore
	Readiness        []controllers.ReadinessCheck

	Sessions sessionResolver
	Cookies  session.Cookies

	Auth      auth.Service
	OAuth     auth.OAuthService
	Users     users.Service
	Profile   profile.Service
	Media     media.Service
	Settings  settings.Service
	Dashboard dashboard.Service
	System    system.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins()),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	limitsDisabled := cfg.App.IsDev()
	apiLimit := middleware.RateLimit(middleware.RateLimitOptions{
		Prefix:   apiLimiterPrefix,
		Max:      cfg.RateLimit.Max,
		Window:   cfg.RateLimit.Window,
		Disabled: limitsDisabled,
	}, d.RateLimitStore, logg, d.RateLimitMetrics)
	authLimit := middleware.RateLimit(middleware.RateLimitOptions{
		Prefix:   authLimiterPrefix,
		Max:      cfg.RateLimit.AuthMax,
		Window:   cfg.RateLimit.AuthWindow,
		Disabled: limitsDisabled,
	}, d.RateLimitStore, logg, d.RateLimitMetrics)

	requireSession := middleware.Session(d.Sessions, d.Cookies, logg)
	optionalSession := middleware.OptionalSession(d.Sessions, d.Cookies, logg)
	can := func(c enums.Capability) func(http.Handler) http.Handler {
		return middleware.RequireCapability(c, logg)
	}

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Health checks sit outside the api limiter.
	r.Route("/api/health", func(r chi.Router) {
		r.Get("/", controllers.Health(cfg.App.Version, d.StartedAt))
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(d.Readiness, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimit)

		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimit)
			r.Post("/sign-up/email", controllers.AuthSignUp(d.Auth, logg))
			r.Post("/sign-in/email", controllers.AuthSignIn(d.Auth, d.Cookies, logg))
			r.With(optionalSession).Post("/sign-out", controllers.AuthSignOut(d.Auth, d.Cookies, logg))
			r.With(optionalSession).Get("/get-session", controllers.AuthGetSession())
			r.Get("/verify-email", controllers.AuthVerifyEmail(d.Auth, logg))
			r.Post("/send-verification-email", controllers.AuthSendVerificationEmail(d.Auth, logg))
			r.Post("/forget-password", controllers.AuthForgotPassword(d.Auth, logg))
			r.Post("/request-password-reset", controllers.AuthForgotPassword(d.Auth, logg))
			r.Post("/reset-password", controllers.AuthResetPassword(d.Auth, logg))
			r.Get("/sign-in/social", controllers.AuthSocialSignIn(d.OAuth, logg))
			r.Get("/callback/{provider}", controllers.AuthOAuthCallback(d.OAuth, d.Auth, d.Cookies, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/user/me", controllers.Me(d.Profile, logg))

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(d.Profile, logg))
				r.Patch("/", controllers.ProfileUpdate(d.Profile, logg))
				r.Post("/avatar", controllers.ProfileUploadAvatar(d.Profile, logg))
				r.Delete("/avatar", controllers.ProfileRemoveAvatar(d.Profile, logg))
				r.Get("/has-password", controllers.ProfileHasPassword(d.Profile, logg))
				r.Post("/set-password", controllers.ProfileSetPassword(d.Profile, logg))
				r.Post("/change-password", controllers.ProfileChangePassword(d.Profile, logg))
				r.Get("/settings", controllers.ProfileSettingsGet(d.Profile, logg))
				r.Patch("/settings", controllers.ProfileSettingsUpdate(d.Profile, logg))
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", controllers.MediaList(d.Media, logg))
				r.Post("/upload", controllers.MediaUpload(d.Media, logg))
				r.With(can(enums.CapMediaDelete)).Delete("/*", controllers.MediaDelete(d.Media, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(can(enums.CapUsersManage))
				if d.Idempotency != nil {
					r.Use(middleware.Idempotency(d.Idempotency, logg))
				}
				r.Get("/", controllers.AdminUsersList(d.Users, logg))
				r.Post("/create", controllers.AdminUsersCreate(d.Users, logg))
				r.Get("/generate-password", controllers.AdminUsersGeneratePassword(d.Users, logg))
				r.Post("/bulk-delete", controllers.AdminUsersBulkDelete(d.Users, logg))
				r.Post("/bulk-verify", controllers.AdminUsersBulkVerify(d.Users, true, logg))
				r.Post("/bulk-unverify", controllers.AdminUsersBulkVerify(d.Users, false, logg))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", controllers.AdminUsersGet(d.Users, logg))
					r.Patch("/", controllers.AdminUsersUpdate(d.Users, logg))
					r.Delete("/", controllers.AdminUsersDelete(d.Users, logg))
					r.Post("/send-password-reset", controllers.AdminUsersSendPasswordReset(d.Users, logg))
					r.Post("/verify-email", controllers.AdminUsersSetVerified(d.Users, true, logg))
					r.Post("/unverify-email", controllers.AdminUsersSetVerified(d.Users, false, logg))
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(can(enums.CapDashboardView))
				r.Get("/stats", controllers.DashboardStats(d.Dashboard, logg))
				r.Get("/activity", controllers.DashboardActivity(d.Dashboard, logg))
			})

			r.Route("/settings/media-upload", func(r chi.Router) {
				r.Get("/public", controllers.MediaSettingsPublic(d.Settings, logg))
				r.With(can(enums.CapSettingsManage)).Get("/", controllers.MediaSettingsGet(d.Settings, logg))
				r.With(can(enums.CapSettingsManage)).Patch("/", controllers.MediaSettingsUpdate(d.Settings, logg))
			})

			r.With(can(enums.CapSystemView)).Get("/system/stats", controllers.SystemStats(d.System, logg))
		})
	})

	if cfg.Docs.Enabled() {
		index := routeIndex(r)
		r.With(chimw.BasicAuth("docs", map[string]string{cfg.Docs.Username: cfg.Docs.Password})).
			Get("/api/docs", controllers.Docs(cfg.App.Version, index))
	}

	return r
}

func routeIndex(r chi.Routes) []controllers.RouteDoc {
	out := []controllers.RouteDoc{}
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, controllers.RouteDoc{Method: method, Path: route})
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Method < out[j].Method
		}
		return out[i].Path < out[j].Path
	})
	return out
}
