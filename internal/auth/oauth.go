package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/db"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	stateIdentifierPrefix = "oauth-state:"
	stateTTL              = 10 * time.Minute
	stateBytes            = 24

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// ProviderConfig describes one social login provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	Scopes       []string
	UserInfoURL  string
	EmailsURL    string
}

// Profile is the normalized identity returned by a provider.
type Profile struct {
	AccountID     string
	Email         string
	EmailVerified bool
	Name          string
	Image         string
}

// OAuthResult is the session created by a completed social login.
type OAuthResult struct {
	User        *models.User
	Token       string
	ExpiresAt   time.Time
	CallbackURL string
}

// OAuthService drives the social sign-in redirect and callback.
type OAuthService interface {
	Enabled(provider enums.Provider) bool
	AuthorizeURL(ctx context.Context, provider enums.Provider, callbackURL string) (string, error)
	Callback(ctx context.Context, provider enums.Provider, code, state string, meta session.Meta) (*OAuthResult, error)
}

// OAuthParams bundles the dependencies required to build the social login service.
type OAuthParams struct {
	Users         userRepository
	Accounts      accountRepository
	Verifications verificationStore
	Sessions      sessionManager
	Logger        *logger.Logger
	Providers     map[enums.Provider]ProviderConfig
	BaseURL       string
	FrontendURL   string
	Trusted       []string
	HTTPClient    *http.Client
}

type oauthService struct {
	users         userRepository
	accounts      accountRepository
	verifications verificationStore
	sessions      sessionManager
	logg          *logger.Logger
	providers     map[enums.Provider]ProviderConfig
	baseURL       string
	frontendURL   string
	trusted       []string
	httpClient    *http.Client
	now           func() time.Time
}

type oauthState struct {
	Provider    enums.Provider `json:"provider"`
	CallbackURL string         `json:"callbackURL"`
}

// ProvidersFromConfig returns the providers with credentials configured.
func ProvidersFromConfig(cfg config.OAuthConfig) map[enums.Provider]ProviderConfig {
	out := map[enums.Provider]ProviderConfig{}
	if cfg.GoogleEnabled() {
		out[enums.ProviderGoogle] = ProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
			UserInfoURL:  googleUserInfoURL,
		}
	}
	if cfg.GitHubEnabled() {
		out[enums.ProviderGitHub] = ProviderConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
			UserInfoURL:  githubUserURL,
			EmailsURL:    githubEmailsURL,
		}
	}
	return out
}

func NewOAuthService(params OAuthParams) (OAuthService, error) {
	if params.Users == nil || params.Accounts == nil {
		return nil, fmt.Errorf("user and account repositories are required")
	}
	if params.Verifications == nil {
		return nil, fmt.Errorf("verification store is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	client := params.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	providers := params.Providers
	if providers == nil {
		providers = map[enums.Provider]ProviderConfig{}
	}
	return &oauthService{
		users:         params.Users,
		accounts:      params.Accounts,
		verifications: params.Verifications,
		sessions:      params.Sessions,
		logg:          params.Logger,
		providers:     providers,
		baseURL:       strings.TrimRight(params.BaseURL, "/"),
		frontendURL:   params.FrontendURL,
		trusted:       params.Trusted,
		httpClient:    client,
		now:           time.Now,
	}, nil
}

func (s *oauthService) Enabled(provider enums.Provider) bool {
	_, ok := s.providers[provider]
	return ok
}

func (s *oauthService) AuthorizeURL(ctx context.Context, provider enums.Provider, callbackURL string) (string, error) {
	conf, err := s.oauthConfig(provider)
	if err != nil {
		return "", err
	}
	state, err := security.NewToken(stateBytes)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate state")
	}
	payload, err := json.Marshal(oauthState{Provider: provider, CallbackURL: SafeRedirect(callbackURL, s.trusted, s.frontendURL)})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode state")
	}
	if err := s.verifications.Upsert(ctx, stateIdentifierPrefix+state, string(payload), s.now().Add(stateTTL)); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store state")
	}
	return conf.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

func (s *oauthService) Callback(ctx context.Context, provider enums.Provider, code, state string, meta session.Meta) (*OAuthResult, error) {
	conf, err := s.oauthConfig(provider)
	if err != nil {
		return nil, err
	}
	if code == "" || state == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code and state are required")
	}

	raw, err := s.verifications.Consume(ctx, stateIdentifierPrefix+state, s.now())
	if err != nil {
		if db.IsNotFound(err) || errors.Is(err, ErrVerificationExpired) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired state")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume state")
	}
	var st oauthState
	if err := json.Unmarshal([]byte(raw), &st); err != nil || st.Provider != provider {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired state")
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := conf.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "oauth code exchange failed")
	}
	profile, err := s.fetchProfile(exchangeCtx, provider, conf.Client(exchangeCtx, tok))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch oauth profile")
	}
	if profile.AccountID == "" || profile.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider did not return an email")
	}

	user, err := s.linkOrCreate(ctx, provider, profile)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(ctx, user.ID, meta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}
	callback := st.CallbackURL
	if strings.HasPrefix(callback, "/") {
		callback = strings.TrimRight(s.frontendURL, "/") + callback
	}
	return &OAuthResult{User: user, Token: sess.Token, ExpiresAt: sess.ExpiresAt, CallbackURL: callback}, nil
}

// linkOrCreate resolves the provider account to a user. Linking to an existing
// user or creating a new one requires the provider to vouch for the email.
func (s *oauthService) linkOrCreate(ctx context.Context, provider enums.Provider, p Profile) (*models.User, error) {
	account, err := s.accounts.FindByProvider(ctx, provider, p.AccountID)
	if err == nil {
		user, err := s.users.FindByID(ctx, account.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load linked user")
		}
		return user, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}
	if !p.EmailVerified {
		s.logg.Warn(s.logg.WithField(ctx, "provider", string(provider)), "auth.oauth.unverified_email")
		return nil, pkgerrors.New(pkgerrors.CodeEmailNotVerified, "provider email is not verified")
	}

	email := normalizeEmail(p.Email)
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.accounts.Create(ctx, &models.Account{UserID: user.ID, ProviderID: provider, AccountID: p.AccountID}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link account")
		}
		if !user.EmailVerified {
			if err := s.users.SetVerified(ctx, user.ID, true, s.now().UTC()); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
			}
			s.sessions.Forget(user.ID)
			return s.users.FindByID(ctx, user.ID)
		}
		return user, nil
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	now := s.now().UTC()
	user = &models.User{
		Email:           email,
		Role:            enums.RoleUser,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	if p.Name != "" {
		user.Name = &p.Name
	}
	if p.Image != "" {
		user.Image = &p.Image
	}
	if err := s.users.Create(ctx, user, &models.Account{ProviderID: provider, AccountID: p.AccountID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create oauth user")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"provider": string(provider), "target_user_id": user.ID}), "auth.oauth.user_created")
	return user, nil
}

func (s *oauthService) oauthConfig(provider enums.Provider) (*oauth2.Config, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "provider %q is not configured", provider)
	}
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     p.Endpoint,
		Scopes:       p.Scopes,
		RedirectURL:  s.baseURL + "/api/auth/callback/" + string(provider),
	}, nil
}

func (s *oauthService) fetchProfile(ctx context.Context, provider enums.Provider, client *http.Client) (Profile, error) {
	cfg := s.providers[provider]
	switch provider {
	case enums.ProviderGoogle:
		var body struct {
			Sub           string `json:"sub"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			Name          string `json:"name"`
			Picture       string `json:"picture"`
		}
		if err := getJSON(ctx, client, cfg.UserInfoURL, &body); err != nil {
			return Profile{}, err
		}
		return Profile{AccountID: body.Sub, Email: body.Email, EmailVerified: body.EmailVerified, Name: body.Name, Image: body.Picture}, nil
	case enums.ProviderGitHub:
		var body struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := getJSON(ctx, client, cfg.UserInfoURL, &body); err != nil {
			return Profile{}, err
		}
		profile := Profile{AccountID: strconv.FormatInt(body.ID, 10), Email: body.Email, Name: body.Name, Image: body.AvatarURL}
		if profile.Name == "" {
			profile.Name = body.Login
		}
		// The public /user email carries no verification flag; only /user/emails does.
		if cfg.EmailsURL == "" {
			return profile, nil
		}
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, cfg.EmailsURL, &emails); err != nil {
			return Profile{}, err
		}
		for _, e := range emails {
			if profile.Email != "" && strings.EqualFold(e.Email, profile.Email) {
				profile.EmailVerified = e.Verified
				return profile, nil
			}
		}
		if profile.Email == "" {
			for _, e := range emails {
				if e.Primary && e.Verified {
					profile.Email = e.Email
					profile.EmailVerified = true
					break
				}
			}
		}
		return profile, nil
	default:
		return Profile{}, fmt.Errorf("unsupported provider %q", provider)
	}
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
