package config

// EnvPrefix is empty so variables keep their conventional names (DATABASE_URL, PORT, ...).
const EnvPrefix = ""

const (
	AppEnvDev       = "development"
	AppEnvDevShort  = "dev"
	AppEnvProd      = "production"
	AppEnvProdShort = "prod"
	AppEnvTest      = "test"
)

const (
	EnvNodeEnv        = "NODE_ENV"
	EnvPort           = "PORT"
	EnvCORSOrigin     = "CORS_ORIGIN"
	EnvFrontendURL    = "FRONTEND_URL"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvRedisURL       = "REDIS_URL"
	EnvAuthSecret     = "BETTER_AUTH_SECRET"
	EnvAuthURL        = "BETTER_AUTH_URL"
	EnvCookieDomain   = "COOKIE_DOMAIN"
	EnvResendAPIKey   = "RESEND_API_KEY"
	EnvFromEmail      = "FROM_EMAIL"
	EnvGoogleID       = "GOOGLE_CLIENT_ID"
	EnvGoogleSecret   = "GOOGLE_CLIENT_SECRET"
	EnvGitHubID       = "GITHUB_CLIENT_ID"
	EnvGitHubSecret   = "GITHUB_CLIENT_SECRET"
	EnvDocsUsername   = "DOCS_USERNAME"
	EnvDocsPassword   = "DOCS_PASSWORD"
	EnvRateLimitMax   = "RATE_LIMIT_MAX"
	EnvRateLimitWin   = "RATE_LIMIT_WINDOW"
	EnvBulkConcurrent = "BULK_CONCURRENCY"
	EnvS3Bucket       = "S3_BUCKET"
)

const devAuthSecret = "adminkit-development-secret-change-me"
