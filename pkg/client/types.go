package client

import "time"

// User mirrors the public user record.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            *string    `json:"name"`
	Role            string     `json:"role"`
	Image           *string    `json:"image"`
	EmailVerified   bool       `json:"emailVerified"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	Bio             *string    `json:"bio"`
	Skills          []string   `json:"skills"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	HasPassword     bool       `json:"hasPassword,omitempty"`
	Providers       []string   `json:"providers,omitempty"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionInfo struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

type SignInResult struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notification reports a best-effort email attempt.
type Notification struct {
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
	Delivered bool   `json:"delivered"`
	Provider  string `json:"provider,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SignUpResult struct {
	User         User         `json:"user"`
	Notification Notification `json:"notification"`
}

type CreateUserResult struct {
	User
	Notification      Notification `json:"notification"`
	GeneratedPassword bool         `json:"generatedPassword"`
}

type BulkResult struct {
	Done   int `json:"done"`
	Failed int `json:"failed"`
}

// Page is the list envelope shared by paginated endpoints.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type MediaItem struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type MediaUploadSettings struct {
	MaxFileSize      int      `json:"maxFileSize"`
	MaxFileCount     int      `json:"maxFileCount"`
	AllowedMimeTypes []string `json:"allowedMimeTypes"`
}

type UserSettings struct {
	PrimaryColor        *string `json:"primaryColor"`
	PrimaryForeground   *string `json:"primaryForeground"`
	SecondaryColor      *string `json:"secondaryColor"`
	SecondaryForeground *string `json:"secondaryForeground"`
}

type DashboardStats struct {
	TotalUsers        int64   `json:"totalUsers"`
	VerifiedUsers     int64   `json:"verifiedUsers"`
	UnverifiedUsers   int64   `json:"unverifiedUsers"`
	AdminUsers        int64   `json:"adminUsers"`
	NewUsersThisMonth int64   `json:"newUsersThisMonth"`
	NewUsersLastMonth int64   `json:"newUsersLastMonth"`
	GrowthPercent     float64 `json:"growthPercent"`
}

type DailySignups struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DashboardActivity struct {
	Days        int            `json:"days"`
	Signups     []DailySignups `json:"signups"`
	RecentUsers []User         `json:"recentUsers"`
}

type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Version   string    `json:"version"`
}
