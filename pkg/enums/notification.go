package enums

import "fmt"

// NotificationKind labels a best-effort email sent after a primary action.
type NotificationKind string

const (
	NotificationVerification  NotificationKind = "verification"
	NotificationPasswordReset NotificationKind = "password_reset"
	NotificationWelcome       NotificationKind = "welcome"
)

var validNotificationKinds = []NotificationKind{
	NotificationVerification,
	NotificationPasswordReset,
	NotificationWelcome,
}

func (n NotificationKind) String() string {
	return string(n)
}

// IsValid checks whether the given kind is known.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
