package enums

import "fmt"

// Provider identifies how an Account authenticates.
type Provider string

const (
	ProviderCredential Provider = "credential"
	ProviderGoogle     Provider = "google"
	ProviderGitHub     Provider = "github"
)

var validProviders = []Provider{
	ProviderCredential,
	ProviderGoogle,
	ProviderGitHub,
}

func (p Provider) String() string {
	return string(p)
}

// IsOAuth reports whether the provider is a social login.
func (p Provider) IsOAuth() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// ParseProvider converts raw input into a Provider.
func ParseProvider(value string) (Provider, error) {
	for _, candidate := range validProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid provider %q", value)
}
