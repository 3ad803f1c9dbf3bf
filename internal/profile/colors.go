package profile

import (
	"regexp"
	"strings"
)

const maxColorLength = 64

var colorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`),
	regexp.MustCompile(`^rgba?\(\s*[\d.%\s,/]+\)$`),
	regexp.MustCompile(`^hsla?\(\s*[\d.%\s,/a-z]+\)$`),
	regexp.MustCompile(`^oklch\(\s*[\d.%\s/a-z-]+\)$`),
}

// ValidColor accepts hex, rgb(a), hsl(a), and oklch color strings.
func ValidColor(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" || len(v) > maxColorLength {
		return false
	}
	for _, p := range colorPatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}
