package email

import (
	"strings"
	"testing"
)

func TestVerificationEmailEscapesInput(t *testing.T) {
	msg := VerificationEmail(VerificationData{
		AppName: "Admin Kit",
		Name:    `<script>alert("x")</script>`,
		URL:     "https://app.test/verify?token=a&b=c",
	})

	if strings.Contains(msg.HTML, "<script>") {
		t.Fatalf("html must escape the name: %s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "token=a&amp;b=c") {
		t.Fatalf("expected escaped url in html")
	}
	if !strings.Contains(msg.Text, "https://app.test/verify?token=a&b=c") {
		t.Fatalf("plain text should carry the raw url: %s", msg.Text)
	}
	if msg.Subject != "Verify your email for Admin Kit" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}

func TestPasswordResetEmail(t *testing.T) {
	msg := PasswordResetEmail(PasswordResetData{URL: "https://app.test/reset?token=t"})
	if !strings.HasPrefix(msg.Text, "Hi there,") {
		t.Fatalf("expected anonymous greeting, got %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, `href="https://app.test/reset?token=t"`) {
		t.Fatalf("expected reset link in html")
	}
	if !strings.Contains(msg.Subject, "Admin Kit") {
		t.Fatalf("expected default app name in subject, got %q", msg.Subject)
	}
}

func TestWelcomeEmailCarriesTempPassword(t *testing.T) {
	msg := WelcomeEmail(WelcomeData{
		AppName:      "Acme",
		Name:         "A B",
		Email:        "a@b.com",
		TempPassword: "Xy7&pass",
		LoginURL:     "https://app.test/login",
	})
	if !strings.Contains(msg.Text, "Temporary password: Xy7&pass") {
		t.Fatalf("plain text missing password: %s", msg.Text)
	}
	if !strings.Contains(msg.HTML, "Xy7&amp;pass") {
		t.Fatalf("html must escape the password")
	}
	if !strings.Contains(msg.HTML, "style=") {
		t.Fatalf("expected inline styles")
	}
	if msg.Subject != "Welcome to Acme" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}
