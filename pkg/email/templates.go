// Package email builds transactional messages and sends them through the
// configured provider.
package email

import (
	"fmt"
	"html"
	"strings"
)

// Message is a rendered email ready for a Sender.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// VerificationData feeds VerificationEmail.
type VerificationData struct {
	AppName string
	Name    string
	URL     string
}

// PasswordResetData feeds PasswordResetEmail.
type PasswordResetData struct {
	AppName string
	Name    string
	URL     string
}

// WelcomeData feeds WelcomeEmail. TempPassword is sent in plain text.
type WelcomeData struct {
	AppName      string
	Name         string
	Email        string
	TempPassword string
	LoginURL     string
}

const (
	styleBody    = "margin:0;padding:0;background-color:#f4f4f5;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;"
	styleCard    = "max-width:560px;margin:40px auto;background-color:#ffffff;border-radius:8px;padding:40px;"
	styleHeading = "margin:0 0 16px;font-size:22px;color:#18181b;"
	styleText    = "margin:0 0 16px;font-size:15px;line-height:24px;color:#3f3f46;"
	styleButton  = "display:inline-block;padding:12px 24px;background-color:#18181b;color:#ffffff;text-decoration:none;border-radius:6px;font-weight:600;"
	styleMuted   = "margin:24px 0 0;font-size:13px;line-height:20px;color:#71717a;word-break:break-all;"
	styleCode    = "display:inline-block;padding:8px 12px;background-color:#f4f4f5;border-radius:4px;font-family:monospace;font-size:15px;color:#18181b;"
)

// VerificationEmail renders the address confirmation message.
func VerificationEmail(d VerificationData) Message {
	app := appName(d.AppName)
	greeting := greet(d.Name)

	body := paragraph(greeting) +
		paragraph(fmt.Sprintf("Thanks for signing up for %s. Please confirm your email address to activate your account.", html.EscapeString(app))) +
		button(d.URL, "Verify email") +
		muted("This link expires in 24 hours. If you did not create an account, you can ignore this email.") +
		muted("Or copy this link into your browser: " + html.EscapeString(d.URL))

	text := strings.Join([]string{
		plainGreeting(d.Name),
		"",
		fmt.Sprintf("Thanks for signing up for %s. Please confirm your email address by opening the link below:", app),
		"",
		d.URL,
		"",
		"This link expires in 24 hours. If you did not create an account, you can ignore this email.",
	}, "\n")

	return Message{
		Subject: fmt.Sprintf("Verify your email for %s", app),
		HTML:    layout(app, "Verify your email", body),
		Text:    text,
	}
}

// PasswordResetEmail renders the reset link message.
func PasswordResetEmail(d PasswordResetData) Message {
	app := appName(d.AppName)

	body := paragraph(greet(d.Name)) +
		paragraph("We received a request to reset your password. Use the button below to choose a new one.") +
		button(d.URL, "Reset password") +
		muted("This link expires in 1 hour. If you did not request a reset, no action is needed.") +
		muted("Or copy this link into your browser: " + html.EscapeString(d.URL))

	text := strings.Join([]string{
		plainGreeting(d.Name),
		"",
		"We received a request to reset your password. Open the link below to choose a new one:",
		"",
		d.URL,
		"",
		"This link expires in 1 hour. If you did not request a reset, no action is needed.",
	}, "\n")

	return Message{
		Subject: fmt.Sprintf("Reset your %s password", app),
		HTML:    layout(app, "Reset your password", body),
		Text:    text,
	}
}

// WelcomeEmail renders the admin-created account message with its temporary password.
func WelcomeEmail(d WelcomeData) Message {
	app := appName(d.AppName)

	body := paragraph(greet(d.Name)) +
		paragraph(fmt.Sprintf("An administrator created a %s account for you. Sign in with the credentials below and change your password right away.", html.EscapeString(app))) +
		paragraph("Email: <strong>"+html.EscapeString(d.Email)+"</strong>") +
		paragraph(`Temporary password: <span style="`+styleCode+`">`+html.EscapeString(d.TempPassword)+`</span>`) +
		button(d.LoginURL, "Sign in") +
		muted("For your security, do not share this email.")

	text := strings.Join([]string{
		plainGreeting(d.Name),
		"",
		fmt.Sprintf("An administrator created a %s account for you.", app),
		"",
		"Email: " + d.Email,
		"Temporary password: " + d.TempPassword,
		"",
		"Sign in at " + d.LoginURL + " and change your password right away.",
	}, "\n")

	return Message{
		Subject: fmt.Sprintf("Welcome to %s", app),
		HTML:    layout(app, "Welcome to "+app, body),
		Text:    text,
	}
}

func layout(app, heading, body string) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><title>` + html.EscapeString(heading) + `</title></head>` +
		`<body style="` + styleBody + `"><div style="` + styleCard + `">` +
		`<h1 style="` + styleHeading + `">` + html.EscapeString(heading) + `</h1>` +
		body +
		`<p style="` + styleMuted + `">&copy; ` + html.EscapeString(app) + `</p>` +
		`</div></body></html>`
}

func paragraph(inner string) string {
	return `<p style="` + styleText + `">` + inner + `</p>`
}

func button(url, label string) string {
	return `<p style="margin:24px 0;"><a href="` + html.EscapeString(url) + `" style="` + styleButton + `">` + html.EscapeString(label) + `</a></p>`
}

func muted(inner string) string {
	return `<p style="` + styleMuted + `">` + inner + `</p>`
}

func greet(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Hi there,"
	}
	return "Hi " + html.EscapeString(name) + ","
}

func plainGreeting(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Hi there,"
	}
	return "Hi " + name + ","
}

func appName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Admin Kit"
	}
	return name
}
