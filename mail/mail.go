package mail

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Message is a single outbound mail.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the email-verification mail. The link embeds
// the single-use token issued at registration.
func VerificationMessage(to, baseURL, token string) Message {
	link := strings.TrimRight(baseURL, "/") + "/verify-email/" + token
	return Message{
		To:      to,
		Subject: "Verify your email address",
		Text: fmt.Sprintf(
			"Welcome! Please confirm your email address by opening the link below.\n\n%s\n\nIf you did not create an account, you can ignore this message.",
			link,
		),
		HTML: fmt.Sprintf(
			`<p>Welcome! Please confirm your email address by clicking the link below.</p><p><a href=%q>Verify my email</a></p><p>If you did not create an account, you can ignore this message.</p>`,
			link,
		),
	}
}

// ResetOTPMessage builds the password-reset mail carrying the one-time code.
func ResetOTPMessage(to, otp string, validFor time.Duration) Message {
	minutes := int(validFor.Minutes())
	return Message{
		To:      to,
		Subject: "Your password reset code",
		Text: fmt.Sprintf(
			"Your password reset code is %s. It is valid for %d minutes.\n\nIf you did not request a password reset, you can ignore this message.",
			otp, minutes,
		),
		HTML: fmt.Sprintf(
			`<p>Your password reset code is <strong>%s</strong>. It is valid for %d minutes.</p><p>If you did not request a password reset, you can ignore this message.</p>`,
			otp, minutes,
		),
	}
}
