package mail

import (
	"context"
	"errors"

	"github.com/mailgun/mailgun-go/v5"
)

// MailgunConfig configures the Mailgun-backed Sender.
type MailgunConfig struct {
	Domain string
	APIKey string
	From   string
	// APIBase overrides the API endpoint, e.g. for EU domains.
	APIBase string
}

// MailgunSender delivers messages through the Mailgun HTTP API.
type MailgunSender struct {
	mg     mailgun.Mailgun
	domain string
	from   string
}

// NewMailgunSender validates cfg and returns a ready sender.
func NewMailgunSender(cfg MailgunConfig) (*MailgunSender, error) {
	if cfg.Domain == "" || cfg.APIKey == "" || cfg.From == "" {
		return nil, errors.New("mailgun requires domain, api key, and from address")
	}

	mg := mailgun.NewMailgun(cfg.APIKey)
	if cfg.APIBase != "" {
		if err := mg.SetAPIBase(cfg.APIBase); err != nil {
			return nil, err
		}
	}

	return &MailgunSender{
		mg:     mg,
		domain: cfg.Domain,
		from:   cfg.From,
	}, nil
}

// Send delivers msg through Mailgun.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	m := mailgun.NewMessage(s.domain, s.from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		m.SetHTML(msg.HTML)
	}

	_, err := s.mg.Send(ctx, m)
	return err
}
