package contact

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
)

// ResendMailer forwards contact messages to the club inbox via Resend.
type ResendMailer struct {
	client *resend.Client
	from   string
	to     string
}

var _ Mailer = (*ResendMailer)(nil)

func NewResendMailer(apiKey, from, to string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (m *ResendMailer) Forward(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: fmt.Sprintf("Pesan baru dari %s", msg.Nama),
		Html: fmt.Sprintf(
			"<p><b>Nama:</b> %s</p><p><b>Email:</b> %s</p><p><b>NIM:</b> %s</p><p><b>Prodi:</b> %s</p><p>%s</p>",
			html.EscapeString(msg.Nama),
			html.EscapeString(msg.Email),
			html.EscapeString(msg.NIM),
			html.EscapeString(msg.Prodi),
			html.EscapeString(msg.Pesan),
		),
	}
	if msg.Email != "" {
		params.ReplyTo = msg.Email
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("forward contact message: %w", err)
	}
	return nil
}
