// internal/notify/mailer.go
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Message is one rendered outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer is the mail transport contract; sends may fail transiently and the
// worker retries them.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SESService is the slice of the SES API the mailer uses, kept as an
// interface for mocking.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SESMailer delivers messages through Amazon SES.
type SESMailer struct {
	client SESService
	from   string
}

func NewSESMailer(client SESService, from string) *SESMailer {
	return &SESMailer{client: client, from: from}
}

func (m *SESMailer) Send(ctx context.Context, msg *Message) error {
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text)},
				Html: &types.Content{Data: aws.String(msg.HTML)},
			},
		},
		Source: aws.String(m.from),
	})
	return err
}
