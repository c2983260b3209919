package sendgrid

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/storkforge/petconnect/internal/domain/dto"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client sends reminder emails through the SendGrid v3 API.
type Client struct {
	sender    mailSender
	fromEmail string
	fromName  string
}

func NewClient(apiKey, fromEmail, fromName string) *Client {
	return &Client{
		sender:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (c *Client) SendEmail(ctx context.Context, to, subject, body string, attachments ...dto.Attachment) error {
	from := mail.NewEmail(c.fromName, c.fromEmail)
	message := mail.NewV3MailInit(from, subject, mail.NewEmail("", to), mail.NewContent("text/plain", body))

	for _, a := range attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		attachment.SetType(a.ContentType)
		attachment.SetFilename(a.Filename)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	resp, err := c.sender.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", to, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", to, resp.StatusCode, resp.Body)
	}
	return nil
}
