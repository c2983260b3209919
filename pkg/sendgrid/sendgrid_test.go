package sendgrid

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	resp *rest.Response
	err  error
	got  *mail.SGMailV3
}

func (f *fakeSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.got = email
	return f.resp, f.err
}

func newTestClient(sender *fakeSender) *Client {
	return &Client{sender: sender, fromEmail: "reminders@petconnect.test", fromName: "PetConnect"}
}

func TestSendEmailBuildsMessage(t *testing.T) {
	sender := &fakeSender{resp: &rest.Response{StatusCode: 202}}
	c := newTestClient(sender)

	err := c.SendEmail(context.Background(), "anna@example.com", "Reminder", "body", dto.Attachment{
		Filename: "meet-up.ics", ContentType: "text/calendar", Content: []byte("ics"),
	})
	require.NoError(t, err)

	require.NotNil(t, sender.got)
	assert.Equal(t, "Reminder", sender.got.Subject)
	assert.Equal(t, "reminders@petconnect.test", sender.got.From.Address)
	require.Len(t, sender.got.Content, 1)
	assert.Equal(t, "text/plain", sender.got.Content[0].Type)
	require.Len(t, sender.got.Attachments, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ics")), sender.got.Attachments[0].Content)
}

func TestSendEmailErrorStatus(t *testing.T) {
	c := newTestClient(&fakeSender{resp: &rest.Response{StatusCode: 401, Body: "unauthorized"}})

	err := c.SendEmail(context.Background(), "anna@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendEmailTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	c := newTestClient(&fakeSender{err: boom})

	assert.ErrorIs(t, c.SendEmail(context.Background(), "anna@example.com", "s", "b"), boom)
}
