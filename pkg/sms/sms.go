package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Client sends SMS reminders through Twilio.
type Client struct {
	api  messageCreator
	from string
}

// NewClient bounds every Twilio request by timeout.
func NewClient(accountSID, authToken, from string, timeout time.Duration) *Client {
	return newClient(accountSID, authToken, from, &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: timeout,
	})
}

func newClient(accountSID, authToken, from string, httpClient *http.Client) *Client {
	base := &client.Client{
		Credentials: client.NewCredentials(accountSID, authToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(accountSID)

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Client: base,
	})
	return &Client{
		api:  rest.Api,
		from: from,
	}
}

// SendSMS has no cancellation inside the Twilio client: ctx is checked before
// the request and the HTTP client timeout bounds the request itself.
func (c *Client) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if resp == nil || resp.Sid == nil {
		return errors.New("twilio accepted no message")
	}
	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		return fmt.Errorf("twilio send to %s: %s", to, *resp.ErrorMessage)
	}
	return nil
}
