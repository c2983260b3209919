package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	netsmtp "net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/storkforge/petconnect/internal/domain/dto"
	"gopkg.in/gomail.v2"
)

// Client sends reminder emails through an SMTP relay.
type Client struct {
	dialer  *gomail.Dialer
	from    string
	domain  string
	timeout time.Duration
}

// NewClient takes the relay settings from dialer. A positive timeout bounds
// the whole send, dial included.
func NewClient(dialer *gomail.Dialer, from, domain string, timeout time.Duration) *Client {
	return &Client{
		dialer:  dialer,
		from:    from,
		domain:  domain,
		timeout: timeout,
	}
}

// SendEmail delivers a plain-text message with optional attachments.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string, attachments ...dto.Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg := c.buildMessage(to, subject, body, attachments)
	if err := c.send(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, msg *gomail.Message) error {
	addr := net.JoinHostPort(c.dialer.Host, strconv.Itoa(c.dialer.Port))

	var nd net.Dialer
	raw, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer raw.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := raw.SetDeadline(deadline); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = raw.SetDeadline(time.Now())
	})
	defer stop()

	conn := raw
	if c.dialer.SSL {
		conn = tls.Client(raw, c.tlsConfig())
	}

	sc, err := netsmtp.NewClient(conn, c.dialer.Host)
	if err != nil {
		return err
	}
	defer sc.Close()

	if c.dialer.LocalName != "" {
		if err := sc.Hello(c.dialer.LocalName); err != nil {
			return err
		}
	}
	if !c.dialer.SSL {
		if ok, _ := sc.Extension("STARTTLS"); ok {
			if err := sc.StartTLS(c.tlsConfig()); err != nil {
				return err
			}
		}
	}
	if auth := c.auth(); auth != nil {
		if ok, _ := sc.Extension("AUTH"); ok {
			if err := sc.Auth(auth); err != nil {
				return err
			}
		}
	}

	err = gomail.Send(gomail.SendFunc(func(from string, to []string, m io.WriterTo) error {
		if err := sc.Mail(from); err != nil {
			return err
		}
		for _, addr := range to {
			if err := sc.Rcpt(addr); err != nil {
				return err
			}
		}
		w, err := sc.Data()
		if err != nil {
			return err
		}
		if _, err := m.WriteTo(w); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}), msg)
	if err != nil {
		return err
	}
	return sc.Quit()
}

func (c *Client) auth() netsmtp.Auth {
	if c.dialer.Auth != nil {
		return c.dialer.Auth
	}
	if c.dialer.Username == "" {
		return nil
	}
	return netsmtp.PlainAuth("", c.dialer.Username, c.dialer.Password, c.dialer.Host)
}

func (c *Client) tlsConfig() *tls.Config {
	if c.dialer.TLSConfig != nil {
		return c.dialer.TLSConfig
	}
	return &tls.Config{ServerName: c.dialer.Host}
}

func (c *Client) buildMessage(to, subject, body string, attachments []dto.Attachment) *gomail.Message {
	msg := gomail.NewMessage()

	msg.SetHeader("Message-ID", generateMessageID(c.domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	for _, a := range attachments {
		content := a.Content
		msg.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return msg
}

func generateMessageID(domain string) string {
	uniqueID := uuid.New().String()
	return fmt.Sprintf("<%s@%s>", uniqueID, domain)
}
