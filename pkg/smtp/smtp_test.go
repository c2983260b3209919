package smtp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestBuildMessage(t *testing.T) {
	c := NewClient(gomail.NewDialer("localhost", 2525, "", ""), "reminders@petconnect.test", "petconnect.test", time.Second)

	msg := c.buildMessage("anna@example.com", "Reminder: Dog walk", "See you there!", []dto.Attachment{{
		Filename:    "meet-up.ics",
		ContentType: "text/calendar; charset=utf-8; method=PUBLISH",
		Content:     []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"),
	}})

	assert.Equal(t, []string{"anna@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"reminders@petconnect.test"}, msg.GetHeader("From"))
	require.Len(t, msg.GetHeader("Message-ID"), 1)
	assert.Regexp(t, `^<[0-9a-f-]{36}@petconnect\.test>$`, msg.GetHeader("Message-ID")[0])

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "See you there!")
	assert.Contains(t, raw, `filename="meet-up.ics"`)
	assert.Contains(t, raw, "text/calendar")
}

func TestSendEmailHonoursCanceledContext(t *testing.T) {
	c := NewClient(gomail.NewDialer("localhost", 2525, "", ""), "reminders@petconnect.test", "petconnect.test", time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SendEmail(ctx, "anna@example.com", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeRelay accepts one session and hands over the DATA payload on QUIT.
func fakeRelay(t *testing.T) (*gomail.Dialer, <-chan string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		reply := func(line string) { fmt.Fprintf(conn, "%s\r\n", line) }
		reply("220 relay.test ESMTP")

		var data strings.Builder
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 relay.test")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 End data with <CR><LF>.<CR><LF>")
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					data.WriteString(l)
				}
				reply("250 queued")
			case cmd == "QUIT":
				reply("221 bye")
				received <- data.String()
				return
			default:
				reply("502 not implemented")
			}
		}
	}()

	return dialerFor(t, ln.Addr()), received
}

func dialerFor(t *testing.T, addr net.Addr) *gomail.Dialer {
	host, portStr, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return gomail.NewDialer(host, port, "", "")
}

func TestSendEmail(t *testing.T) {
	dialer, received := fakeRelay(t)
	c := NewClient(dialer, "reminders@petconnect.test", "petconnect.test", 5*time.Second)

	require.NoError(t, c.SendEmail(context.Background(), "anna@example.com", "Reminder: Dog walk", "See you there!"))

	select {
	case raw := <-received:
		assert.Contains(t, raw, "Subject: Reminder: Dog walk")
		assert.Contains(t, raw, "See you there!")
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not receive the message")
	}
}

func TestSendEmailStopsAtTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	// Accepts and never greets.
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(io.Discard, conn)
			}()
		}
	}()

	c := NewClient(dialerFor(t, ln.Addr()), "reminders@petconnect.test", "petconnect.test", 100*time.Millisecond)

	start := time.Now()
	err = c.SendEmail(context.Background(), "anna@example.com", "s", "b")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
