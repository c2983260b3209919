package logchannel

import (
	"fmt"
	"strings"
	"sync"

	"github.com/storkforge/petconnect/pkg/logger/types"
	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"
)

const (
	queueSize        = 64
	sendFailedPrefix = "failed to send log to channel"
)

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramChannel forwards log entries to an operator chat. Entries are queued
// and sent from a single goroutine so logging never waits on Telegram; when the
// queue is full the entry is dropped.
type TelegramChannel struct {
	bot    sender
	chat   *tele.Chat
	level  zapcore.Level
	logger *types.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan types.Log
	wg     sync.WaitGroup
}

func NewTelegramChannel(token string, chatID int64, level zapcore.Level, logger *types.Logger) (*TelegramChannel, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create log channel bot: %w", err)
	}
	return newTelegramChannel(b, chatID, level, logger), nil
}

func newTelegramChannel(bot sender, chatID int64, level zapcore.Level, logger *types.Logger) *TelegramChannel {
	c := &TelegramChannel{
		bot:    bot,
		chat:   &tele.Chat{ID: chatID},
		level:  level,
		logger: logger,
		queue:  make(chan types.Log, queueSize),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// Hook is passed to logger.SetLogHook.
func (c *TelegramChannel) Hook(log types.Log) {
	if log.Level < c.level || strings.HasPrefix(log.Message, sendFailedPrefix) {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.queue <- log:
	default:
	}
}

// Close flushes queued entries.
func (c *TelegramChannel) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *TelegramChannel) run() {
	defer c.wg.Done()
	for log := range c.queue {
		if _, err := c.bot.Send(c.chat, log.String()); err != nil {
			c.logger.Errorf(sendFailedPrefix+" %d: %v", c.chat.ID, err)
		}
	}
}
