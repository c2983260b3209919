package types

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named sugared logger handed to every component.
type Logger struct {
	*zap.SugaredLogger
	LogsPath string
	Name     string
}

// Log is a single entry as seen by a LogHook.
type Log struct {
	Timestamp  time.Time
	Caller     string
	LoggerName string
	Level      zapcore.Level
	Message    string
}

// String renders the entry for plain-text sinks such as a chat.
func (l Log) String() string {
	s := fmt.Sprintf("[%s] %s\n%s\n", l.Level.CapitalString(), l.LoggerName, l.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	if l.Caller != "" {
		s += l.Caller + "\n"
	}
	return s + l.Message
}

// LogHook is called synchronously for each entry and must not block.
type LogHook func(log Log)
