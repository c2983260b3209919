package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/storkforge/petconnect/pkg/logger/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	Log     *types.Logger
	logHook atomic.Pointer[types.LogHook]
)

// Config represents configuration options for logger initialization
type Config struct {
	Debug        bool           // Enable debug logging
	TimeLocation *time.Location // Time zone of log timestamps (default: UTC)
	LogToFile    bool           // Enable logging to a file
	LogsDir      string         // Set the directory for logs (default: current working directory)
}

// SetLogHook sets a hook function that will be called for each log entry.
// Passing nil removes the hook.
func SetLogHook(hook types.LogHook) {
	if hook == nil {
		logHook.Store(nil)
		return
	}
	logHook.Store(&hook)
	if Log != nil {
		Log.Debug("Log hook set")
	}
}

// Init builds the root logger: a colored console core plus, when enabled, a
// JSON file core in the logs directory.
func Init(config Config) error {
	logsPath, err := resolveLogsPath(config.LogsDir)
	if err != nil {
		return err
	}

	level := zapcore.InfoLevel
	if config.Debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := newEncoderConfig(config.TimeLocation)
	consoleConfig := encoderConfig
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stdout), level),
	}

	if config.LogToFile {
		path := filepath.Join(logsPath, fmt.Sprintf("reminders-%s.log", time.Now().UTC().Format("2006-01-02")))
		file, errOpen := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if errOpen != nil {
			return errOpen
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.Hooks(forwardToHook))

	const name = "petconnect"
	Log = &types.Logger{
		SugaredLogger: log.Named(name).Sugar(),
		LogsPath:      logsPath,
		Name:          name,
	}
	return nil
}

func resolveLogsPath(dir string) (string, error) {
	var path string
	switch {
	case dir == "":
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		path = wd
	case filepath.IsAbs(dir):
		path = dir
	default:
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		path = filepath.Join(wd, dir)
	}
	return path, os.MkdirAll(path, os.ModePerm)
}

func newEncoderConfig(loc *time.Location) zapcore.EncoderConfig {
	if loc == nil {
		loc = time.UTC
	}
	return zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		TimeKey:     "timestamp",
		NameKey:     "logger",
		CallerKey:   "caller",
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.In(loc).Format(timeLayout))
		},
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func forwardToHook(entry zapcore.Entry) error {
	if hook := logHook.Load(); hook != nil {
		(*hook)(types.Log{
			Timestamp:  entry.Time,
			Caller:     entry.Caller.String(),
			LoggerName: entry.LoggerName,
			Level:      entry.Level,
			Message:    entry.Message,
		})
	}
	return nil
}

// Named returns a new logger with the specified name ("scheduler", "dispatcher", etc.)
func Named(name string) (*types.Logger, error) {
	if Log == nil {
		return nil, fmt.Errorf("logger is not initialized")
	}
	return &types.Logger{
		SugaredLogger: Log.SugaredLogger.Named(name),
		LogsPath:      Log.LogsPath,
		Name:          name,
	}, nil
}

// MustNamed is Named for wiring code that runs after Init.
func MustNamed(name string) *types.Logger {
	l, err := Named(name)
	if err != nil {
		panic(err)
	}
	return l
}

// Nop returns a logger that discards everything, for tests.
func Nop(name string) *types.Logger {
	return &types.Logger{
		SugaredLogger: zap.NewNop().Sugar(),
		Name:          name,
	}
}

func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
