package zerolog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/rs/zerolog"
)

// Logger implements interfaces.Logger using zerolog.
type Logger struct {
	zlog zerolog.Logger
}

// NewZerologLogger initializes zerolog with a console writer on stdout.
func NewZerologLogger(serviceName string) interfaces.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i any) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	return NewZerologLoggerWithWriter(serviceName, output)
}

// NewZerologLoggerWithWriter writes JSON lines to w.
func NewZerologLoggerWithWriter(serviceName string, w io.Writer) interfaces.Logger {
	z := zerolog.New(w).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	return &Logger{zlog: z}
}

func (l *Logger) Info(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Info(), keyvals).Msg(msg)
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Warn(), keyvals).Msg(msg)
}

func (l *Logger) Error(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Error(), keyvals).Msg(msg)
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Debug(), keyvals).Msg(msg)
}

// withFields attaches key/value pairs; non-string keys and a trailing odd value are dropped.
func withFields(event *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i < len(keyvals)-1; i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keyvals[i+1].(error); isErr {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, keyvals[i+1])
	}
	return event
}

// SetLevel sets the level of this logger. Level names are case-insensitive
// and anything unrecognised falls back to info.
func (l *Logger) SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	l.zlog = l.zlog.Level(lvl)
}

// WithContext creates a new logger with additional context.
func (l *Logger) WithContext(ctx map[string]interface{}) interfaces.Logger {
	newLogger := l.zlog.With()
	for key, value := range ctx {
		newLogger = newLogger.Interface(key, value)
	}
	return &Logger{zlog: newLogger.Logger()}
}
