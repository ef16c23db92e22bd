package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
)

func init() {
	lvl, err := GetLevel(os.Getenv("CLOCK_LOG_LEVEL"))
	if err != nil {
		lvl = InfoLevel
	}

	DefaultLogger = NewLogger(WithLevel(lvl))
}

type defaultLogger struct {
	opts Options
	slog *slog.Logger
	sync.RWMutex
}

// Init (opts...) should only overwrite provided options.
func (l *defaultLogger) Init(opts ...Option) error {
	l.Lock()
	defer l.Unlock()

	for _, o := range opts {
		o(&l.opts)
	}

	handler := slog.NewTextHandler(l.opts.Out, &slog.HandlerOptions{
		Level: l.opts.Level.ToSlog(),
	})
	l.slog = slog.New(handler)

	if len(l.opts.Fields) > 0 {
		args := make([]any, 0, len(l.opts.Fields)*2)
		for k, v := range l.opts.Fields {
			args = append(args, k, v)
		}
		l.slog = l.slog.With(args...)
	}

	return nil
}

func (l *defaultLogger) String() string {
	return "default"
}

func (l *defaultLogger) Fields(fields map[string]interface{}) Logger {
	l.RLock()
	nfields := copyFields(l.opts.Fields)
	opts := l.opts
	l.RUnlock()

	for k, v := range fields {
		nfields[k] = v
	}

	return NewLogger(
		WithLevel(opts.Level),
		WithFields(nfields),
		WithOutput(opts.Out),
		WithCallerSkipCount(opts.CallerSkipCount),
	)
}

func copyFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}

	return dst
}

func (l *defaultLogger) Log(level Level, v ...interface{}) {
	l.write(level, fmt.Sprint(v...))
}

func (l *defaultLogger) Logf(level Level, format string, v ...interface{}) {
	l.write(level, fmt.Sprintf(format, v...))
}

func (l *defaultLogger) write(level Level, msg string) {
	if !l.opts.Level.Enabled(level) {
		return
	}

	l.RLock()
	slogger := l.slog
	l.RUnlock()

	if slogger == nil {
		slogger = slog.Default()
	}

	var pcs [1]uintptr
	runtime.Callers(l.opts.CallerSkipCount, pcs[:])
	r := slog.NewRecord(time.Now(), level.ToSlog(), msg, pcs[0])

	_ = slogger.Handler().Handle(context.Background(), r)
}

func (l *defaultLogger) Options() Options {
	l.RLock()
	defer l.RUnlock()

	opts := l.opts
	opts.Fields = copyFields(l.opts.Fields)

	return opts
}

// NewLogger builds a new logger based on options.
func NewLogger(opts ...Option) Logger {
	// skip NewRecord, write and the Log/Logf wrapper
	const defaultCallerSkipCount = 4

	options := Options{
		Level:           InfoLevel,
		Fields:          make(map[string]interface{}),
		Out:             os.Stderr,
		CallerSkipCount: defaultCallerSkipCount,
		Context:         context.Background(),
	}

	l := &defaultLogger{opts: options}
	if err := l.Init(opts...); err != nil {
		l.Log(FatalLevel, err)
	}

	return l
}
