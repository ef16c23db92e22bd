package logger

import (
	"context"
	"io"
)

type Option func(*Options)

type Options struct {
	// The logging level the logger should log at. Default is InfoLevel.
	Level Level
	// Fields to always be logged.
	Fields map[string]interface{}
	// It's common to set this to a file, or leave it default which is os.Stderr.
	Out io.Writer
	// Caller skip frame count for file:line info.
	CallerSkipCount int
	// Alternative options.
	Context context.Context
}

// WithLevel sets the log level.
func WithLevel(level Level) Option {
	return func(args *Options) {
		args.Level = level
	}
}

// WithFields sets the default fields.
func WithFields(fields map[string]interface{}) Option {
	return func(args *Options) {
		args.Fields = fields
	}
}

// WithOutput sets the output writer.
func WithOutput(out io.Writer) Option {
	return func(args *Options) {
		args.Out = out
	}
}

// WithCallerSkipCount sets the frame count to skip for caller info.
func WithCallerSkipCount(c int) Option {
	return func(args *Options) {
		args.CallerSkipCount = c
	}
}
