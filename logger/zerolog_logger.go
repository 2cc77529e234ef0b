package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ZerologLogger struct {
	logger zerolog.Logger
	closer io.Closer
}

type ZerologOptions struct {
	UseColor   bool
	Level      string
	TimeFormat string
	// OutputFile, when set, receives JSON logs in addition to the console
	// and is rotated by size.
	OutputFile string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Out overrides the console destination, stdout by default.
	Out io.Writer
}

func NewZerologLogger() *ZerologLogger {
	return NewZerologLoggerWithOptions(ZerologOptions{
		UseColor:   true,
		Level:      "info",
		TimeFormat: "15:04:05",
	})
}

func NewZerologLoggerWithOptions(opts ZerologOptions) *ZerologLogger {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = "15:04:05"
	}

	var console io.Writer = opts.Out
	if opts.UseColor {
		console = zerolog.ConsoleWriter{
			Out:        opts.Out,
			TimeFormat: opts.TimeFormat,
		}
	}

	writer := console
	var closer io.Closer
	if opts.OutputFile != "" {
		if opts.MaxSizeMB == 0 {
			opts.MaxSizeMB = 10
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.OutputFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writer = zerolog.MultiLevelWriter(console, rotating)
		closer = rotating
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	return &ZerologLogger{
		logger: zerolog.New(writer).Level(level).With().Timestamp().Logger(),
		closer: closer,
	}
}

// With returns a child logger that tags every line with key=value.
func (l *ZerologLogger) With(key, value string) *ZerologLogger {
	return &ZerologLogger{
		logger: l.logger.With().Str(key, value).Logger(),
		closer: l.closer,
	}
}

// Close flushes and closes the rotating log file, if any.
func (l *ZerologLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Msg(fmt.Sprintf(msg, args...))
}

func (l *ZerologLogger) Info(msg string, args ...any) {
	l.logger.Info().Msg(fmt.Sprintf(msg, args...))
}

func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Msg(fmt.Sprintf(msg, args...))
}

func (l *ZerologLogger) Error(msg string, args ...any) {
	l.logger.Error().Msg(fmt.Sprintf(msg, args...))
}
