// Package logging はcharmbracelet/logのロガーを設定します。
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options はロガーの設定です。
type Options struct {
	Level     string
	Format    string
	Prefix    string
	Output    io.Writer
	Timestamp bool
}

// New は設定からロガーを作成します。
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: opts.Timestamp,
		Prefix:          opts.Prefix,
	})
}

// Setup はロガーを作成し、パッケージのデフォルトロガーとして設定します。
func Setup(opts Options) *log.Logger {
	logger := New(opts)
	log.SetDefault(logger)
	return logger
}

// ParseLevel は文字列のログレベルを変換します。不明な値はinfoです。
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter は文字列のフォーマッター名を変換します。
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
