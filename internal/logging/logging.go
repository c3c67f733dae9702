// Package logging builds the slog loggers used by the server and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
)

const (
	FormatJSON  = "json"
	FormatText  = "text"
	FormatColor = "color"
)

// ParseLevel accepts debug, info, warn and error (case insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// New returns a logger writing to w in the given format.
func New(w io.Writer, format, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case FormatJSON, "":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	case FormatText:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	case FormatColor:
		opts := slogcolor.DefaultOptions
		opts.Level = lvl
		opts.MsgColor = color.New(color.FgMagenta)
		opts.SrcFileMode = slogcolor.Nop
		return slog.New(slogcolor.NewHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
