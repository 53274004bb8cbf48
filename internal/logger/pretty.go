package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// PrettyHandler is a slog.Handler that formats logs with colors for CLI output.
// Colors are disabled when NO_COLOR is set in the environment.
type PrettyHandler struct {
	opts  slog.HandlerOptions
	w     io.Writer
	mu    *sync.Mutex
	color bool
	group string
	attrs []slog.Attr
}

// NewPrettyHandler creates a new PrettyHandler.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{
		opts:  *opts,
		w:     w,
		mu:    &sync.Mutex{},
		color: os.Getenv("NO_COLOR") == "",
	}
}

// paint wraps s in the given color when colors are enabled.
func (h *PrettyHandler) paint(buf []byte, color string, s ...string) []byte {
	if h.color {
		buf = append(buf, color...)
	}
	for _, part := range s {
		buf = append(buf, part...)
	}
	if h.color {
		buf = append(buf, colorReset...)
	}
	return buf
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes a log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Format: [TIME] LEVEL message key=value key=value [source]
	buf := make([]byte, 0, 1024)

	buf = h.paint(buf, colorGray, "[", r.Time.Format(time.DateTime), "]")
	buf = append(buf, ' ')
	buf = h.paint(buf, levelColor(r.Level)+colorBold, padLevel(r.Level.String()))
	buf = append(buf, ' ')

	// Message
	buf = append(buf, r.Message...)

	// Attributes (including handler attrs and record attrs)
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	if len(attrs) > 0 {
		buf = append(buf, ' ')
		if h.color {
			buf = append(buf, colorCyan...)
		}
		for i, attr := range attrs {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendAttr(buf, attr, h.group)
		}
		if h.color {
			buf = append(buf, colorReset...)
		}
	}

	buf = append(buf, '\n')

	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		opts:  h.opts,
		w:     h.w,
		mu:    h.mu,
		color: h.color,
		group: h.group,
		attrs: newAttrs,
	}
}

// WithGroup returns a new handler with a group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &PrettyHandler{
		opts:  h.opts,
		w:     h.w,
		mu:    h.mu,
		color: h.color,
		group: newGroup,
		attrs: h.attrs,
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorBlue
	default:
		return colorGray
	}
}

// padLevel right-pads level names to the width of "DEBUG"/"ERROR".
func padLevel(level string) string {
	if n := len(level); n < 5 {
		return level + strings.Repeat(" ", 5-n)
	}
	return level
}

func appendAttr(buf []byte, attr slog.Attr, group string) []byte {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}

	buf = append(buf, key...)
	buf = append(buf, '=')

	switch attr.Value.Kind() {
	case slog.KindString:
		s := attr.Value.String()
		if needsQuoting(s) {
			buf = strconv.AppendQuote(buf, s)
		} else {
			buf = append(buf, s...)
		}
	case slog.KindTime:
		buf = attr.Value.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindDuration:
		buf = append(buf, attr.Value.Duration().Round(time.Microsecond).String()...)
	case slog.KindGroup:
		buf = append(buf, '{')
		attrs := attr.Value.Group()
		for i, a := range attrs {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendAttr(buf, a, "")
		}
		buf = append(buf, '}')
	default:
		buf = append(buf, fmt.Sprint(attr.Value.Any())...)
	}

	return buf
}

// needsQuoting reports whether s would be ambiguous unquoted: empty, or
// holding spaces, quotes, or control and non-printing characters.
func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, c := range s {
		if c == ' ' || c == '"' || c == '=' || !unicode.IsPrint(c) {
			return true
		}
	}
	return false
}
