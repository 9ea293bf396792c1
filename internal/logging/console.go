package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/term"
)

// ANSI color codes for level-colored console output.
const (
	ansiReset       = "\x1b[0m"
	ansiFaint       = "\x1b[2m"
	ansiBrightBlue  = "\x1b[94m"
	ansiBrightGreen = "\x1b[92m"
	ansiBrightYellow = "\x1b[93m"
	ansiBrightRed   = "\x1b[91m"
)

// ConsoleOptions configures ConsoleHandler.
type ConsoleOptions struct {
	Level      slog.Leveler
	TimeFormat string
	NoColor    bool
}

// ConsoleHandler is a compact, level-colored slog.Handler for interactive
// use, adapted from petabytecl-gaz/logger/tint's Handler: colors auto-disable
// when stdout isn't a TTY (detected via golang.org/x/term), matching the
// daemon's JSON handler everywhere else.
type ConsoleHandler struct {
	attrsPrefix string
	groupPrefix string

	mu   *sync.Mutex
	w    io.Writer
	opts ConsoleOptions
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a ConsoleHandler writing to w. Colors are
// auto-detected unless opts.NoColor is already true.
func NewConsoleHandler(w io.Writer, opts ConsoleOptions) *ConsoleHandler {
	h := &ConsoleHandler{w: w, mu: &sync.Mutex{}, opts: opts}

	if !h.opts.NoColor {
		if f, ok := w.(*os.File); ok {
			h.opts.NoColor = !term.IsTerminal(int(f.Fd()))
		} else {
			h.opts.NoColor = true
		}
	}
	if h.opts.TimeFormat == "" {
		h.opts.TimeFormat = "15:04:05.000"
	}
	return h
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	return &ConsoleHandler{
		attrsPrefix: h.attrsPrefix,
		groupPrefix: h.groupPrefix,
		mu:          h.mu,
		w:           h.w,
		opts:        h.opts,
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	var buf bytes.Buffer
	for _, a := range attrs {
		h.appendAttr(&buf, a, h.groupPrefix)
	}
	h2.attrsPrefix = h.attrsPrefix + buf.String()
	return h2
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groupPrefix += name + "."
	return h2
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		h.appendTime(&buf, r.Time)
		buf.WriteByte(' ')
	}
	h.appendLevel(&buf, r.Level)
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	if h.attrsPrefix != "" {
		buf.WriteByte(' ')
		buf.WriteString(h.attrsPrefix)
	}
	if r.NumAttrs() > 0 {
		buf.WriteByte(' ')
		r.Attrs(func(a slog.Attr) bool {
			h.appendAttr(&buf, a, h.groupPrefix)
			return true
		})
	}

	b := bytes.TrimRight(buf.Bytes(), " ")
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(b); err != nil {
		return err
	}
	_, err := h.w.Write([]byte("\n"))
	return err
}

func (h *ConsoleHandler) appendLevel(buf *bytes.Buffer, level slog.Level) {
	color, label := ansiBrightGreen, "INF"
	switch {
	case level < slog.LevelInfo:
		color, label = ansiBrightBlue, "DBG"
	case level < slog.LevelWarn:
		color, label = ansiBrightGreen, "INF"
	case level < slog.LevelError:
		color, label = ansiBrightYellow, "WRN"
	default:
		color, label = ansiBrightRed, "ERR"
	}
	if !h.opts.NoColor {
		buf.WriteString(color)
	}
	buf.WriteString(label)
	if !h.opts.NoColor {
		buf.WriteString(ansiReset)
	}
}

func (h *ConsoleHandler) appendTime(buf *bytes.Buffer, t time.Time) {
	if !h.opts.NoColor {
		buf.WriteString(ansiFaint)
	}
	buf.WriteString(t.Format(h.opts.TimeFormat))
	if !h.opts.NoColor {
		buf.WriteString(ansiReset)
	}
}

func (h *ConsoleHandler) appendAttr(buf *bytes.Buffer, a slog.Attr, groupPrefix string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		prefix := groupPrefix
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range attrs {
			h.appendAttr(buf, ga, prefix)
		}
		return
	}

	if !h.opts.NoColor {
		buf.WriteString(ansiFaint)
	}
	buf.WriteString(groupPrefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	if !h.opts.NoColor {
		buf.WriteString(ansiReset)
	}
	h.appendValue(buf, a.Value)
	buf.WriteByte(' ')
}

func (h *ConsoleHandler) appendValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		buf.WriteString(v.String())
	case slog.KindInt64:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		buf.WriteString(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		buf.WriteString(strconv.FormatFloat(v.Float64(), 'f', -1, 64))
	case slog.KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case slog.KindDuration:
		buf.WriteString(v.Duration().String())
	case slog.KindTime:
		buf.WriteString(v.Time().Format(time.RFC3339))
	default:
		fmt.Fprint(buf, v.Any())
	}
}
