package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders lines as
//
//	ts LEVEL [cycle run] component: msg key=value ...
//
// The bracketed run prefix appears only when a cycle or run id is attached.
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	prefix    string
	addSource bool
}

// runIDPrefixLen keeps console headers short; the JSON handler writes the full id.
const runIDPrefixLen = 8

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := make([]field, 0, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		fields = appendField(fields, h.prefix, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})

	var component, cycle, runID string
	body := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = f.text()
		case FieldCycle:
			cycle = f.text()
		case FieldRunID:
			runID = f.text()
		default:
			body = append(body, f)
		}
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(formatTimestamp(ts))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if run := runLabel(cycle, runID); run != "" {
		b.WriteString(" [")
		b.WriteString(run)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}

	for _, f := range lastWins(body) {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(f.quoted())
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func runLabel(cycle, runID string) string {
	if len(runID) > runIDPrefixLen {
		runID = runID[:runIDPrefixLen]
	}
	return strings.TrimSpace(cycle + " " + runID)
}

type field struct {
	key   string
	value slog.Value
}

func appendField(dst []field, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendField(dst, next, member)
		}
		return dst
	}
	if attr.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: attr.Value})
}

// lastWins keeps the last value for each key, in first-seen order.
func lastWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if pos, ok := index[f.key]; ok {
			out[pos] = f
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func (f field) text() string {
	switch f.value.Kind() {
	case slog.KindString:
		return f.value.String()
	case slog.KindBool:
		return strconv.FormatBool(f.value.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(f.value.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(f.value.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(f.value.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return f.value.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return formatTimestamp(f.value.Time())
	default:
		if err, ok := f.value.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(f.value.Any())
	}
}

func (f field) quoted() string {
	s := f.text()
	if s == "" || strings.ContainsAny(s, " =\"\t\n\r") {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
