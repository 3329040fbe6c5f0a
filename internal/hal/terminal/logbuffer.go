package terminal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// logBuffer keeps the most recent log lines while tcell owns the terminal.
type logBuffer struct {
	mu    sync.Mutex
	lines []string
	size  int
	next  int
	count int
}

func newLogBuffer(size int) *logBuffer {
	return &logBuffer{lines: make([]string, size), size: size}
}

func (lb *logBuffer) add(line string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines[lb.next] = line
	lb.next = (lb.next + 1) % lb.size
	if lb.count < lb.size {
		lb.count++
	}
}

// recent returns up to n lines, oldest first.
func (lb *logBuffer) recent(n int) []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if n > lb.count {
		n = lb.count
	}

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = lb.lines[(lb.next-n+i+lb.size)%lb.size]
	}
	return out
}

func (lb *logBuffer) flush(w io.Writer) {
	for _, line := range lb.recent(lb.size) {
		fmt.Fprintln(w, line)
	}
}

// logHandler is a slog.Handler that formats records into a logBuffer.
type logHandler struct {
	buffer *logBuffer
	level  slog.Leveler
	attrs  []slog.Attr
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *logHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", record.Level, record.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
		return true
	})

	h.buffer.add(sb.String())
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &logHandler{
		buffer: h.buffer,
		level:  h.level,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *logHandler) WithGroup(string) slog.Handler {
	return h
}
