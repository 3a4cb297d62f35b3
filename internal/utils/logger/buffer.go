package logger

import (
	"bytes"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// Buffer is a ring of the most recent console lines. It replaces the
// terminal as the console sink while a full-screen view owns stdout, and
// the view renders the tail itself. The rotated log file keeps everything.
type Buffer struct {
	mu      sync.Mutex
	lines   []string
	next    int
	wrapped bool
	partial []byte

	total   uint64
	evicted uint64
}

var _ zapcore.WriteSyncer = (*Buffer)(nil)

// NewBuffer keeps the last size lines.
func NewBuffer(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{lines: make([]string, size)}
}

// Write splits p into lines. An unterminated tail waits for the next write.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := append(b.partial, p...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.add(strings.TrimRight(string(data[:i]), "\r"))
		data = data[i+1:]
	}
	b.partial = append([]byte(nil), data...)
	return len(p), nil
}

func (b *Buffer) add(line string) {
	if b.wrapped {
		b.evicted++
	}
	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.wrapped = true
	}
	b.total++
}

func (b *Buffer) Sync() error { return nil }

// Recent returns up to limit lines, oldest first. limit <= 0 returns all
// buffered lines.
func (b *Buffer) Recent(limit int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	count, start := b.next, 0
	if b.wrapped {
		count, start = len(b.lines), b.next
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}

	out := make([]string, count)
	for i := range out {
		out[i] = b.lines[(start+i)%len(b.lines)]
	}
	return out
}

// GetStats returns lines written and lines pushed out of the ring.
func (b *Buffer) GetStats() (total, evicted uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total, b.evicted
}
