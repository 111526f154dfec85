package log

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// ringBufferSize bounds how many recent log lines the logs API can replay.
const ringBufferSize = 200

var ring = &lineRing{}

// lineRing keeps the most recent formatted log lines and fans them out to live
// subscribers (the websocket log stream).
type lineRing struct {
	mu    sync.Mutex
	lines []string
	subs  map[chan string]struct{}
}

func (r *lineRing) append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
	if len(r.lines) > ringBufferSize {
		r.lines = r.lines[len(r.lines)-ringBufferSize:]
	}
	for ch := range r.subs {
		select {
		case ch <- line:
		default: // slow subscriber, drop instead of blocking the logger
		}
	}
}

func (r *lineRing) recent(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.lines) {
		n = len(r.lines)
	}
	out := make([]string, n)
	copy(out, r.lines[len(r.lines)-n:])
	return out
}

func (r *lineRing) subscribe() chan string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.subs == nil {
		r.subs = make(map[chan string]struct{})
	}
	ch := make(chan string, 64)
	r.subs[ch] = struct{}{}
	return ch
}

func (r *lineRing) unsubscribe(ch chan string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(ch)
	}
}

// RecentLines returns up to n of the most recent log lines, oldest first.
func RecentLines(n int) []string {
	return ring.recent(n)
}

// SubscribeLines registers a live log line subscriber. The caller must call
// UnsubscribeLines when done.
func SubscribeLines() chan string {
	return ring.subscribe()
}

// UnsubscribeLines removes a subscriber and closes its channel.
func UnsubscribeLines(ch chan string) {
	ring.unsubscribe(ch)
}

// ringCore is a zapcore.Core that mirrors formatted entries into the ring.
type ringCore struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
}

func newRingCore(encoder zapcore.Encoder, enab zapcore.LevelEnabler) zapcore.Core {
	return &ringCore{LevelEnabler: enab, encoder: encoder}
}

func (c *ringCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &ringCore{LevelEnabler: c.LevelEnabler, encoder: c.encoder.Clone()}
	for i := range fields {
		fields[i].AddTo(clone.encoder)
	}
	return clone
}

func (c *ringCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *ringCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.encoder.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	ring.append(strings.TrimRight(buf.String(), "\n"))
	buf.Free()
	return nil
}

func (c *ringCore) Sync() error { return nil }
