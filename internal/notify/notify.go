package notify

import (
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

type Notice struct {
	Seq     uint64    `json:"seq"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(level Level, message string)
}

// Feed keeps the latest notices for the UI to poll.
type Feed struct {
	log     *slog.Logger
	mu      sync.Mutex
	size    int
	seq     uint64
	notices []Notice
	now     func() time.Time
}

const DefaultSize = 50

func NewFeed(log *slog.Logger, size int) *Feed {
	if size <= 0 {
		size = DefaultSize
	}
	return &Feed{
		log:  log,
		size: size,
		now:  time.Now,
	}
}

func (f *Feed) Notify(level Level, message string) {
	f.mu.Lock()
	f.seq++
	f.notices = append(f.notices, Notice{
		Seq:     f.seq,
		Level:   level,
		Message: message,
		At:      f.now(),
	})
	if len(f.notices) > f.size {
		f.notices = f.notices[len(f.notices)-f.size:]
	}
	f.mu.Unlock()

	f.log.Info("notice", "level", string(level), "message", message)
}

// Since returns notices with a sequence number greater than after, oldest first.
func (f *Feed) Since(after uint64) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notice, 0, len(f.notices))
	for _, n := range f.notices {
		if n.Seq > after {
			out = append(out, n)
		}
	}
	return out
}
