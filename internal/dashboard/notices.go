package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message shown to the operator.
type Notice struct {
	ID        string      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// NoticeBoard keeps notices until their TTL elapses.
type NoticeBoard struct {
	mu      sync.Mutex
	ttl     time.Duration
	notices []Notice
	now     func() time.Time
}

func NewNoticeBoard(ttl time.Duration) *NoticeBoard {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &NoticeBoard{ttl: ttl, now: time.Now}
}

func (b *NoticeBoard) Post(level NoticeLevel, text string) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}
	b.pruneLocked(now)
	b.notices = append(b.notices, n)
	return n
}

// Active returns unexpired notices, oldest first.
func (b *NoticeBoard) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(b.now())
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

func (b *NoticeBoard) pruneLocked(now time.Time) {
	kept := b.notices[:0]
	for _, n := range b.notices {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
}
