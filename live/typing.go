package live

import (
	"sync"
	"time"
)

type typingKey struct {
	chatID string
	user   string
}

// TypingTracker holds who is typing in which chat. Every entry carries a
// TTL: if a client drops before sending typing:stop, the entry expires
// and the OnExpire callback broadcasts the stop on its behalf.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	timers   map[typingKey]*time.Timer
	OnExpire func(chatID, user string)
}

func NewTypingTracker(ttl time.Duration) *TypingTracker {
	return &TypingTracker{
		ttl:    ttl,
		timers: make(map[typingKey]*time.Timer),
	}
}

// Start records the typing user and (re)arms their expiry timer.
func (t *TypingTracker) Start(chatID, user string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{chatID: chatID, user: user}
	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.ttl)
		return
	}
	t.timers[key] = time.AfterFunc(t.ttl, func() {
		t.expire(key)
	})
}

// Stop clears the entry. Stopping an absent entry is a no-op.
func (t *TypingTracker) Stop(chatID, user string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{chatID: chatID, user: user}
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Typing lists the users currently typing in a chat.
func (t *TypingTracker) Typing(chatID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var users []string
	for key := range t.timers {
		if key.chatID == chatID {
			users = append(users, key.user)
		}
	}
	return users
}

func (t *TypingTracker) expire(key typingKey) {
	t.mu.Lock()
	_, ok := t.timers[key]
	if ok {
		delete(t.timers, key)
	}
	callback := t.OnExpire
	t.mu.Unlock()

	if ok && callback != nil {
		callback(key.chatID, key.user)
	}
}
