package live

import (
	"sort"
	"sync"
)

// Presence tracks which users currently hold a live connection. Each user
// maps to at most one connection id; a reconnect overwrites the previous
// mapping, so the roster never lists a user twice.
type Presence struct {
	mu     sync.Mutex
	online map[string]string // userID -> connection id
}

func NewPresence() *Presence {
	return &Presence{online: make(map[string]string)}
}

// MarkOnline records the user's current connection. Returns true if the
// roster changed (the user was previously offline).
func (p *Presence) MarkOnline(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, wasOnline := p.online[userID]
	p.online[userID] = connID
	return !wasOnline
}

// MarkOffline removes the user only if connID still matches the stored
// connection, so a stale disconnect from a superseded connection cannot
// knock a freshly reconnected user offline. Returns true if the roster
// changed.
func (p *Presence) MarkOffline(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.online[userID]
	if !ok || current != connID {
		return false
	}
	delete(p.online, userID)
	return true
}

func (p *Presence) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.online[userID]
	return ok
}

// Roster returns the online user ids, sorted for stable payloads.
func (p *Presence) Roster() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	roster := make([]string, 0, len(p.online))
	for userID := range p.online {
		roster = append(roster, userID)
	}
	sort.Strings(roster)
	return roster
}
