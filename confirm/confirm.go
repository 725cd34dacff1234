// Package confirm implements the two-phase flow for destructive actions:
// a mutation first requests a token, and only a later call presenting that
// token proceeds. Tokens are single-use, expire, and are bound to the
// requesting session plus the exact action and target.
package confirm

import (
	"sync"
	"time"

	"basavo/authz"

	"github.com/google/uuid"
)

const TokenTTL = 5 * time.Minute

type pending struct {
	sessionID string
	action    authz.Action
	targetID  string
	expiresAt time.Time
}

type Manager struct {
	mu     sync.Mutex
	tokens map[string]pending
	now    func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		tokens: make(map[string]pending),
		now:    time.Now,
	}
}

// Request issues a confirmation token for the given session, action and
// target. The original attempt is a no-op until the token comes back.
func (m *Manager) Request(sessionID string, action authz.Action, targetID string) string {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	m.tokens[token] = pending{
		sessionID: sessionID,
		action:    action,
		targetID:  targetID,
		expiresAt: m.now().Add(TokenTTL),
	}
	return token
}

// Confirm consumes the token if it matches the session, action and target
// it was issued for and has not expired. A consumed token never confirms
// twice.
func (m *Manager) Confirm(token, sessionID string, action authz.Action, targetID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.tokens[token]
	if !ok {
		return false
	}
	delete(m.tokens, token)
	if m.now().After(p.expiresAt) {
		return false
	}
	return p.sessionID == sessionID && p.action == action && p.targetID == targetID
}

// Redeem consumes the token if it belongs to the session and has not
// expired, returning the action and target it was issued for. Like
// Confirm, a redeemed token never redeems twice.
func (m *Manager) Redeem(token, sessionID string) (authz.Action, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.tokens[token]
	if !ok {
		return "", "", false
	}
	delete(m.tokens, token)
	if m.now().After(p.expiresAt) {
		return "", "", false
	}
	if p.sessionID != sessionID {
		return "", "", false
	}
	return p.action, p.targetID, true
}

// Cancel discards a pending token. Cancelling an unknown token is a no-op.
func (m *Manager) Cancel(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

func (m *Manager) prune() {
	now := m.now()
	for token, p := range m.tokens {
		if now.After(p.expiresAt) {
			delete(m.tokens, token)
		}
	}
}
