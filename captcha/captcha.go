// Package captcha holds the opaque token produced by the bot-verification
// widget between the moment the widget solves and the moment an auth call
// submits it. The token is never inspected, only forwarded.
package captcha

import "sync"

// TokenHolder stores at most one verification token. The widget's solve
// callback feeds Capture; its expiry and error callbacks feed Clear, so a
// stale token is never submitted.
type TokenHolder struct {
	mu    sync.Mutex
	token string
}

// NewTokenHolder describes the newtokenholder operation and its observable behavior.
func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

// Capture stores the token the widget produced, replacing any previous one.
func (h *TokenHolder) Capture(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

// Token returns the captured token and whether one is held.
func (h *TokenHolder) Token() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token, h.token != ""
}

// Consume returns the captured token and clears it, so one widget solve
// backs at most one auth call.
func (h *TokenHolder) Consume() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	token := h.token
	h.token = ""
	return token, token != ""
}

// Clear drops the held token. Wired to the widget's expiry and error
// callbacks.
func (h *TokenHolder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = ""
}
