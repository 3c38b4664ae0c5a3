package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// HTTPConfig holds the connection parameters of [HTTP].
type HTTPConfig struct {
	// BaseURL is the provider root, e.g. "https://project.example.co".
	BaseURL string
	// APIKey is sent as the "apikey" header on every request.
	APIKey string
	// ProfileTable is the REST table holding application profiles.
	// Defaults to "profiles".
	ProfileTable string
	// Timeout bounds every request. Defaults to 15s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client. Mostly for tests.
	HTTPClient *http.Client
}

// HTTP defines a public type used by medauth APIs.
//
// HTTP instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// It speaks the provider's REST surface: /auth/v1/* for identity, /rest/v1/*
// for profile rows, and /realtime/v1/changes (SSE) for row deletion pushes.
// The current session is persisted in memory and owned by this type; callers
// only reach it through [HTTP.Session].
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client

	mu        sync.Mutex
	session   *Session
	listeners []*eventListener
}

type eventListener struct {
	fn func(Event)
}

// NewHTTP describes the newhttp operation and its observable behavior.
//
// NewHTTP may return an error when input validation, dependency calls, or security checks fail.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("provider: BaseURL required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("provider: APIKey required")
	}
	if cfg.ProfileTable == "" {
		cfg.ProfileTable = "profiles"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTP{cfg: cfg, client: client}, nil
}

type wireSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *wireUser `json:"user"`
}

type wireUser struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	EmailConfirmedAt string            `json:"email_confirmed_at"`
	CreatedAt        string            `json:"created_at"`
	Identities       []wireIdentity    `json:"identities"`
	UserMetadata     map[string]string `json:"user_metadata"`
}

type wireIdentity struct {
	IdentityID string `json:"identity_id"`
	Provider   string `json:"provider"`
}

type wireError struct {
	Code      string `json:"error_code"`
	ErrorName string `json:"error"`
	Message   string `json:"msg"`
	MessageMD string `json:"message"`
}

func (s *wireSession) toSession(now time.Time) *Session {
	if s == nil || s.AccessToken == "" {
		return nil
	}
	out := &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		out.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	default:
		out.ExpiresAt = tokenExpiry(s.AccessToken)
	}
	if s.User != nil {
		out.UserID = s.User.ID
	} else {
		out.UserID = tokenSubject(s.AccessToken)
	}
	return out
}

func (u *wireUser) toUser() *User {
	if u == nil {
		return nil
	}
	out := &User{
		ID:       u.ID,
		Email:    u.Email,
		Metadata: u.UserMetadata,
	}
	if t, err := time.Parse(time.RFC3339, u.EmailConfirmedAt); err == nil {
		out.EmailConfirmedAt = &t
	}
	if t, err := time.Parse(time.RFC3339, u.CreatedAt); err == nil {
		out.CreatedAt = t
	}
	for _, id := range u.Identities {
		out.Identities = append(out.Identities, Identity{ID: id.IdentityID, Provider: id.Provider})
	}
	return out
}

// tokenExpiry recovers the expiry of a provider-issued access token from its
// JWT exp claim. The parse is deliberately unverified: signature checking is
// the provider's side of the trust boundary, the client only needs the clock.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func tokenSubject(accessToken string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

func (h *HTTP) do(ctx context.Context, method, path string, query url.Values, body any, auth bool) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("provider: encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	u := strings.TrimRight(h.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("apikey", h.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if auth {
		h.mu.Lock()
		sess := h.session
		h.mu.Unlock()
		if sess != nil {
			req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, payload)
	}
	return payload, nil
}

func decodeError(status int, payload []byte) error {
	var we wireError
	_ = json.Unmarshal(payload, &we)

	code := we.Code
	if code == "" {
		code = we.ErrorName
	}
	msg := we.Message
	if msg == "" {
		msg = we.MessageMD
	}
	if code == "" && msg == "" {
		return &Error{Code: "unknown", Status: status, Message: http.StatusText(status)}
	}
	return &Error{Code: code, Status: status, Message: msg}
}

// SignUp describes the signup operation and its observable behavior.
//
// SignUp may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) SignUp(ctx context.Context, creds Credentials) (*User, *Session, error) {
	body := map[string]any{
		"email":    creds.Email,
		"password": creds.Password,
	}
	if len(creds.Metadata) > 0 {
		body["data"] = creds.Metadata
	}
	if creds.CaptchaToken != "" {
		body["gotrue_meta_security"] = map[string]string{"captcha_token": creds.CaptchaToken}
	}

	payload, err := h.do(ctx, http.MethodPost, "/auth/v1/signup", nil, body, false)
	if err != nil {
		return nil, nil, err
	}

	// The signup response is either a bare user (confirmation pending) or a
	// session wrapping the user (auto-confirm enabled).
	var ws wireSession
	if err := json.Unmarshal(payload, &ws); err == nil && ws.AccessToken != "" {
		sess := ws.toSession(time.Now())
		h.storeSession(sess, EventSignedIn)
		return ws.User.toUser(), sess, nil
	}

	var wu wireUser
	if err := json.Unmarshal(payload, &wu); err != nil {
		return nil, nil, fmt.Errorf("provider: decode signup response: %w", err)
	}
	return wu.toUser(), nil, nil
}

// SignInWithPassword describes the signinwithpassword operation and its observable behavior.
//
// SignInWithPassword may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error) {
	body := map[string]any{
		"email":    creds.Email,
		"password": creds.Password,
	}
	if creds.CaptchaToken != "" {
		body["gotrue_meta_security"] = map[string]string{"captcha_token": creds.CaptchaToken}
	}

	q := url.Values{"grant_type": {"password"}}
	payload, err := h.do(ctx, http.MethodPost, "/auth/v1/token", q, body, false)
	if err != nil {
		return nil, err
	}

	var ws wireSession
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, fmt.Errorf("provider: decode token response: %w", err)
	}
	sess := ws.toSession(time.Now())
	if sess == nil {
		return nil, &Error{Code: "unknown", Status: http.StatusOK, Message: "token response carried no session"}
	}
	h.storeSession(sess, EventSignedIn)
	return sess, nil
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) SignOut(ctx context.Context) error {
	h.mu.Lock()
	had := h.session != nil
	h.mu.Unlock()

	if had {
		if _, err := h.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, true); err != nil {
			return err
		}
	}
	h.storeSession(nil, EventSignedOut)
	return nil
}

// Session describes the session operation and its observable behavior.
//
// Session may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) Session(ctx context.Context) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil, ErrNoSession
	}
	cp := *h.session
	return &cp, nil
}

// User describes the user operation and its observable behavior.
//
// User may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) User(ctx context.Context) (*User, error) {
	payload, err := h.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, true)
	if err != nil {
		return nil, err
	}
	var wu wireUser
	if err := json.Unmarshal(payload, &wu); err != nil {
		return nil, fmt.Errorf("provider: decode user response: %w", err)
	}
	return wu.toUser(), nil
}

// RefreshSession describes the refreshsession operation and its observable behavior.
//
// RefreshSession may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) RefreshSession(ctx context.Context) (*Session, error) {
	h.mu.Lock()
	var refresh string
	if h.session != nil {
		refresh = h.session.RefreshToken
	}
	h.mu.Unlock()
	if refresh == "" {
		return nil, ErrNoSession
	}

	q := url.Values{"grant_type": {"refresh_token"}}
	payload, err := h.do(ctx, http.MethodPost, "/auth/v1/token", q, map[string]string{"refresh_token": refresh}, false)
	if err != nil {
		return nil, err
	}

	var ws wireSession
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, fmt.Errorf("provider: decode refresh response: %w", err)
	}
	sess := ws.toSession(time.Now())
	if sess == nil {
		return nil, &Error{Code: "unknown", Status: http.StatusOK, Message: "refresh response carried no session"}
	}
	h.storeSession(sess, EventTokenRefreshed)
	return sess, nil
}

// ResetPasswordForEmail describes the resetpasswordforemail operation and its observable behavior.
//
// ResetPasswordForEmail may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	body := map[string]string{"email": email}
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	_, err := h.do(ctx, http.MethodPost, "/auth/v1/recover", q, body, false)
	return err
}

// UpdateUser describes the updateuser operation and its observable behavior.
//
// UpdateUser may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) UpdateUser(ctx context.Context, upd UserUpdate) (*User, error) {
	body := map[string]string{}
	if upd.Password != "" {
		body["password"] = upd.Password
	}
	payload, err := h.do(ctx, http.MethodPut, "/auth/v1/user", nil, body, true)
	if err != nil {
		return nil, err
	}
	var wu wireUser
	if err := json.Unmarshal(payload, &wu); err != nil {
		return nil, fmt.Errorf("provider: decode user response: %w", err)
	}
	user := wu.toUser()
	h.emit(Event{Type: EventUserUpdated, Session: h.currentSession()})
	return user, nil
}

// OnAuthEvent describes the onauthevent operation and its observable behavior.
func (h *HTTP) OnAuthEvent(fn func(Event)) (unsubscribe func()) {
	l := &eventListener{fn: fn}

	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	initial := Event{Type: EventInitialSession}
	if h.session != nil {
		cp := *h.session
		initial.Session = &cp
	}
	h.mu.Unlock()

	fn(initial)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, cand := range h.listeners {
			if cand == l {
				h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
				break
			}
		}
	}
}

func (h *HTTP) currentSession() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil
	}
	cp := *h.session
	return &cp
}

func (h *HTTP) storeSession(sess *Session, event EventType) {
	h.mu.Lock()
	h.session = sess
	h.mu.Unlock()
	h.emit(Event{Type: event, Session: sess})
}

func (h *HTTP) emit(ev Event) {
	h.mu.Lock()
	listeners := make([]*eventListener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, l := range listeners {
		l.fn(ev)
	}
}

// SelectProfile describes the selectprofile operation and its observable behavior.
//
// SelectProfile may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) SelectProfile(ctx context.Context, userID string) (map[string]any, error) {
	q := url.Values{
		"id":     {"eq." + userID},
		"select": {"*"},
	}
	payload, err := h.do(ctx, http.MethodGet, "/rest/v1/"+h.cfg.ProfileTable, q, nil, true)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("provider: decode profile rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrProfileNotFound
	}
	return rows[0], nil
}

// UpdateProfile describes the updateprofile operation and its observable behavior.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
func (h *HTTP) UpdateProfile(ctx context.Context, userID string, row map[string]any) (map[string]any, error) {
	q := url.Values{"id": {"eq." + userID}}
	payload, err := h.do(ctx, http.MethodPatch, "/rest/v1/"+h.cfg.ProfileTable, q, row, true)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("provider: decode profile rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrProfileNotFound
	}
	return rows[0], nil
}

// OnProfileDeleted describes the onprofiledeleted operation and its observable behavior.
//
// The subscription is a server-sent-event stream filtered to DELETE events on
// the profile row. fn fires at most once; transport drops end the stream
// silently (the caller's fallback poll covers that gap).
func (h *HTTP) OnProfileDeleted(ctx context.Context, userID string, fn func()) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	q := url.Values{
		"table": {h.cfg.ProfileTable},
		"id":    {"eq." + userID},
		"event": {"DELETE"},
	}
	u := strings.TrimRight(h.cfg.BaseURL, "/") + "/realtime/v1/changes?" + q.Encode()

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, u, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("provider: build stream request: %w", err)
	}
	req.Header.Set("apikey", h.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")
	if sess := h.currentSession(); sess != nil {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	// The stream request must outlive h.client's per-request timeout.
	stream := &http.Client{Transport: h.client.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("provider: open deletion stream: %w", err)
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, decodeError(resp.StatusCode, payload)
	}

	go func() {
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if strings.HasPrefix(line, "data:") {
				fn()
				return
			}
		}
	}()

	return cancel, nil
}
