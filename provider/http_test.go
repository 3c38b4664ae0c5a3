package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newHTTPClient(t *testing.T, mux *http.ServeMux) *HTTP {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, APIKey: "anon-key"})
	if err != nil {
		t.Fatalf("client construction failed: %v", err)
	}
	return h
}

func tokenHandler(t *testing.T, session map[string]any) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon-key" {
			t.Error("missing apikey header")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing request id header")
		}
		_ = json.NewEncoder(w).Encode(session)
	}
}

// eventRecorder collects auth events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []EventType
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Type)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	copy(out, r.events)
	return out
}

func TestSignInWithPasswordDecodesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", tokenHandler(t, map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"token_type":    "bearer",
		"expires_in":    3600,
		"user":          map[string]any{"id": "user-1", "email": "ada@example.com"},
	}))
	h := newHTTPClient(t, mux)

	rec := &eventRecorder{}
	unsub := h.OnAuthEvent(rec.record)
	defer unsub()

	sess, err := h.SignInWithPassword(context.Background(), Credentials{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if sess.AccessToken != "access-1" || sess.RefreshToken != "refresh-1" || sess.UserID != "user-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if remaining := time.Until(sess.ExpiresAt); remaining < 59*time.Minute || remaining > 61*time.Minute {
		t.Fatalf("expires_in not honored: %v", sess.ExpiresAt)
	}

	// The session is persisted and observable.
	got, err := h.Session(context.Background())
	if err != nil || got.AccessToken != "access-1" {
		t.Fatalf("Session() = %+v, %v", got, err)
	}

	want := []EventType{EventInitialSession, EventSignedIn}
	if got := rec.types(); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestSignUpConfirmationPending(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@example.com" {
			t.Errorf("unexpected signup body: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "user-1",
			"email":      "ada@example.com",
			"identities": []map[string]any{{"identity_id": "ident-1", "provider": "email"}},
		})
	})
	h := newHTTPClient(t, mux)

	user, sess, err := h.SignUp(context.Background(), Credentials{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	if sess != nil {
		t.Fatal("confirmation-pending sign-up must not mint a session")
	}
	if user.ID != "user-1" || len(user.Identities) != 1 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestSignUpDuplicateEmailHasNoIdentities(t *testing.T) {
	// The provider obscures duplicates as a 200 whose user carries no
	// identities.
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "user-1",
			"email":      "ada@example.com",
			"identities": []map[string]any{},
		})
	})
	h := newHTTPClient(t, mux)

	user, sess, err := h.SignUp(context.Background(), Credentials{Email: "ada@example.com", Password: "pw"})
	if err != nil || sess != nil {
		t.Fatalf("SignUp() = %v, %v", sess, err)
	}
	if len(user.Identities) != 0 {
		t.Fatalf("expected an identity-less user, got %+v", user)
	}
}

func TestRefreshSessionRotatesTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("grant_type") {
		case "password":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"expires_in":    3600,
				"user":          map[string]any{"id": "user-1"},
			})
		case "refresh_token":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refresh_token"] != "refresh-1" {
				t.Errorf("refresh sent %q", body["refresh_token"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "access-2",
				"refresh_token": "refresh-2",
				"expires_in":    3600,
				"user":          map[string]any{"id": "user-1"},
			})
		default:
			t.Errorf("unexpected grant_type %q", r.URL.Query().Get("grant_type"))
		}
	})
	h := newHTTPClient(t, mux)

	rec := &eventRecorder{}
	unsub := h.OnAuthEvent(rec.record)
	defer unsub()

	if _, err := h.SignInWithPassword(context.Background(), Credentials{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	sess, err := h.RefreshSession(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if sess.AccessToken != "access-2" || sess.RefreshToken != "refresh-2" {
		t.Fatalf("tokens not rotated: %+v", sess)
	}

	types := rec.types()
	if types[len(types)-1] != EventTokenRefreshed {
		t.Fatalf("expected a TOKEN_REFRESHED event, got %v", types)
	}
}

func TestRefreshSessionWithoutSession(t *testing.T) {
	h := newHTTPClient(t, http.NewServeMux())
	if _, err := h.RefreshSession(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSignOutClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", tokenHandler(t, map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"expires_in":    3600,
		"user":          map[string]any{"id": "user-1"},
	}))
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			t.Errorf("logout sent Authorization %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := newHTTPClient(t, mux)

	if _, err := h.SignInWithPassword(context.Background(), Credentials{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if err := h.SignOut(context.Background()); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if _, err := h.Session(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after sign-out, got %v", err)
	}
}

func TestErrorDecoding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error_code": "invalid_credentials",
			"msg":        "Invalid login credentials",
		})
	})
	h := newHTTPClient(t, mux)

	_, err := h.SignInWithPassword(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pe.Code != "invalid_credentials" || pe.Status != http.StatusBadRequest {
		t.Fatalf("unexpected error: %+v", pe)
	}
}

func TestSelectProfileFiltersByID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "eq.user-1" {
			t.Errorf("id filter = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "user-1", "first_name": "Ada"}})
	})
	h := newHTTPClient(t, mux)

	row, err := h.SelectProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if row["first_name"] != "Ada" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestSelectProfileMissingRow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	})
	h := newHTTPClient(t, mux)

	if _, err := h.SelectProfile(context.Background(), "user-1"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestUpdateProfilePatchesRow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["blood_type"] != "O+" {
			t.Errorf("unexpected patch body: %v", body)
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "user-1", "blood_type": "O+"}})
	})
	h := newHTTPClient(t, mux)

	row, err := h.UpdateProfile(context.Background(), "user-1", map[string]any{"blood_type": "O+"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if row["blood_type"] != "O+" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestTokenExpiryFallback(t *testing.T) {
	// A token response without expiry fields falls back to the JWT exp claim.
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("token signing failed: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", tokenHandler(t, map[string]any{
		"access_token":  signed,
		"refresh_token": "refresh-1",
	}))
	h := newHTTPClient(t, mux)

	sess, err := h.SignInWithPassword(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if !sess.ExpiresAt.Equal(exp) {
		t.Fatalf("ExpiresAt = %v, want %v", sess.ExpiresAt, exp)
	}
	if sess.UserID != "user-1" {
		t.Fatalf("UserID = %q, want the JWT subject", sess.UserID)
	}
}

func TestOnProfileDeletedStream(t *testing.T) {
	fired := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /realtime/v1/changes", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("event"); got != "DELETE" {
			t.Errorf("event filter = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()

		_, _ = w.Write([]byte("data: {\"type\":\"DELETE\"}\n\n"))
		w.(http.Flusher).Flush()
	})
	h := newHTTPClient(t, mux)

	unsub, err := h.OnProfileDeleted(context.Background(), "user-1", func() {
		close(fired)
	})
	if err != nil {
		t.Fatalf("subscription failed: %v", err)
	}
	defer unsub()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("deletion push never fired")
	}
}
