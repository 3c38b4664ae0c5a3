package captcha

import "testing"

func TestCaptureAndConsume(t *testing.T) {
	h := NewTokenHolder()

	if _, ok := h.Token(); ok {
		t.Fatal("a fresh holder must be empty")
	}

	h.Capture("tok-1")
	if got, ok := h.Token(); !ok || got != "tok-1" {
		t.Fatalf("Token() = %q, %v", got, ok)
	}

	if got, ok := h.Consume(); !ok || got != "tok-1" {
		t.Fatalf("Consume() = %q, %v", got, ok)
	}
	if _, ok := h.Consume(); ok {
		t.Fatal("a consumed token must not be served twice")
	}
}

func TestCaptureReplacesPrevious(t *testing.T) {
	h := NewTokenHolder()
	h.Capture("tok-1")
	h.Capture("tok-2")

	if got, _ := h.Consume(); got != "tok-2" {
		t.Fatalf("Consume() = %q, want the latest capture", got)
	}
}

func TestClearDropsToken(t *testing.T) {
	h := NewTokenHolder()
	h.Capture("tok-1")
	h.Clear()

	if _, ok := h.Token(); ok {
		t.Fatal("Clear must drop the held token")
	}
}
