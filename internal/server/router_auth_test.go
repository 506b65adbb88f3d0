package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/NorthPierLabs/weathernow/internal/announce"
)

func TestMutationsRequireTheAdminSecret(t *testing.T) {
	handler, store := newTestHandler(t)
	seeded, err := store.Append(announce.Draft{Text: "protected"})
	if err != nil {
		t.Fatalf("seed append failed: %v", err)
	}

	attempts := []struct {
		name   string
		method string
		target string
		body   string
		secret string
	}{
		{name: "announce without secret", method: http.MethodPost, target: "/api/announce", body: `{"text":"hi"}`},
		{name: "announce with wrong secret", method: http.MethodPost, target: "/api/announce", body: `{"text":"hi"}`, secret: "wrong"},
		{name: "announce with wrong body password", method: http.MethodPost, target: "/api/announce", body: `{"password":"wrong","text":"hi"}`},
		{name: "delete without secret", method: http.MethodDelete, target: "/api/messages/1"},
		{name: "delete with wrong secret", method: http.MethodDelete, target: "/api/messages/1", secret: "wrong"},
		{name: "clear with wrong secret", method: http.MethodDelete, target: "/api/messages", secret: "wrong"},
	}

	for _, attempt := range attempts {
		recorder := performRequest(handler, attempt.method, attempt.target, attempt.body, attempt.secret)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", attempt.name, recorder.Code)
		}
		expected := `{"error":"Unauthorized"}`
		if recorder.Body.String() != expected {
			t.Fatalf("%s: unexpected body %s", attempt.name, recorder.Body.String())
		}
	}

	records := store.ListSince(0)
	if len(records) != 1 || records[0] != seeded {
		t.Fatalf("store changed by unauthorized calls: %+v", records)
	}
}

func TestUnauthorizedDeleteLooksTheSameForAbsentIDs(t *testing.T) {
	handler, _ := newTestHandler(t)

	present := performRequest(handler, http.MethodDelete, "/api/messages/1", "", "wrong")
	absent := performRequest(handler, http.MethodDelete, "/api/messages/999", "", "wrong")

	if present.Code != absent.Code || present.Body.String() != absent.Body.String() {
		t.Fatal("401 responses must not reveal whether the id exists")
	}
}

func TestReadsDoNotRequireAuth(t *testing.T) {
	handler, store := newTestHandler(t)
	if _, err := store.Append(announce.Draft{Text: "public"}); err != nil {
		t.Fatalf("seed append failed: %v", err)
	}

	recorder := performRequest(handler, http.MethodGet, "/api/messages", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected unauthenticated read to succeed, got %d", recorder.Code)
	}
	var records []announce.Announcement
	if err := json.Unmarshal(recorder.Body.Bytes(), &records); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestAdminGateFallsBackToDefaultSecret(t *testing.T) {
	gate := NewAdminGate("")
	if !gate.Authorize(DefaultAdminPassword) {
		t.Fatal("empty configuration should fall back to the default password")
	}
	if gate.Authorize("") {
		t.Fatal("empty supplied secret must not authorize")
	}
}
