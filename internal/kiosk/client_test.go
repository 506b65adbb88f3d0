package kiosk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NorthPierLabs/weathernow/internal/announce"
)

func TestMessagesSinceSendsCursorAndClientID(t *testing.T) {
	var gotPath, gotSince, gotClientID string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSince = r.URL.Query().Get("since")
		gotClientID = r.Header.Get(clientIDHeader)
		_ = json.NewEncoder(w).Encode([]announce.Announcement{{ID: 8, Text: "hi"}})
	}))
	defer stub.Close()

	client, err := NewClient(ClientConfig{BaseURL: stub.URL + "/"})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	records, err := client.MessagesSince(context.Background(), 7)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if gotPath != "/api/messages" || gotSince != "7" {
		t.Fatalf("unexpected request: path=%q since=%q", gotPath, gotSince)
	}
	if gotClientID == "" {
		t.Fatal("expected a client id header")
	}
	if len(records) != 1 || records[0].ID != 8 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestMessagesSinceRejectsNon200(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer stub.Close()

	client, err := NewClient(ClientConfig{BaseURL: stub.URL})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	if _, err := client.MessagesSince(context.Background(), 0); err == nil {
		t.Fatal("expected error for a 502 response")
	}
}

func TestDismissSendsAdminSecret(t *testing.T) {
	var gotMethod, gotPath, gotSecret string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotSecret = r.Header.Get(adminPasswordHeader)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer stub.Close()

	client, err := NewClient(ClientConfig{BaseURL: stub.URL, AdminPassword: "sesame"})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	if err := client.Dismiss(context.Background(), 12); err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/messages/12" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
	if gotSecret != "sesame" {
		t.Fatalf("unexpected secret header: %q", gotSecret)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{BaseURL: "   "}); err == nil {
		t.Fatal("expected error for blank base url")
	}
}
