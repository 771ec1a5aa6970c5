package automation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courierhq/courier/internal/models"
)

func testExchange() *models.ChatExchange {
	session := &models.OAuthSession{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		ExpiresIn:    3600,
		CreatedAt:    time.Now().UnixMilli(),
	}
	identity := &models.UserIdentity{Email: "user@example.com", Name: "Test User"}
	return models.NewChatExchange("hello", session, identity, time.Now())
}

func TestSend_ForwardsFullExchange(t *testing.T) {
	var captured models.ChatExchange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]string{"output": "hi there"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	reply, err := client.Send(context.Background(), testExchange())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if reply.Text != "hi there" {
		t.Errorf("expected reply 'hi there', got %q", reply.Text)
	}
	if captured.Prompt != "hello" {
		t.Errorf("expected prompt 'hello', got %q", captured.Prompt)
	}
	if captured.AccessToken != "at-123" {
		t.Errorf("expected access token forwarded, got %q", captured.AccessToken)
	}
	if captured.RefreshToken != "rt-456" {
		t.Errorf("expected refresh token forwarded, got %q", captured.RefreshToken)
	}
	if captured.Email != "user@example.com" {
		t.Errorf("expected email forwarded, got %q", captured.Email)
	}
	if _, err := time.Parse(time.RFC3339, captured.Timestamp); err != nil {
		t.Errorf("expected RFC3339 timestamp, got %q", captured.Timestamp)
	}
}

func TestSend_NonOKStatusIsProxyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Send(context.Background(), testExchange())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var proxyErr *ProxyError
	if !errors.As(err, &proxyErr) {
		t.Fatalf("expected ProxyError, got %T", err)
	}
	if proxyErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", proxyErr.StatusCode)
	}
}

func TestSend_UnreachableBackendIsProxyError(t *testing.T) {
	// Port 1 refuses connections
	client := NewClient("http://127.0.0.1:1/webhook", WithTimeout(2*time.Second))
	_, err := client.Send(context.Background(), testExchange())
	if err == nil {
		t.Fatal("expected error for unreachable backend")
	}

	var proxyErr *ProxyError
	if !errors.As(err, &proxyErr) {
		t.Fatalf("expected ProxyError, got %T", err)
	}
}

func TestSend_PlainTextReplySurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	reply, err := client.Send(context.Background(), testExchange())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Text != "pong" {
		t.Errorf("expected plain-text reply surfaced, got %q", reply.Text)
	}
}

func TestSend_FallbackOnUnrecognizedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"rows": 3})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	reply, err := client.Send(context.Background(), testExchange())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Text != FallbackReply {
		t.Errorf("expected fallback reply, got %q", reply.Text)
	}
}
