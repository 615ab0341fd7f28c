package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"lingualearner-api/internal/model"
)

func TestClient_LoginPersistsAndAttachesToken(t *testing.T) {
	var seenAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.LoginResponse{
			Message:   "Login successful",
			Token:     "issued-token",
			User:      &model.User{ID: 42, Email: "alice@example.com"},
			ExpiresIn: 3600,
		})
	})
	mux.HandleFunc("GET /user/profile", func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.User{ID: 42, Email: "alice@example.com"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := NewSessionStoreAt(filepath.Join(t.TempDir(), "session.json"))
	c, err := New(server.URL, WithSessionStore(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.LoggedIn() {
		t.Fatal("fresh client should be logged out")
	}

	user, err := c.Login(context.Background(), "alice@example.com", "password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("user id = %d, want 42", user.ID)
	}

	if _, err := c.GetProfile(context.Background()); err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if seenAuth != "Bearer issued-token" {
		t.Errorf("Authorization = %q, want %q", seenAuth, "Bearer issued-token")
	}

	// A second client built on the same store picks up the session.
	c2, err := New(server.URL, WithSessionStore(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !c2.LoggedIn() {
		t.Error("second client should inherit the persisted session")
	}

	// Logout clears both memory and file.
	if err := c.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	c3, err := New(server.URL, WithSessionStore(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c3.LoggedIn() {
		t.Error("client after logout should be logged out")
	}
}

func TestClient_DecodesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Post already liked"})
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = c.LikePost(context.Background(), 5)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", apiErr.StatusCode)
	}
	if apiErr.Message != "Post already liked" {
		t.Errorf("message = %q, want %q", apiErr.Message, "Post already liked")
	}
}
