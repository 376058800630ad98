package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/internal/services"
	"github.com/bazaar-market/apiserver/types"
)

func newUserTestServer(t *testing.T) (*httptest.Server, *auth.TokenIssuer, types.User) {
	t.Helper()

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	userService := services.NewUserService(newMemUserRepo(), auth.NewPasswordPolicy(4), 20)

	r := chi.NewRouter()
	r.Use(Identity(issuer))
	r.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, 20)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	user, err := userService.Register(context.Background(), services.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Passw0rd",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return server, issuer, user
}

func putJSON(t *testing.T, url, token string, body map[string]any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s failed: %v", url, err)
	}
	return resp
}

func issueFor(t *testing.T, issuer *auth.TokenIssuer, user types.User) string {
	t.Helper()
	token, err := issuer.Issue(types.Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

func TestUpdateUserRejectsServerOnlyFields(t *testing.T) {
	server, issuer, user := newUserTestServer(t)
	token := issueFor(t, issuer, user)
	url := server.URL + "/users/" + strconv.Itoa(user.ID)

	// Verification and audit fields cannot be forged through the update
	// body; unknown keys are rejected outright.
	for _, body := range []map[string]any{
		{"email_verified": true},
		{"last_login": "2026-01-01T00:00:00Z"},
	} {
		resp := putJSON(t, url, token, body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d, want 400", body, resp.StatusCode)
		}
	}

	// A legitimate field still goes through.
	resp := putJSON(t, url, token, map[string]any{"email": "new@example.com"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("email update status = %d, want 200", resp.StatusCode)
	}
	var updated types.User
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Email != "new@example.com" {
		t.Fatalf("email = %q", updated.Email)
	}
}

func TestUpdateUserAdminFlagFenced(t *testing.T) {
	server, issuer, user := newUserTestServer(t)
	token := issueFor(t, issuer, user)

	resp := putJSON(t, server.URL+"/users/"+strconv.Itoa(user.ID), token, map[string]any{"is_admin": true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestUpdateUserSelfOrAdminOnly(t *testing.T) {
	server, issuer, user := newUserTestServer(t)
	stranger := issueFor(t, issuer, types.User{ID: user.ID + 1, Username: "mallory"})

	resp := putJSON(t, server.URL+"/users/"+strconv.Itoa(user.ID), stranger, map[string]any{"email": "x@example.com"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger: status = %d, want 403", resp.StatusCode)
	}

	anon := putJSON(t, server.URL+"/users/"+strconv.Itoa(user.ID), "", map[string]any{"email": "x@example.com"})
	anon.Body.Close()
	if anon.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", anon.StatusCode)
	}
}

