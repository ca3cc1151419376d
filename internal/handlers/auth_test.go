package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"bookkeeping/internal/auth"
	"bookkeeping/internal/models"
	"bookkeeping/internal/store"

	"github.com/lib/pq"
)

func TestRegisterSuccess(t *testing.T) {
	var created models.User
	var actions []string
	h := newTestHandler(testDeps{
		users: stubUserStore{createFn: func(_ context.Context, _ store.Execer, user models.User) error {
			created = user
			return nil
		}},
		audit: stubAuditStore{logFn: func(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
			actions = append(actions, action)
			return nil
		}},
	})

	rr := serve(t, h, http.MethodPost, "/auth/register", `{"email":" alice@example.com ","password":"pass1234","full_name":"Alice"}`, "")
	expectStatus(t, rr, http.StatusCreated)

	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	claims, err := auth.ParseToken(testSecret, payload["token"])
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID != created.ID {
		t.Fatalf("token subject %q, created user %q", claims.UserID, created.ID)
	}
	if created.Email != "alice@example.com" || created.PreferredCurrency != "USD" {
		t.Fatalf("unexpected user: %+v", created)
	}
	if created.FullName == nil || *created.FullName != "Alice" {
		t.Fatalf("expected full name, got %v", created.FullName)
	}
	if !auth.CheckPassword(created.PasswordHash, "pass1234") {
		t.Fatalf("password was not hashed with the submitted value")
	}
	if len(actions) != 1 || actions[0] != "user.register" {
		t.Fatalf("unexpected audit actions: %v", actions)
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := map[string]string{
		"bad email":      `{"email":"nope","password":"pass1234"}`,
		"short password": `{"email":"a@example.com","password":"short"}`,
		"bad currency":   `{"email":"a@example.com","password":"pass1234","preferred_currency":"usd"}`,
		"malformed":      `{"email":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(testDeps{
				users: stubUserStore{createFn: func(context.Context, store.Execer, models.User) error {
					t.Fatalf("user must not be created")
					return nil
				}},
			})
			rr := serve(t, h, http.MethodPost, "/auth/register", body, "")
			expectStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newTestHandler(testDeps{
		users: stubUserStore{createFn: func(context.Context, store.Execer, models.User) error {
			return &pq.Error{Code: "23505"}
		}},
	})
	rr := serve(t, h, http.MethodPost, "/auth/register", `{"email":"a@example.com","password":"pass1234"}`, "")
	expectStatus(t, rr, http.StatusConflict)
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("pass1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := stubUserStore{getByEmailFn: func(_ context.Context, email string) (models.User, error) {
		if email != "alice@example.com" {
			return models.User{}, store.ErrNotFound
		}
		return models.User{ID: testUserID, Email: email, PasswordHash: hash}, nil
	}}
	h := newTestHandler(testDeps{users: users})

	rr := serve(t, h, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"pass1234"}`, "")
	expectStatus(t, rr, http.StatusOK)
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	claims, err := auth.ParseToken(testSecret, payload["token"])
	if err != nil || claims.UserID != testUserID {
		t.Fatalf("unexpected token: %v %+v", err, claims)
	}

	rr = serve(t, h, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong-pass"}`, "")
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = serve(t, h, http.MethodPost, "/auth/login", `{"email":"bob@example.com","password":"pass1234"}`, "")
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	h := newTestHandler(testDeps{
		users: stubUserStore{getByIDFn: func(_ context.Context, userID string) (models.User, error) {
			return models.User{ID: userID, Email: "alice@example.com", PasswordHash: "hidden", PreferredCurrency: "USD"}, nil
		}},
	})
	rr := serve(t, h, http.MethodGet, "/auth/me", "", testUserID)
	expectStatus(t, rr, http.StatusOK)
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["id"] != testUserID {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, leaked := payload["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}

	rr = serve(t, h, http.MethodGet, "/auth/me", "", "")
	expectStatus(t, rr, http.StatusUnauthorized)
}
