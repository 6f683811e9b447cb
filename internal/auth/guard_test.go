package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"quizroom-service/internal/domain"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", ErrInvalidToken
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		id = "anonymous"
	}
	_, _ = w.Write([]byte(id))
}

func TestGuard(t *testing.T) {
	handler := Guard(stubVerifier{"good": "user-1"}, nil)(http.HandlerFunc(echoUser))

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer good", status: http.StatusOK, body: "user-1"},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK, body: "user-1"},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK {
				if rec.Body.String() != tc.body {
					t.Fatalf("body = %q, want %q", rec.Body.String(), tc.body)
				}
				return
			}
			var payload map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if payload["error"] == "" {
				t.Fatalf("expected error message in %v", payload)
			}
		})
	}
}

func TestOptionalGuard(t *testing.T) {
	handler := OptionalGuard(stubVerifier{"good": "user-1"})(http.HandlerFunc(echoUser))

	for header, want := range map[string]string{
		"Bearer good": "user-1",
		"Bearer bad":  "anonymous",
		"":            "anonymous",
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("header %q: got %d %q, want 200 %q", header, rec.Code, rec.Body.String(), want)
		}
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	if h.Cost() != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want floor %d", h.Cost(), bcrypt.DefaultCost)
	}

	hash, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "pw1" {
		t.Fatalf("hash must not equal the password")
	}
	if err := h.Compare(hash, "pw1"); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Compare() error = %v, want ErrPasswordMismatch", err)
	}
	if err := h.Compare("", "pw1"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Compare() with empty hash error = %v, want ErrPasswordMismatch", err)
	}
	if _, err := h.Hash(strings.Repeat("p", MaxPasswordBytes+1)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Hash() of oversized password error = %v, want ErrValidation", err)
	}
}
