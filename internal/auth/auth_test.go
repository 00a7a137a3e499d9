package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", 1)

	token, err := m.GenerateToken(42, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	claims, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	m1 := NewManager("0123456789abcdef0123456789abcdef", 1)
	m2 := NewManager("another-secret-another-secret!!!", 1)

	token, err := m1.GenerateToken(1, "bob", "bob@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if _, err := m2.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	m := &Manager{secret: []byte("0123456789abcdef0123456789abcdef"), expiration: -time.Hour}

	token, err := m.GenerateToken(1, "bob", "bob@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if _, err := m.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("VerifyToken() on expired token: error = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !VerifyPassword("s3cret-password", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestMiddleware(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", 1)

	var gotUserID int64
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token passes claims through", func(t *testing.T) {
		token, err := m.GenerateToken(7, "carol", "carol@example.com")
		if err != nil {
			t.Fatalf("GenerateToken() error: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if gotUserID != 7 {
			t.Errorf("user id in context = %d, want 7", gotUserID)
		}
	})
}
