package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestAuth(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New("test-secret", "tabula", time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestIssueVerify(t *testing.T) {
	a := newTestAuth(t)
	token, err := a.Issue("alice", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	a := newTestAuth(t)
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }
	token, err := a.Issue("alice", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	a.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := a.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(expired) error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	other, _ := New("other-secret", "tabula", time.Hour)
	token, _ := other.Issue("mallory", RoleAdmin)

	if _, err := newTestAuth(t).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(foreign) error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthorize(t *testing.T) {
	a := newTestAuth(t)
	admin, _ := a.Issue("alice", RoleAdmin)
	viewer, _ := a.Issue("bob", "viewer")

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing", "", ErrMissingToken},
		{"wrong scheme", "Basic abc", ErrMissingToken},
		{"garbage", "Bearer not-a-token", ErrInvalidToken},
		{"viewer", "Bearer " + viewer, ErrForbidden},
		{"admin", "Bearer " + admin, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			_, err := a.Authorize(r)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	if _, err := New("", "tabula", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
