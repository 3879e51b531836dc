package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{
		"tok-alpha": "user-1",
		"tok-beta":  "user-2",
	})

	userID, err := v.Verify(context.Background(), "tok-beta")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if userID != "user-2" {
		t.Fatalf("Verify() = %q, want user-2", userID)
	}

	if _, err := v.Verify(context.Background(), "tok-unknown"); err == nil {
		t.Fatal("Verify() accepted an unknown token")
	}
}

func TestMiddleware(t *testing.T) {
	v := NewStaticVerifier(map[string]string{"tok-alpha": "user-1"})
	m := NewMiddleware(v)

	var seenUserID string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "valid token", header: "Bearer tok-alpha", wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic tok-alpha", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer tok-nope", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if seenUserID != tt.wantUser {
				t.Fatalf("user id = %q, want %q", seenUserID, tt.wantUser)
			}
		})
	}
}

func TestUserIDMissing(t *testing.T) {
	if got := UserID(context.Background()); got != "" {
		t.Fatalf("UserID() on bare context = %q, want empty", got)
	}
}
