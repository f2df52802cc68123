package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequireToken_StoresClaims(t *testing.T) {
	tm := NewTokenMaker("secret")

	var (
		got    Claims
		gotOK  bool
		called bool
	)
	h := RequireToken(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got, gotOK = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tok, err := tm.New("ops", "inventory:write", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, called)
	require.True(t, gotOK)
	require.Equal(t, "ops", got.Subject)
	require.Equal(t, "inventory:write", got.Scope)
}

func TestRequireToken_MissingToken(t *testing.T) {
	h := RequireToken(NewTokenMaker("secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	_, ok := ClaimsFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.False(t, ok)
}
