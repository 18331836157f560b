package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photocard/photocard-api/internal/middleware"
)

func withUser(id int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), id, "")))
		})
	}
}

func TestHandlerMe(t *testing.T) {
	repo := newFakeRepository()
	alice := &User{Email: "a@test.local", Nickname: "alice"}
	require.NoError(t, repo.Create(context.Background(), alice))
	require.NoError(t, repo.Create(context.Background(), &User{Email: "b@test.local", Nickname: "bob"}))

	router := NewHandler(NewService(repo)).Routes(withUser(alice.ID))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"nickname":"alice"`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "empty object", body: `{}`, want: http.StatusBadRequest},
		{name: "blank nickname", body: `{"nickname":"   "}`, want: http.StatusUnprocessableEntity},
		{name: "bad email", body: `{"email":"nope"}`, want: http.StatusUnprocessableEntity},
		{name: "taken nickname", body: `{"nickname":"bob"}`, want: http.StatusConflict},
		{name: "ok", body: `{"nickname":"alicia"}`, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/me", strings.NewReader(tt.body))
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
