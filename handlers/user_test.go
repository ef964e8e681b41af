package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/memocards-api/auth"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"email":`, http.StatusBadRequest},
		{"bad email", `{"email":"nope","password":"secret123"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@example.com","password":"123"}`, http.StatusBadRequest},
		{"ok", `{"email":" A@Example.com ","password":"secret123","name":" Ana "}`, http.StatusCreated},
		{"duplicate", `{"email":"a@example.com","password":"secret123"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestLoginSetsCookieAndMe(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/auth/register", "", `{"email":"ana@example.com","password":"secret123","name":"Ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(http.MethodPost, "/api/auth/login", "", `{"email":"bob@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookies[0])
	me := httpRecorder(env, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	body := jsonBody(t, me)
	assert.Equal(t, "session", body["authMode"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "ana@example.com", user["email"])
	assert.Equal(t, "Ana", user["name"])

	rec = env.do(http.MethodPost, "/api/auth/logout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/cards", "/api/me", "/api/cards/export"} {
		rec := env.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := env.do(http.MethodGet, "/api/cards", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
