package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/andrewpaige1/memocards-api/assist"
	"github.com/andrewpaige1/memocards-api/cards"
	"github.com/andrewpaige1/memocards-api/config"
	"github.com/andrewpaige1/memocards-api/images"
	"github.com/andrewpaige1/memocards-api/middleware"
	"github.com/andrewpaige1/memocards-api/store"
)

type fakePresigner struct{}

func (fakePresigner) PresignUpload(ctx context.Context, owner, contentType string) (images.Upload, error) {
	if contentType != "image/png" {
		return images.Upload{}, fmt.Errorf("%w: %q", images.ErrUnsupportedType, contentType)
	}
	key := "cards/" + owner + "/abc.png"
	return images.Upload{Key: key, UploadURL: "https://s3.example/" + key + "?sig", URL: "https://cdn.example/" + key}, nil
}

type testEnv struct {
	t       *testing.T
	db      *gorm.DB
	handler *DBHandler
	mux     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecretKey = "handler-secret"
	cfg.TokenTTL = time.Hour
	cfg.MaxImportCards = 5

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := config.Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    "file:" + name + "?mode=memory&cache=shared",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cardStore := store.NewDBStore(db, cfg.MaxImportCards)
	clock := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	cardStore.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	log := zaptest.NewLogger(t)
	ensure, err := middleware.EnsureValidToken(cfg, log)
	require.NoError(t, err)

	h := &DBHandler{
		DB:     db,
		Cards:  cardStore,
		Assist: assist.NewService(nil, 0, log),
		Config: cfg,
		Log:    log,
	}
	return &testEnv{t: t, db: db, handler: h, mux: h.Routes(ensure)}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func httpRecorder(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns a session token for it.
func (e *testEnv) signup(email string) string {
	e.t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"secret123","name":"Test"}`, email)
	rec := e.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/api/auth/login", "", fmt.Sprintf(`{"email":%q,"password":"secret123"}`, email))
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(e.t, out.Token)
	return out.Token
}

func (e *testEnv) createCard(token, body string) cards.Card {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/cards", token, body)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Card cards.Card `json:"card"`
	}
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Card
}

type listBody struct {
	Cards         []cards.Card `json:"cards"`
	AvailableTags []string     `json:"availableTags"`
}

func (e *testEnv) list(token, query string) listBody {
	e.t.Helper()
	rec := e.do(http.MethodGet, "/api/cards"+query, token, "")
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var out listBody
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cardTitles(list []cards.Card) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Title
	}
	return out
}
