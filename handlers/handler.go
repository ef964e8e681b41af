package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrewpaige1/memocards-api/assist"
	"github.com/andrewpaige1/memocards-api/cards"
	"github.com/andrewpaige1/memocards-api/config"
	"github.com/andrewpaige1/memocards-api/images"
	"github.com/andrewpaige1/memocards-api/middleware"
	"github.com/andrewpaige1/memocards-api/models"
	"github.com/andrewpaige1/memocards-api/store"
	"github.com/andrewpaige1/memocards-api/utils"
)

const maxBodyBytes = 8 << 20

// ImagePresigner issues upload targets for card images.
type ImagePresigner interface {
	PresignUpload(ctx context.Context, owner, contentType string) (images.Upload, error)
}

type DBHandler struct {
	*gorm.DB
	Cards  store.CardStore
	Assist *assist.Service
	// Images is nil when object storage is not configured.
	Images ImagePresigner
	Config config.Config
	Log    *zap.Logger
}

// Routes registers every endpoint. ensure validates tokens; it only wraps the
// routes that need a user.
func (h *DBHandler) Routes(ensure func(http.Handler) http.Handler) *http.ServeMux {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	syncUser := middleware.SyncUserMiddleware(h.DB, h.Config.AuthMode == config.AuthModeAuth0, h.Log)
	protect := func(next http.HandlerFunc) http.Handler {
		return ensure(syncUser(next))
	}

	mux := http.NewServeMux()

	// Cards
	mux.Handle("GET /api/cards", protect(h.ListCards))
	mux.Handle("POST /api/cards", protect(h.CreateCard))
	mux.Handle("GET /api/cards/export", protect(h.ExportCards))
	mux.Handle("POST /api/cards/import", protect(h.ImportCards))
	mux.Handle("GET /api/cards/{id}", protect(h.GetCard))
	mux.Handle("PATCH /api/cards/{id}", protect(h.UpdateCard))
	mux.Handle("PUT /api/cards/{id}", protect(h.UpdateCard))
	mux.Handle("DELETE /api/cards/{id}", protect(h.DeleteCard))

	// Assist and uploads
	mux.Handle("POST /api/assist/format", protect(h.FormatContent))
	mux.Handle("POST /api/images/presign", protect(h.PresignImage))

	// Users
	mux.Handle("GET /api/me", protect(h.Me))
	if h.Config.AuthMode == config.AuthModeSession {
		mux.HandleFunc("POST /api/auth/register", h.Register)
		mux.HandleFunc("POST /api/auth/login", h.Login)
		mux.HandleFunc("POST /api/auth/logout", h.Logout)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	return mux
}

func currentUser(r *http.Request) (*models.User, bool) {
	return middleware.UserFromContext(r.Context())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// writeCardError maps core and store errors to responses. Anything unknown is
// logged and reported as a generic failure of action.
func (h *DBHandler) writeCardError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var validation *cards.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &validation):
		body := utils.ErrorBody{Error: validation.Error(), Field: validation.Field}
		if validation.Index >= 0 {
			index := validation.Index
			body.Index = &index
		}
		utils.WriteJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, cards.ErrMalformedJSON):
		utils.WriteError(w, http.StatusBadRequest, "Malformed JSON")
	case errors.Is(err, cards.ErrTooManyCards):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cards.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Card not found")
	case errors.As(err, &tooLarge):
		utils.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		fields := []zap.Field{zap.String("path", r.URL.Path), zap.Error(err)}
		if user, ok := currentUser(r); ok {
			fields = append(fields, zap.Uint("userID", user.ID))
		}
		h.Log.Error("Handler: "+action+" failed", fields...)
		utils.WriteError(w, http.StatusInternalServerError, action+" failed")
	}
}
