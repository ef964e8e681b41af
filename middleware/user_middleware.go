package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrewpaige1/memocards-api/models"
	"github.com/andrewpaige1/memocards-api/utils"
)

type contextKey string

const userKey contextKey = "user"

// SyncUserMiddleware resolves the token subject to a stored user and attaches
// it to the request context. When createUnknown is set (Auth0 mode) a user is
// created on first sight and its name kept in sync with the nickname claim;
// otherwise unknown subjects are rejected.
func SyncUserMiddleware(db *gorm.DB, createUnknown bool, log *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			subject, ok := utils.GetSubject(r)
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			nickname := nicknameFrom(r)

			var user models.User
			err := db.WithContext(r.Context()).Where("subject = ?", subject).First(&user).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound) && createUnknown:
				user = models.User{Subject: subject, Name: nickname}
				if err := db.WithContext(r.Context()).Create(&user).Error; err != nil {
					log.Error("Middleware: failed to create user", zap.String("subject", subject), zap.Error(err))
					utils.WriteError(w, http.StatusInternalServerError, "Failed to create user")
					return
				}
				log.Info("Middleware: created user", zap.String("subject", subject))
			case errors.Is(err, gorm.ErrRecordNotFound):
				utils.WriteError(w, http.StatusUnauthorized, "Unknown user")
				return
			case err != nil:
				log.Error("Middleware: failed to load user", zap.String("subject", subject), zap.Error(err))
				utils.WriteError(w, http.StatusInternalServerError, "Failed to load user")
				return
			case createUnknown && nickname != "" && user.Name != nickname:
				user.Name = nickname
				if err := db.WithContext(r.Context()).Model(&user).Update("name", nickname).Error; err != nil {
					log.Error("Middleware: failed to update user", zap.String("subject", subject), zap.Error(err))
					utils.WriteError(w, http.StatusInternalServerError, "Failed to update user")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &user)))
		}
	}
}

func nicknameFrom(r *http.Request) string {
	claims, ok := utils.GetClaims(r)
	if !ok {
		return ""
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok && custom != nil {
		return custom.Nickname
	}
	return ""
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user attached by SyncUserMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
