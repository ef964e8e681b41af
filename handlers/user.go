package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrewpaige1/memocards-api/auth"
	"github.com/andrewpaige1/memocards-api/models"
	"github.com/andrewpaige1/memocards-api/utils"
)

const maxNameLength = 80

type userResponse struct {
	ID      uint    `json:"id"`
	Subject string  `json:"subject"`
	Email   *string `json:"email,omitempty"`
	Name    string  `json:"name"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{ID: user.ID, Subject: user.Subject, Email: user.Email, Name: user.Name}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func (h *DBHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid registration payload")
		return
	}
	email, ok := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if !ok || utf8.RuneCountInString(name) > maxNameLength {
		utils.WriteError(w, http.StatusBadRequest, "Invalid registration payload")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("Handler: password hashing failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	var existing models.User
	err = h.WithContext(r.Context()).Where("email = ?", email).First(&existing).Error
	if err == nil {
		utils.WriteError(w, http.StatusConflict, "An account with this email already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.Log.Error("Handler: user lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	subject, err := auth.NewSubject()
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to generate ID")
		return
	}
	user := models.User{Subject: subject, Email: &email, Name: name, PasswordHash: hash}
	if err := h.WithContext(r.Context()).Create(&user).Error; err != nil {
		h.Log.Error("Handler: user creation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.Log.Info("Handler: user registered", zap.Uint("userID", user.ID))
	utils.WriteJSON(w, http.StatusCreated, map[string]any{"user": newUserResponse(&user)})
}

// Login checks the credentials and sets the session cookie. The token is also
// returned for clients that prefer the Authorization header.
func (h *DBHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid login payload")
		return
	}

	email, _ := normalizeEmail(req.Email)
	var user models.User
	err := h.WithContext(r.Context()).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.Log.Error("Handler: user lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if err != nil || email == "" || !auth.CheckPassword(user.PasswordHash, req.Password) {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.CreateToken(user.Subject, user.Name, []byte(h.Config.JWTSecretKey), h.Config.TokenTTL)
	if err != nil {
		h.Log.Error("Handler: token generation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, h.Config.Environment(), h.Config.TokenTTL))
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  newUserResponse(&user),
	})
}

func (h *DBHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(h.Config.Environment()))
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *DBHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"user":     newUserResponse(user),
		"authMode": h.Config.AuthMode,
	})
}
