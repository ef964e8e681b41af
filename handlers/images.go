package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/images"
	"github.com/andrewpaige1/memocards-api/utils"
)

func (h *DBHandler) PresignImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.Images == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}

	var req struct {
		ContentType string `json:"contentType"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	upload, err := h.Images.PresignUpload(r.Context(), strconv.FormatUint(uint64(user.ID), 10), req.ContentType)
	if errors.Is(err, images.ErrUnsupportedType) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("Handler: presign failed", zap.Uint("userID", user.ID), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to prepare upload")
		return
	}
	utils.WriteJSON(w, http.StatusOK, upload)
}
