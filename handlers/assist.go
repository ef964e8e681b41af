package handlers

import (
	"net/http"
	"strings"

	"github.com/andrewpaige1/memocards-api/assist"
	"github.com/andrewpaige1/memocards-api/utils"
)

type formatResponse struct {
	assist.Result
	GeminiEnabled bool `json:"geminiEnabled"`
}

// FormatContent formats raw content and suggests tags without saving anything.
func (h *DBHandler) FormatContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		utils.WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	res := h.Assist.FormatAndTag(r.Context(), req.Content)
	utils.WriteJSON(w, http.StatusOK, formatResponse{Result: res, GeminiEnabled: h.Assist.Enabled()})
}
