package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/cards"
	"github.com/andrewpaige1/memocards-api/utils"
)

type importResponse struct {
	Strategy       cards.Strategy `json:"strategy"`
	CreatedCount   int            `json:"createdCount"`
	UpdatedCount   int            `json:"updatedCount"`
	SkippedCount   int            `json:"skippedCount"`
	UnchangedCount int            `json:"unchangedCount"`
	Cards          []cards.Card   `json:"cards"`
}

// ImportCards accepts a bare array or a {cards, strategy} object. A strategy
// named in the body wins over the ?strategy= query parameter.
func (h *DBHandler) ImportCards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	batch, err := cards.ParseImport(data, h.Config.MaxImportCards)
	if err != nil {
		h.writeCardError(w, r, err, "Import")
		return
	}
	if q := r.URL.Query().Get("strategy"); q != "" && !batch.StrategySet {
		strategy, err := cards.ParseStrategy(q)
		if err != nil {
			h.writeCardError(w, r, err, "Import")
			return
		}
		batch.Strategy = strategy
	}

	result, err := h.Cards.Import(r.Context(), user.ID, batch)
	if err != nil {
		h.writeCardError(w, r, err, "Import")
		return
	}

	h.Log.Info("Handler: cards imported",
		zap.Uint("userID", user.ID),
		zap.String("strategy", string(result.Strategy)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("unchanged", result.Unchanged))

	utils.WriteJSON(w, http.StatusOK, importResponse{
		Strategy:       result.Strategy,
		CreatedCount:   result.Created,
		UpdatedCount:   result.Updated,
		SkippedCount:   result.Skipped,
		UnchangedCount: result.Unchanged,
		Cards:          result.Cards,
	})
}

// ExportCards downloads the whole collection, most recently updated first.
// ?format=bare returns a plain array that can be imported as is.
func (h *DBHandler) ExportCards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	collection, err := h.Cards.List(r.Context(), user.ID)
	if err != nil {
		h.writeCardError(w, r, err, "Export")
		return
	}

	now := time.Now()
	data, err := cards.Export(collection.Cards(), now, r.URL.Query().Get("format") == "bare")
	if err != nil {
		h.writeCardError(w, r, err, "Export")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", cards.ExportFilename(cards.DefaultExportPrefix, now)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
