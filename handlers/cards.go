package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/assist"
	"github.com/andrewpaige1/memocards-api/cards"
	"github.com/andrewpaige1/memocards-api/utils"
)

type cardRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Images  []string `json:"images"`
	// Assist runs the formatter over the content before saving.
	Assist bool `json:"assist"`
}

func (req cardRequest) draft() cards.Draft {
	return cards.Draft{Title: req.Title, Content: req.Content, Tags: req.Tags, Images: req.Images}
}

type cardResponse struct {
	Card   cards.Card     `json:"card"`
	Assist *assist.Result `json:"assist,omitempty"`
}

func (h *DBHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	params := r.URL.Query()
	sort, err := cards.ParseSort(params.Get("sort"))
	if err != nil {
		h.writeCardError(w, r, err, "Card listing")
		return
	}

	collection, err := h.Cards.List(r.Context(), user.ID)
	if err != nil {
		h.writeCardError(w, r, err, "Card listing")
		return
	}

	visible := collection.Query(cards.Query{
		Search: params.Get("q"),
		Tags:   cards.SplitTags(params.Get("tags")),
		Sort:   sort,
	})
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"cards":         visible,
		"availableTags": collection.AvailableTags(),
	})
}

func (h *DBHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	card, err := h.Cards.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.writeCardError(w, r, err, "Card lookup")
		return
	}
	utils.WriteJSON(w, http.StatusOK, cardResponse{Card: card})
}

func (h *DBHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid card payload")
		return
	}

	draft := req.draft()
	var assisted *assist.Result
	if req.Assist {
		if err := draft.Validate(); err != nil {
			h.writeCardError(w, r, err, "Card creation")
			return
		}
		res := h.Assist.FormatAndTag(r.Context(), draft.Content)
		draft.Content = res.Content
		draft.Tags = append(draft.Tags, res.Tags...)
		assisted = &res
	}

	card, err := h.Cards.Create(r.Context(), user.ID, draft)
	if err != nil {
		h.writeCardError(w, r, err, "Card creation")
		return
	}
	h.Log.Debug("Handler: card created", zap.String("cardID", card.ID), zap.Uint("userID", user.ID))
	utils.WriteJSON(w, http.StatusCreated, cardResponse{Card: card, Assist: assisted})
}

// UpdateCard replaces the editable fields of a card (PATCH and PUT). With
// assist set, content is reformatted only when it actually changed.
func (h *DBHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id := r.PathValue("id")

	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid card payload")
		return
	}

	draft := req.draft()
	var assisted *assist.Result
	if req.Assist {
		current, err := h.Cards.Get(r.Context(), user.ID, id)
		if err != nil {
			h.writeCardError(w, r, err, "Card update")
			return
		}
		if err := draft.Validate(); err != nil {
			h.writeCardError(w, r, err, "Card update")
			return
		}
		if draft.Content != current.Content {
			res := h.Assist.Format(r.Context(), draft.Content)
			draft.Content = res.Content
			assisted = &res
		}
	}

	card, err := h.Cards.Update(r.Context(), user.ID, id, draft)
	if err != nil {
		h.writeCardError(w, r, err, "Card update")
		return
	}
	utils.WriteJSON(w, http.StatusOK, cardResponse{Card: card, Assist: assisted})
}

func (h *DBHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.Cards.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		h.writeCardError(w, r, err, "Card deletion")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
