package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/config"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/httpclient"
)

// CompletionHandler receives completion records submitted by play sessions.
type CompletionHandler struct {
	service *app.CompletionService
}

func NewCompletionHandler(service *app.CompletionService) *CompletionHandler {
	return &CompletionHandler{service: service}
}

func (h *CompletionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	playerID := r.Header.Get(httpclient.PlayerHeader)
	if playerID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing " + httpclient.PlayerHeader})
		return
	}

	var record domain.CompletionRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid completion payload"})
		return
	}

	resp, err := h.service.Submit(r.Context(), playerID, record)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuiz) {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: err.Error()})
			return
		}
		log.WithError(err).WithField("quiz", record.QuizSlug).Error("record completion failed")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
