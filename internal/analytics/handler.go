package analytics

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chapterquiz/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MyPerformance handles GET /api/v1/analytics/me.
func (h *Handler) MyPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(int64)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	performance, err := h.service.UserPerformance(userID)
	if err != nil {
		log.Printf("[analytics] user performance for %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to compute performance analytics"})
		return
	}

	writeJSON(w, http.StatusOK, performance)
}

// ChapterAnalytics handles GET /api/v1/analytics/chapters/{id}.
func (h *Handler) ChapterAnalytics(w http.ResponseWriter, r *http.Request) {
	chapterID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid chapter ID"})
		return
	}

	analytics, err := h.service.ChapterAnalytics(chapterID)
	if err != nil {
		log.Printf("[analytics] chapter analytics for %s: %v", chapterID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to compute chapter analytics"})
		return
	}
	if analytics == nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Chapter not found"})
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
