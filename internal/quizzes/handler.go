package quizzes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chapterquiz/backend/internal/models"
)

// Question count limits per generation request.
const (
	defaultMCQ       = 5
	defaultShort     = 3
	defaultNumerical = 2
	maxQuestions     = 30
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Generate handles POST /api/v1/quizzes/generate/{chapter_id}.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	chapterID, err := uuid.Parse(mux.Vars(r)["chapter_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid chapter id"})
		return
	}

	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMedium
	}
	if !models.ValidDifficulties[req.Difficulty] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Difficulty must be easy, medium, or hard"})
		return
	}

	if req.NumMCQ == 0 && req.NumShort == 0 && req.NumNumerical == 0 {
		req.NumMCQ, req.NumShort, req.NumNumerical = defaultMCQ, defaultShort, defaultNumerical
	}
	if req.NumMCQ < 0 || req.NumShort < 0 || req.NumNumerical < 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Question counts must be non-negative"})
		return
	}
	if req.NumMCQ+req.NumShort+req.NumNumerical > maxQuestions {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Too many questions requested"})
		return
	}

	quiz, err := h.service.Generate(r.Context(), chapterID, req)
	if err == ErrChapterNotFound {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Chapter not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate quiz"})
		return
	}

	writeJSON(w, http.StatusCreated, Serve(quiz))
}

// Get handles GET /api/v1/quizzes/{id}. Reference answers are stripped.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid quiz id"})
		return
	}

	quiz, err := h.service.Get(quizID)
	if err == ErrQuizNotFound {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Quiz not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load quiz"})
		return
	}

	writeJSON(w, http.StatusOK, Serve(quiz))
}

// Submit handles POST /api/v1/quizzes/{id}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int64)

	quizID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid quiz id"})
		return
	}

	var submission models.QuizSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if submission.Answers == nil {
		submission.Answers = map[string]any{}
	}

	resp, err := h.service.Submit(r.Context(), userID, quizID, submission)
	if err == ErrQuizNotFound {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Quiz not found"})
		return
	}
	if err == ErrChapterNotFound {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Chapter not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to grade quiz"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListAttempts handles GET /api/v1/quizzes/attempts.
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int64)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid limit"})
			return
		}
		limit = n
	}

	attempts, err := h.service.ListAttempts(userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list attempts"})
		return
	}
	if attempts == nil {
		attempts = []models.QuizAttempt{}
	}

	writeJSON(w, http.StatusOK, models.AttemptListResponse{Attempts: attempts, Total: len(attempts)})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
