package chapters

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chapterquiz/backend/internal/models"
)

// maxUploadBytes caps chapter PDFs at 50 MB.
const maxUploadBytes = 50 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload handles POST /api/v1/chapters. Multipart form: file, subject,
// class_level, title.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "PDF file is required"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Only PDF files are allowed"})
		return
	}

	subject := strings.TrimSpace(r.FormValue("subject"))
	title := strings.TrimSpace(r.FormValue("title"))
	classLevel, err := strconv.Atoi(r.FormValue("class_level"))
	if err != nil || classLevel < 1 || classLevel > 12 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Class level must be between 1 and 12"})
		return
	}
	if title == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Title is required"})
		return
	}

	pdf, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Failed to read uploaded file"})
		return
	}
	if len(pdf) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Uploaded file is empty"})
		return
	}

	chapter, err := h.service.Upload(r.Context(), pdf, subject, classLevel, title)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to process PDF"})
		return
	}

	writeJSON(w, http.StatusCreated, models.ChapterResponse{
		ChapterID:      chapter.ID,
		Status:         chapter.Status,
		Title:          chapter.Title,
		Topics:         chapter.Topics,
		EstimatedPages: chapter.EstimatedPages,
	})
}

// List handles GET /api/v1/chapters with optional subject and class_level
// filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	classLevel := 0
	if raw := r.URL.Query().Get("class_level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid class_level"})
			return
		}
		classLevel = n
	}

	chapters, err := h.service.List(subject, classLevel)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list chapters"})
		return
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}

	writeJSON(w, http.StatusOK, models.ChapterListResponse{Chapters: chapters, Total: len(chapters)})
}

// Get handles GET /api/v1/chapters/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := parseChapterID(w, r)
	if !ok {
		return
	}

	chapter, err := h.service.Get(chapterID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load chapter"})
		return
	}
	if chapter == nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Chapter not found"})
		return
	}

	writeJSON(w, http.StatusOK, chapter)
}

// UpdateProgress handles PUT /api/v1/chapters/{id}/progress.
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int64)

	chapterID, ok := parseChapterID(w, r)
	if !ok {
		return
	}

	var req models.ProgressUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.TimeSpentSeconds < 0 || req.ScrollPct < 0 || req.ScrollPct > 100 || req.Selections < 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Progress values out of range"})
		return
	}

	resp, err := h.service.UpdateProgress(userID, chapterID, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update progress"})
		return
	}
	if resp == nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Chapter not found"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /api/v1/chapters/{id}/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int64)

	chapterID, ok := parseChapterID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Status(userID, chapterID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load status"})
		return
	}
	if resp == nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Chapter not found"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseChapterID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid chapter id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
