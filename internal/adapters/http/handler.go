// Package httpadapter exposes the application services over HTTP. All
// /api routes sit behind cookie-JWT auth; response bodies follow the
// {"success": bool, ...} envelope the web client expects.
package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/krishimitra/krishi-agent/internal/app/chat"
	"github.com/krishimitra/krishi-agent/internal/app/crop"
	"github.com/krishimitra/krishi-agent/internal/app/plant"
	"github.com/krishimitra/krishi-agent/internal/domain"
	"github.com/krishimitra/krishi-agent/internal/observability"
)

type Server struct {
	chats  *chat.Service
	plants *plant.Service
	crops  *crop.Service
}

func NewServer(chats *chat.Service, plants *plant.Service, crops *crop.Service, jwtSecret []byte) http.Handler {
	s := &Server{chats: chats, plants: plants, crops: crops}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withRequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(withAuth(jwtSecret))

		r.Route("/chat", func(r chi.Router) {
			r.Post("/create", s.handleCreateChat)
			r.Get("/all", s.handleListChats)
			r.Get("/history", s.handleHistory)
			r.Post("/send", s.handleSend)
			r.Delete("/delete", s.handleDeleteChat)
		})
		r.Post("/plant/analyze", s.handleAnalyzePlant)
		r.Post("/crop/recommendations", s.handleCropRecommendations)
	})

	return r
}

// ─────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────

type chatResponse struct {
	ID          string    `json:"chatId"`
	Title       string    `json:"title"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type turnResponse struct {
	Role  string         `json:"role"`
	Parts []partResponse `json:"parts"`
}

type partResponse struct {
	Text string `json:"text"`
}

type sendRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type analyzeRequest struct {
	Description string `json:"description"`
	Image       string `json:"image"`
	MIMEType    string `json:"mimeType"`
	Language    string `json:"language"`
}

type recommendationsRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ─────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	owner, _ := UserFromContext(r.Context())

	created, err := s.chats.Create(r.Context(), owner)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"chat":    toChatResponse(created),
	})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	owner, _ := UserFromContext(r.Context())

	summaries, err := s.chats.List(r.Context(), owner)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out := make([]chatResponse, 0, len(summaries))
	for _, c := range summaries {
		out = append(out, chatResponse{ID: string(c.ID), Title: c.Title, LastUpdated: c.LastUpdated})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "chats": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}

	turns, err := s.chats.History(r.Context(), domain.ChatID(chatID))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"history": toTurnsResponse(turns),
	})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	owner, _ := UserFromContext(r.Context())

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID == "" {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.chats.Send(r.Context(), domain.ChatID(req.ChatID), owner, req.Message)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": reply})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	owner, _ := UserFromContext(r.Context())

	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}

	if err := s.chats.Delete(r.Context(), domain.ChatID(chatID), owner); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Chat deleted"})
}

func (s *Server) handleAnalyzePlant(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var image []byte
	if req.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			writeError(w, http.StatusBadRequest, "image must be base64 encoded")
			return
		}
		image = decoded
	}

	d, err := s.plants.Analyze(r.Context(), plant.AnalyzeInput{
		Description: req.Description,
		Image:       image,
		ImageMIME:   req.MIMEType,
		Language:    req.Language,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analysis": d})
}

func (s *Server) handleCropRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	recs, err := s.crops.Recommend(r.Context(), req.Latitude, req.Longitude)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "recommendations": recs})
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func toChatResponse(c *domain.Chat) chatResponse {
	return chatResponse{ID: string(c.ID), Title: c.Title, LastUpdated: c.LastUpdated}
}

func toTurnsResponse(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		parts := make([]partResponse, 0, len(t.Parts))
		for _, p := range t.Parts {
			parts = append(parts, partResponse{Text: p.Text})
		}
		out = append(out, turnResponse{Role: string(t.Role), Parts: parts})
	}
	return out
}

// writeDomainError maps domain failures to status codes. Model failures
// are always a generic 500; the classified detail stays in the logs.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.LoggerFromContext(r.Context())

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Chat not found")
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "Not authorized for this chat")
	default:
		var me *domain.ModelError
		if errors.As(err, &me) {
			log.Error("model call failed", "kind", string(me.Kind), "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to generate response.")
			return
		}
		log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}
