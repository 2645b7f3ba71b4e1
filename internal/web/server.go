package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ad/fitness-challenge-bot/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/skip2/go-qrcode"
)

// Server exposes the moderation and lookup API for operators
type Server struct {
	lifecycle    *domain.SubmissionLifecycle
	participants domain.ParticipantRepository
	apiToken     string
	logger       domain.Logger
	httpServer   *http.Server
}

// NewServer creates the admin HTTP server
func NewServer(
	addr string,
	lifecycle *domain.SubmissionLifecycle,
	participants domain.ParticipantRepository,
	apiToken string,
	logger domain.Logger,
) *Server {
	s := &Server{
		lifecycle:    lifecycle,
		participants: participants,
		apiToken:     apiToken,
		logger:       logger,
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Router builds the chi route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/qr/{bib}.png", s.handleQR)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/submissions", s.handleListSubmissions)
		r.Post("/submissions/{id}/approve", s.handleApprove)
		r.Post("/submissions/{id}/reject", s.handleReject)
		r.Get("/participants", s.handleListParticipants)
	})

	return r
}

// ListenAndServe runs the server until it is shut down
func (s *Server) ListenAndServe() error {
	s.logger.Info("admin http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts the server down immediately
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// requireToken guards admin routes with a bearer token. With no token
// configured the admin surface stays closed.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken == "" || r.Header.Get("Authorization") != "Bearer "+s.apiToken {
			s.logger.Warn("unauthorized admin api request", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleQR renders the bib number as a QR PNG, verifying the bib exists
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	bib := chi.URLParam(r, "bib")

	p, err := s.participants.GetParticipantByStartNumber(r.Context(), bib)
	if err != nil {
		s.logger.Error("failed to look up bib", "bib", bib, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "unknown bib number")
		return
	}

	png, err := qrcode.Encode(bib, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("failed to encode qr", "bib", bib, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

type submissionResponse struct {
	ID               int64   `json:"id"`
	ParticipantID    int64   `json:"participant_id"`
	ChallengeID      int64   `json:"challenge_id"`
	SubmittedAt      string  `json:"submitted_at"`
	MediaToken       string  `json:"media_token,omitempty"`
	ResultValue      float64 `json:"result_value"`
	ResultUnit       string  `json:"result_unit"`
	Comment          string  `json:"comment,omitempty"`
	Status           string  `json:"status"`
	ModeratorComment string  `json:"moderator_comment,omitempty"`
}

func toSubmissionResponse(s *domain.Submission) submissionResponse {
	return submissionResponse{
		ID:               s.ID,
		ParticipantID:    s.ParticipantID,
		ChallengeID:      s.ChallengeID,
		SubmittedAt:      s.SubmittedAt.Format(time.RFC3339),
		MediaToken:       s.MediaToken,
		ResultValue:      s.ResultValue,
		ResultUnit:       s.ResultUnit,
		Comment:          s.Comment,
		Status:           string(s.Status),
		ModeratorComment: s.ModeratorComment,
	}
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	status := domain.SubmissionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.SubmissionStatusPending
	}

	submissions, err := s.lifecycle.GetByStatus(r.Context(), status)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		s.logger.Error("failed to list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]submissionResponse, 0, len(submissions))
	for _, sub := range submissions {
		out = append(out, toSubmissionResponse(sub))
	}

	writeJSON(w, http.StatusOK, out)
}

type moderationRequest struct {
	ModeratorID int64  `json:"moderator_id"`
	Comment     string `json:"comment"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, true)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, false)
}

func (s *Server) moderate(w http.ResponseWriter, r *http.Request, approve bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	var req moderationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ModeratorID == 0 {
		writeError(w, http.StatusBadRequest, "moderator_id is required")
		return
	}

	if approve {
		err = s.lifecycle.Approve(r.Context(), id, req.ModeratorID, req.Comment)
	} else {
		err = s.lifecycle.Reject(r.Context(), id, req.ModeratorID, req.Comment)
	}

	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		s.logger.Error("moderation failed", "submission_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sub, err := s.lifecycle.GetSubmission(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to reload submission", "submission_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

type participantResponse struct {
	ID           int64  `json:"id"`
	TelegramID   int64  `json:"telegram_id"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	DistanceType string `json:"distance_type,omitempty"`
	StartNumber  string `json:"start_number"`
	RegisteredAt string `json:"registered_at"`
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.participants.GetActiveParticipants(r.Context())
	if err != nil {
		s.logger.Error("failed to list participants", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, participantResponse{
			ID:           p.ID,
			TelegramID:   p.TelegramID,
			FullName:     p.FullName,
			Phone:        p.Phone,
			DistanceType: string(p.DistanceType),
			StartNumber:  p.StartNumber,
			RegisteredAt: p.RegisteredAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
