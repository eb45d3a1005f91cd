package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arogyamitra/medrag/internal/answer"
	"github.com/arogyamitra/medrag/internal/extract"
	"github.com/arogyamitra/medrag/internal/ingest"
	"github.com/arogyamitra/medrag/internal/models"
	"go.uber.org/zap"
)

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.store.CreateOrGet(sessionID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ingest request",
		zap.String("session_id", sessionID),
		zap.String("filename", input.Filename),
	)
	doc, err := s.ingestor.Ingest(r.Context(), sess, &input)
	if err != nil {
		s.logger.Error("ingestion failed", zap.String("session_id", sessionID), zap.Error(err))
		s.respondError(w, ingestStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

// ingestStatus maps an ingestion error to an HTTP status: malformed or empty
// documents are the client's problem, embedding transport failures are not.
func ingestStatus(err error) int {
	switch {
	case errors.Is(err, extract.ErrNoText),
		errors.Is(err, ingest.ErrNoInput),
		errors.Is(err, ingest.ErrEmptyText),
		errors.Is(err, ingest.ErrChunkOverlap):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ans, err := s.orchestrator.Ask(r.Context(), sessionID, req.Question)
	if err != nil {
		var failure *answer.Failure
		if errors.As(err, &failure) {
			s.logger.Error("answer failed",
				zap.String("session_id", sessionID),
				zap.String("stage", string(failure.Stage)),
				zap.String("kind", failure.Kind),
				zap.Error(failure.Err),
			)
			s.respondFailure(w, failure)
			return
		}
		s.logger.Error("answer failed", zap.String("session_id", sessionID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, ans)
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.store.Get(sessionID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  sess.ID(),
		"created_at":  sess.CreatedAt(),
		"last_access": sess.LastAccess(),
		"documents":   sess.Documents(),
		"chunks":      sess.Index().Size(),
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !s.store.Close(sessionID) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": s.store.Len(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondFailure renders an orchestrator failure with its stage and kind so
// the caller can show a distinct message per failure class.
func (s *Server) respondFailure(w http.ResponseWriter, failure *answer.Failure) {
	status := http.StatusInternalServerError
	switch failure.Kind {
	case answer.KindInvalidRequest:
		status = http.StatusBadRequest
	case answer.KindEmbeddingUnavailable, answer.KindLLMUnavailable:
		status = http.StatusBadGateway
	}
	s.respondJSON(w, status, map[string]string{
		"error": failure.Err.Error(),
		"stage": string(failure.Stage),
		"kind":  failure.Kind,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
