package server

import (
	"net/http"

	"export-assistant/internal/chat"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/models"
)

type sessionView struct {
	SessionID  string           `json:"sessionId"`
	Stage      string           `json:"stage"`
	Transcript []models.Message `json:"transcript"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func viewOf(s *chat.Session) sessionView {
	return sessionView{SessionID: s.ID, Stage: s.Stage().String(), Transcript: s.Transcript()}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Sessions.Create()
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	sess, ok := s.deps.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "SESSION_NOT_FOUND", Message: "Chat session not found or expired"})
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Text) > maxMessageBytes {
		s.writeError(w, r, apperrors.NewValidationFailedError("message too long"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Chat.Handle(r.Context(), sess, req.Text))
}

// maxMessageBytes bounds one chat submission.
const maxMessageBytes = 8 << 10
