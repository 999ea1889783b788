package server

import (
	"net/http"

	"export-assistant/internal/inquiry"
)

func (s *Server) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var form inquiry.Form
	if err := decodeJSON(w, r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	receipt, err := s.deps.Inquiries.Submit(r.Context(), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}
