package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/models"
)

type seoRequest struct {
	Keywords string `json:"keywords"`
	Target   string `json:"target"`
}

type translateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) handleAdminInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Admin.Inquiries(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Admin.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleMarkResponded(w http.ResponseWriter, r *http.Request) {
	inq, err := s.deps.Admin.MarkResponded(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inq)
}

func (s *Server) handleDraftQuotation(w http.ResponseWriter, r *http.Request) {
	draft, err := s.deps.Admin.DraftQuotationReply(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": draft})
}

func (s *Server) handleSEO(w http.ResponseWriter, r *http.Request) {
	var req seoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Keywords) == "" {
		s.writeError(w, r, apperrors.NewValidationFailedError("keywords are required"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Admin.GenerateSEO(r.Context(), req.Keywords, req.Target))
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Text == "" || req.Language == "" {
		s.writeError(w, r, apperrors.NewValidationFailedError("text and language are required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": s.deps.Admin.Translate(r.Context(), req.Text, req.Language)})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, r, apperrors.NewValidationFailedError("q is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Admin.MarketInsights(r.Context(), query))
}

func (s *Server) handleSaveProducts(w http.ResponseWriter, r *http.Request) {
	var products []models.Product
	if err := decodeJSON(w, r, &products); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Catalog.SaveProducts(r.Context(), products); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.reindex(r, products)
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleRegenerateDescription(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Catalog.RegenerateDescription(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveLeadership(w http.ResponseWriter, r *http.Request) {
	var l models.Leadership
	if err := decodeJSON(w, r, &l); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Catalog.SaveLeadership(r.Context(), l); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleGenerateCategoryImage(w http.ResponseWriter, r *http.Request) {
	category := models.ProductCategory(r.PathValue("category"))
	url, err := s.deps.Catalog.GenerateCategoryImage(r.Context(), category)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"category": string(category), "image": url})
}

// reindex refreshes the search index after a catalog edit. A failure only
// degrades search to in-memory filtering.
func (s *Server) reindex(r *http.Request, products []models.Product) {
	idx, ok := s.deps.Index.(interface {
		IndexProducts(ctx context.Context, products []models.Product) error
	})
	if !ok {
		return
	}
	if err := idx.IndexProducts(r.Context(), products); err != nil {
		s.logger.WithError(err).Warn("catalog reindex failed", nil)
	}
}
