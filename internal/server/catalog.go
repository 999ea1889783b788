package server

import (
	"net/http"
	"strconv"

	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/models"
)

// handleProducts lists the catalog. With q it searches, with category it
// narrows to one category.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	category := models.ProductCategory(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		s.writeError(w, r, apperrors.NewValidationFailedError("unknown category "+strconv.Quote(string(category))))
		return
	}

	var (
		products []models.Product
		err      error
	)
	switch {
	case query != "":
		products, err = s.deps.Catalog.Search(r.Context(), s.deps.Index, query, category)
	case category != "":
		products, err = s.deps.Catalog.ProductsByCategory(r.Context(), category)
	default:
		products, err = s.deps.Catalog.Products(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLeadership(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Catalog.Leadership(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleCategoryImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.deps.Catalog.CategoryImages(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) handleLogistics(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		s.writeError(w, r, apperrors.NewValidationFailedError("lat and lng must be valid coordinates"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Catalog.NearbyLogistics(r.Context(), collaborator.Location{Latitude: lat, Longitude: lng}))
}
