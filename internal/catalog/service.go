// Package catalog serves the editable site content: products, leadership
// profile and category images, with AI-assisted editing for the admin.
package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/kvstore"
	"export-assistant/internal/models"
)

const (
	FallbackDescription = "Precision engineered component for diverse industrial applications."
	FallbackLogistics   = "Nearby logistics info could not be retrieved."

	logisticsPrompt = "Find major logistics hubs, seaports, and industrial transport centers near my current location for international export from India."
)

// ErrNoImage is returned when the image model answered without an image.
var ErrNoImage = errors.New("IMAGE_NOT_GENERATED")

type Service struct {
	kv     kvstore.Store
	collab collaborator.Collaborator
	logger logger.Logger
}

func NewService(kv kvstore.Store, collab collaborator.Collaborator, log logger.Logger) *Service {
	return &Service{
		kv:     kv,
		collab: collab,
		logger: log.With(map[string]interface{}{"component": "catalog"}),
	}
}

// Seed writes the built-in products and leadership. Existing overrides are
// kept unless overwrite is set.
func (s *Service) Seed(ctx context.Context, overwrite bool) error {
	seeds := []struct {
		key   string
		value interface{}
	}{
		{kvstore.KeyProducts, SeedProducts()},
		{kvstore.KeyLeadership, SeedLeadership()},
	}
	for _, seed := range seeds {
		if !overwrite {
			_, ok, err := s.kv.Get(ctx, seed.key)
			if err != nil {
				return apperrors.NewStorageFailedError(seed.key, err)
			}
			if ok {
				continue
			}
		}
		if err := s.put(ctx, seed.key, seed.value); err != nil {
			return err
		}
	}
	s.logger.Info("catalog seeded", map[string]interface{}{"overwrite": overwrite})
	return nil
}

// Products returns the stored catalog, or the built-in one when none is stored.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	ok, err := s.get(ctx, kvstore.KeyProducts, &products)
	if err != nil {
		return nil, err
	}
	if !ok {
		return SeedProducts(), nil
	}
	return products, nil
}

func (s *Service) Product(ctx context.Context, id string) (models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return models.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, apperrors.NewProductNotFoundError(id)
}

// ProductsByCategory filters the catalog; an empty category means all.
func (s *Service) ProductsByCategory(ctx context.Context, category models.ProductCategory) ([]models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil || category == "" {
		return products, err
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) SaveProducts(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		if p.ID == "" {
			return apperrors.NewValidationFailedError("product id is required")
		}
		if !p.Category.Valid() {
			return apperrors.NewValidationFailedError(fmt.Sprintf("product %s: unknown category %q", p.ID, p.Category))
		}
	}
	return s.put(ctx, kvstore.KeyProducts, products)
}

func (s *Service) Leadership(ctx context.Context) (models.Leadership, error) {
	var l models.Leadership
	ok, err := s.get(ctx, kvstore.KeyLeadership, &l)
	if err != nil {
		return models.Leadership{}, err
	}
	if !ok {
		return SeedLeadership(), nil
	}
	return l, nil
}

func (s *Service) SaveLeadership(ctx context.Context, l models.Leadership) error {
	return s.put(ctx, kvstore.KeyLeadership, l)
}

// CategoryImages maps category name to an image URL. Categories without
// a generated image are absent.
func (s *Service) CategoryImages(ctx context.Context) (map[string]string, error) {
	images := map[string]string{}
	if _, err := s.get(ctx, kvstore.KeyCategoryImages, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// GenerateCategoryImage asks the image model for a catalog cover and stores
// it as a data URL. On any failure the stored images are left unchanged.
func (s *Service) GenerateCategoryImage(ctx context.Context, category models.ProductCategory) (string, error) {
	if !category.Valid() {
		return "", apperrors.NewValidationFailedError(fmt.Sprintf("unknown category %q", category))
	}

	prompt := fmt.Sprintf("A high-quality, professional studio photograph of industrial %s. "+
		"The image should feature clean lines, dramatic lighting, and look like a premium catalog cover. "+
		"No text, no watermarks, professional bokeh background.", category)
	data, err := s.collab.GenerateImage(ctx, prompt, collaborator.ImageOptions{AspectRatio: "16:9"})
	if err != nil {
		s.logger.WithError(err).Warn("category image generation failed", map[string]interface{}{"category": string(category)})
		return "", err
	}
	if len(data) == 0 {
		return "", ErrNoImage
	}

	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	images, err := s.CategoryImages(ctx)
	if err != nil {
		return "", err
	}
	images[string(category)] = url
	if err := s.put(ctx, kvstore.KeyCategoryImages, images); err != nil {
		return "", err
	}
	return url, nil
}

// RegenerateDescription rewrites one product description with the
// collaborator, storing the fallback sentence when generation fails.
func (s *Service) RegenerateDescription(ctx context.Context, id string) (models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return models.Product{}, err
	}
	idx := -1
	for i := range products {
		if products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Product{}, apperrors.NewProductNotFoundError(id)
	}

	p := products[idx]
	prompt := fmt.Sprintf("Generate a professional, industrial-grade export product description for a product named %q in the category %q. "+
		"Focus on quality, durability, and international standards. Keep it under 100 words.", p.Name, p.Category)
	desc, err := s.collab.GenerateText(ctx, prompt, collaborator.TextOptions{})
	if err != nil {
		s.logger.WithError(err).Warn("description generation failed, using fallback", map[string]interface{}{"productId": id})
		desc = FallbackDescription
	}

	products[idx].Description = desc
	if err := s.put(ctx, kvstore.KeyProducts, products); err != nil {
		return models.Product{}, err
	}
	return products[idx], nil
}

// NearbyLogistics describes export logistics hubs near a location.
func (s *Service) NearbyLogistics(ctx context.Context, loc collaborator.Location) collaborator.Grounded {
	out, err := s.collab.GenerateLocationGroundedText(ctx, logisticsPrompt, loc)
	if err != nil {
		s.logger.WithError(err).Warn("logistics lookup failed", nil)
		return collaborator.Grounded{Text: FallbackLogistics}
	}
	return out
}

func (s *Service) get(ctx context.Context, key string, v interface{}) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, apperrors.NewStorageFailedError(key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, apperrors.NewStorageFailedError(key, err)
	}
	return true, nil
}

func (s *Service) put(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewStorageFailedError(key, err)
	}
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		if errors.Is(err, kvstore.ErrQuotaExceeded) {
			return apperrors.NewStorageQuotaExceededError(key)
		}
		return apperrors.NewStorageFailedError(key, err)
	}
	return nil
}
