package catalog

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/kvstore"
	"export-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, collab collaborator.Collaborator) (*Service, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory(0)
	return NewService(kv, collab, logger.NewTestLogger(t)), kv
}

func TestSeedProducts(t *testing.T) {
	products := SeedProducts()
	require.Len(t, products, 60)
	assert.Equal(t, "M1", products[0].ID)
	assert.Equal(t, "Industrial CNC Lathe - XP Series", products[0].Name)

	gen := products[8]
	assert.Equal(t, "GEN-0", gen.ID)
	assert.Equal(t, "Industrial Machinery Unit Gen-10", gen.Name)
	assert.Contains(t, gen.Description, "high-demand machinery applications")

	seen := map[string]bool{}
	for _, p := range products {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.True(t, p.Category.Valid())
		assert.Equal(t, "India", p.ManufacturedIn)
	}
}

func TestService_ProductsDefaultsToSeed(t *testing.T) {
	s, _ := newTestService(t, &collaborator.Stub{})

	products, err := s.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SeedProducts(), products)

	l, err := s.Leadership(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mrs. Savita Devi", l.CEO.Name)
	assert.Equal(t, "Mr. Shailesh Yadav", l.OpsHead.Name)
}

func TestService_SeedKeepsOverridesUnlessForced(t *testing.T) {
	s, _ := newTestService(t, &collaborator.Stub{})
	ctx := context.Background()

	custom := []models.Product{{ID: "X1", Name: "Custom", Category: models.CategoryBrassComponents}}
	require.NoError(t, s.SaveProducts(ctx, custom))

	require.NoError(t, s.Seed(ctx, false))
	products, err := s.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, products)

	require.NoError(t, s.Seed(ctx, true))
	products, err = s.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 60)
}

func TestService_SaveProductsValidates(t *testing.T) {
	s, _ := newTestService(t, &collaborator.Stub{})

	err := s.SaveProducts(context.Background(), []models.Product{{ID: "X", Category: "Toys"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.AsStandard(err).Code)
}

func TestService_ProductLookup(t *testing.T) {
	s, _ := newTestService(t, &collaborator.Stub{})
	ctx := context.Background()

	p, err := s.Product(ctx, "M3")
	require.NoError(t, err)
	assert.Equal(t, "Hydraulic H-Frame Press - 500T", p.Name)

	_, err = s.Product(ctx, "nope")
	assert.Equal(t, apperrors.ErrCodeProductNotFound, apperrors.AsStandard(err).Code)

	brass, err := s.ProductsByCategory(ctx, models.CategoryBrassComponents)
	require.NoError(t, err)
	require.NotEmpty(t, brass)
	for _, b := range brass {
		assert.Equal(t, models.CategoryBrassComponents, b.Category)
	}
}

func TestService_SaveLeadership(t *testing.T) {
	s, _ := newTestService(t, &collaborator.Stub{})
	ctx := context.Background()

	l := SeedLeadership()
	l.CEO.Message = "Updated message"
	require.NoError(t, s.SaveLeadership(ctx, l))

	got, err := s.Leadership(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Updated message", got.CEO.Message)
}

func TestService_GenerateCategoryImage(t *testing.T) {
	stub := &collaborator.Stub{
		ImageFunc: func(ctx context.Context, prompt string, opts collaborator.ImageOptions) ([]byte, error) {
			return []byte("png-bytes"), nil
		},
	}
	s, _ := newTestService(t, stub)
	ctx := context.Background()

	url, err := s.GenerateCategoryImage(ctx, models.CategorySSComponents)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("png-bytes")), url)

	images, err := s.CategoryImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"SS Components": url}, images)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "16:9", calls[0].Image.AspectRatio)
	assert.Contains(t, calls[0].Prompt, "industrial SS Components")
}

func TestService_GenerateCategoryImageFailureLeavesImages(t *testing.T) {
	tests := []struct {
		name   string
		collab *collaborator.Stub
	}{
		{"collaborator error", collaborator.FailingStub(collaborator.KindQuota)},
		{"no image in answer", &collaborator.Stub{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, kv := newTestService(t, tt.collab)
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, kvstore.KeyCategoryImages, `{"Machinery":"data:old"}`))

			_, err := s.GenerateCategoryImage(ctx, models.CategoryMachinery)
			require.Error(t, err)

			images, err := s.CategoryImages(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"Machinery": "data:old"}, images)
		})
	}
}

func TestService_GenerateCategoryImageUnknownCategory(t *testing.T) {
	stub := &collaborator.Stub{}
	s, _ := newTestService(t, stub)

	_, err := s.GenerateCategoryImage(context.Background(), "Toys")
	require.Error(t, err)
	assert.Empty(t, stub.Calls())
}

func TestService_RegenerateDescription(t *testing.T) {
	stub := &collaborator.Stub{
		TextFunc: func(ctx context.Context, prompt string, opts collaborator.TextOptions) (string, error) {
			return "A fresh description.", nil
		},
	}
	s, _ := newTestService(t, stub)
	ctx := context.Background()

	p, err := s.RegenerateDescription(ctx, "M2")
	require.NoError(t, err)
	assert.Equal(t, "A fresh description.", p.Description)
	assert.True(t, strings.Contains(stub.Calls()[0].Prompt, `"Vertical Machining Center (VMC) - 850"`))

	stored, err := s.Product(ctx, "M2")
	require.NoError(t, err)
	assert.Equal(t, "A fresh description.", stored.Description)
}

func TestService_RegenerateDescriptionFallback(t *testing.T) {
	s, _ := newTestService(t, collaborator.FailingStub(collaborator.KindTimeout))

	p, err := s.RegenerateDescription(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, FallbackDescription, p.Description)
}

func TestService_RegenerateDescriptionUnknownProduct(t *testing.T) {
	stub := &collaborator.Stub{}
	s, _ := newTestService(t, stub)

	_, err := s.RegenerateDescription(context.Background(), "missing")
	assert.Equal(t, apperrors.ErrCodeProductNotFound, apperrors.AsStandard(err).Code)
	assert.Empty(t, stub.Calls())
}

func TestService_NearbyLogistics(t *testing.T) {
	stub := &collaborator.Stub{
		LocationFunc: func(ctx context.Context, prompt string, loc collaborator.Location) (collaborator.Grounded, error) {
			return collaborator.Grounded{
				Text:   "Mundra port is 60km away.",
				Places: []models.Place{{URI: "https://maps.example/mundra", Title: "Mundra Port"}},
			}, nil
		},
	}
	s, _ := newTestService(t, stub)

	out := s.NearbyLogistics(context.Background(), collaborator.Location{Latitude: 22.47, Longitude: 70.06})
	assert.Equal(t, "Mundra port is 60km away.", out.Text)
	assert.Len(t, out.Places, 1)
	assert.Equal(t, 22.47, stub.Calls()[0].Location.Latitude)

	failing, _ := newTestService(t, collaborator.FailingStub(collaborator.KindUnavailable))
	out = failing.NearbyLogistics(context.Background(), collaborator.Location{})
	assert.Equal(t, FallbackLogistics, out.Text)
	assert.Empty(t, out.Places)
}

func TestService_StorageQuotaSurfacesAsStandardError(t *testing.T) {
	kv := kvstore.NewMemory(100)
	s := NewService(kv, &collaborator.Stub{}, logger.NewTestLogger(t))

	err := s.Seed(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStorageQuotaExceeded, apperrors.AsStandard(err).Code)
}
