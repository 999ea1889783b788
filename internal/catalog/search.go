package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const defaultSearchSize = 60

// Searcher finds products by free text and optional category.
type Searcher interface {
	Search(ctx context.Context, query string, category models.ProductCategory) ([]models.Product, error)
}

// SearchIndex keeps the catalog in an Elasticsearch index.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchIndex(client *elasticsearch.Client, index string, log logger.Logger) *SearchIndex {
	return &SearchIndex{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "catalog-search", "index": index}),
	}
}

// IndexProducts bulk-indexes products keyed by product id.
func (s *SearchIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		meta := map[string]interface{}{"index": map[string]interface{}{"_id": p.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(p); err != nil {
			return err
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(s.index),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchQueryFailedError(fmt.Errorf("bulk index: %s", res.Status()))
	}

	var out struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return apperrors.NewSearchQueryFailedError(err)
	}
	if out.Errors {
		return apperrors.NewSearchQueryFailedError(fmt.Errorf("bulk index reported item errors"))
	}
	s.logger.Info("products indexed", map[string]interface{}{"count": len(products)})
	return nil
}

func (s *SearchIndex) Search(ctx context.Context, query string, category models.ProductCategory) ([]models.Product, error) {
	body, err := json.Marshal(buildProductQuery(query, category))
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithSize(defaultSearchSize),
	)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, apperrors.NewSearchQueryFailedError(fmt.Errorf("%s: %s", res.Status(), msg))
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(err)
	}
	products := make([]models.Product, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		products = append(products, h.Source)
	}
	return products, nil
}

func buildProductQuery(query string, category models.ProductCategory) map[string]interface{} {
	var must, filter []interface{}
	if q := strings.TrimSpace(query); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"name^3", "description^2", "application", "category"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}
	if category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category.keyword": string(category)},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{"query": map[string]interface{}{"bool": boolQuery}}
}

// Filter is the in-memory search used without an index: a case-insensitive
// substring match over name, description and application.
func Filter(products []models.Product, query string, category models.ProductCategory) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category != "" && p.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.Application), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Search uses the index when one is configured and falls back to Filter
// over the stored catalog when it is absent or fails.
func (s *Service) Search(ctx context.Context, index Searcher, query string, category models.ProductCategory) ([]models.Product, error) {
	if index != nil {
		found, err := index.Search(ctx, query, category)
		if err == nil {
			return found, nil
		}
		s.logger.WithError(err).Warn("catalog index search failed, filtering in memory", nil)
	}
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(products, query, category), nil
}
