// Package kvstore is the string key-value persistence port behind the
// catalog overrides and the lead list.
package kvstore

import (
	"context"
	"errors"
)

// Keys used by the site content and the lead list.
const (
	KeyProducts       = "savita_products"
	KeyLeadership     = "savita_leadership"
	KeyCategoryImages = "savita_category_images"
	KeyInquiries      = "savita_inquiries"
)

// ErrQuotaExceeded is returned by Set when the backend refuses the value
// for size reasons. Callers may retry with a smaller payload.
var ErrQuotaExceeded = errors.New("STORAGE_QUOTA_EXCEEDED")

type Store interface {
	// Get reports ok=false for a missing key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
