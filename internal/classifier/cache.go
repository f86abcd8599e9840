package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xaenox/mailtime/internal/models"
)

const defaultCacheSize = 256

// CachedClassifier memoizes successful findings of an inner classifier,
// keyed by message id and content. Failures are never cached.
type CachedClassifier struct {
	inner Classifier
	cache *lru.Cache[string, models.Finding]
}

// NewCachedClassifier wraps inner with an LRU cache holding up to size
// findings. A non-positive size falls back to the default.
func NewCachedClassifier(inner Classifier, size int) (*CachedClassifier, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, models.Finding](size)
	if err != nil {
		return nil, fmt.Errorf("create finding cache: %w", err)
	}
	return &CachedClassifier{inner: inner, cache: cache}, nil
}

func (c *CachedClassifier) Extract(ctx context.Context, msg *models.Message) (models.Finding, error) {
	if err := msg.Validate(); err != nil {
		return models.Finding{}, err
	}

	key := cacheKey(msg)
	if f, ok := c.cache.Get(key); ok {
		return f.Clone(), nil
	}

	f, err := c.inner.Extract(ctx, msg)
	if err != nil {
		return models.Finding{}, err
	}
	c.cache.Add(key, f.Clone())
	return f, nil
}

// Len returns the number of cached findings.
func (c *CachedClassifier) Len() int {
	return c.cache.Len()
}

func cacheKey(msg *models.Message) string {
	h := sha256.New()
	for _, part := range []string{msg.ID, msg.Subject, msg.Body} {
		fmt.Fprintf(h, "%d:%s", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
