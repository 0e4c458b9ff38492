package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
)

const (
	pageKeyPrefix    = "listings:page:"
	listingKeyPrefix = "listings:id:"
)

// ListingCache implements repository.ListingCache using Redis. Entries are
// JSON documents that expire after the configured TTL.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a new Redis-backed listing cache.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{
		client: client,
		ttl:    ttl,
	}
}

var _ repository.ListingCache = (*ListingCache)(nil)

func pageKey(offset, limit int) string {
	return fmt.Sprintf("%s%d:%d", pageKeyPrefix, offset, limit)
}

// GetPage returns a cached page of listings.
func (c *ListingCache) GetPage(ctx context.Context, offset, limit int) (*repository.ListingPage, bool, error) {
	var page repository.ListingPage
	found, err := c.get(ctx, pageKey(offset, limit), &page)
	if !found || err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

// SetPage caches a page of listings.
func (c *ListingCache) SetPage(ctx context.Context, offset, limit int, page *repository.ListingPage) error {
	return c.set(ctx, pageKey(offset, limit), page)
}

// GetListing returns a cached listing.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, bool, error) {
	var l domain.Listing
	found, err := c.get(ctx, listingKeyPrefix+id, &l)
	if !found || err != nil {
		return nil, false, err
	}
	return &l, true, nil
}

// SetListing caches a single listing.
func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	return c.set(ctx, listingKeyPrefix+listing.ID, listing)
}

func (c *ListingCache) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *ListingCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
