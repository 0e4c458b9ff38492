package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
	"github.com/tusharag6/homestead-api/pkg/pagination"
)

const msgListingNotFound = "Listing not found"

// ListingService serves read-only listing queries. When a cache is
// configured reads go through it; cache failures degrade to the repository.
type ListingService struct {
	repo   repository.ListingRepository
	cache  repository.ListingCache
	logger *slog.Logger
}

// NewListingService creates a new listing service. cache may be nil.
func NewListingService(repo repository.ListingRepository, cache repository.ListingCache, logger *slog.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// List returns one page of listings. Zero params read the first page.
func (s *ListingService) List(ctx context.Context, params pagination.Params) (*pagination.Result[domain.Listing], error) {
	if params.Limit < 1 {
		params = pagination.DefaultParams()
	}
	page, err := s.page(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	res := pagination.NewResult(page.Listings, page.Total, params)
	return &res, nil
}

func (s *ListingService) page(ctx context.Context, offset, limit int) (*repository.ListingPage, error) {
	if s.cache != nil {
		cached, found, err := s.cache.GetPage(ctx, offset, limit)
		if err != nil {
			s.logger.WarnContext(ctx, "listing cache read failed", slog.String("error", err.Error()))
		} else if found {
			return cached, nil
		}
	}

	listings, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	page := &repository.ListingPage{Listings: listings, Total: total}

	if s.cache != nil {
		if err := s.cache.SetPage(ctx, offset, limit, page); err != nil {
			s.logger.WarnContext(ctx, "listing cache write failed", slog.String("error", err.Error()))
		}
	}
	return page, nil
}

// Get returns a single listing.
func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFoundMessage(msgListingNotFound)
	}

	if s.cache != nil {
		cached, found, err := s.cache.GetListing(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "listing cache read failed", slog.String("error", err.Error()))
		} else if found {
			return cached, nil
		}
	}

	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgListingNotFound)
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetListing(ctx, listing); err != nil {
			s.logger.WarnContext(ctx, "listing cache write failed", slog.String("error", err.Error()))
		}
	}
	return listing, nil
}
