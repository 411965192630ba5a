package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/diagnosis/bnb-marketplace/internal/repository"
	"github.com/diagnosis/bnb-marketplace/pkg/cache"
	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	"github.com/diagnosis/bnb-marketplace/pkg/telemetry"
	"github.com/google/go-querystring/query"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PropertyService interface {
	Search(ctx context.Context, q domain.PropertyQuery) ([]domain.PropertySummary, error)
	ListMine(ctx context.Context, ownerID string) ([]domain.PropertySummary, error)
	Get(ctx context.Context, id string) (*domain.Property, error)
	Create(ctx context.Context, ownerID string, in *domain.PropertyInput) (*domain.Property, error)
	Update(ctx context.Context, requesterID, id string, in *domain.PropertyInput) (*domain.Property, error)
	Delete(ctx context.Context, requesterID, id string) error
}

type propertyService struct {
	repo   repository.PropertyRepository
	cache  cache.Cache
	tracer trace.Tracer
}

func NewPropertyService(repo repository.PropertyRepository, c cache.Cache) PropertyService {
	return &propertyService{
		repo:   repo,
		cache:  c,
		tracer: telemetry.Tracer("bnb/service/properties"),
	}
}

// Search serves the public listing from cache when possible.
func (s *propertyService) Search(ctx context.Context, q domain.PropertyQuery) ([]domain.PropertySummary, error) {
	ctx, span := s.tracer.Start(ctx, "PropertyService.Search")
	defer span.End()

	q.Normalize()
	key, err := searchKey(q)
	if err != nil {
		return nil, err
	}

	// The generation is pinned before the query so a write landing while it
	// runs leaves the result uncached.
	gen := s.cache.Generation(ctx)
	if raw, ok := s.cache.Get(ctx, gen, key); ok {
		var cached []domain.PropertySummary
		if err := json.Unmarshal(raw, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
		logger.WarnContext(ctx, "Discarding unreadable cache entry", "key", key)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	props, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}

	if raw, err := json.Marshal(props); err == nil {
		s.cache.Set(ctx, gen, key, raw)
	}
	return props, nil
}

func searchKey(q domain.PropertyQuery) (string, error) {
	v, err := query.Values(q)
	if err != nil {
		return "", fmt.Errorf("failed to encode search key: %w", err)
	}
	return "search?" + v.Encode(), nil
}

func (s *propertyService) ListMine(ctx context.Context, ownerID string) ([]domain.PropertySummary, error) {
	ctx, span := s.tracer.Start(ctx, "PropertyService.ListMine")
	defer span.End()

	props, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

func (s *propertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	ctx, span := s.tracer.Start(ctx, "PropertyService.Get")
	defer span.End()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if p == nil {
		return nil, domain.ErrPropertyNotFound
	}
	return p, nil
}

func (s *propertyService) Create(ctx context.Context, ownerID string, in *domain.PropertyInput) (*domain.Property, error) {
	ctx, span := s.tracer.Start(ctx, "PropertyService.Create")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	// New listings always start out available.
	available := true
	in.Available = &available

	p, err := s.repo.Create(ctx, ownerID, *in)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	s.cache.Invalidate(ctx)

	logger.InfoContext(ctx, "Property created", "property_id", p.ID)
	return p, nil
}

func (s *propertyService) Update(ctx context.Context, requesterID, id string, in *domain.PropertyInput) (*domain.Property, error) {
	ctx, span := s.tracer.Start(ctx, "PropertyService.Update")
	defer span.End()

	if err := s.authorize(ctx, requesterID, id); err != nil {
		return nil, err
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, *in)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	if p == nil {
		return nil, domain.ErrPropertyNotFound
	}
	s.cache.Invalidate(ctx)
	return p, nil
}

func (s *propertyService) Delete(ctx context.Context, requesterID, id string) error {
	ctx, span := s.tracer.Start(ctx, "PropertyService.Delete")
	defer span.End()

	if err := s.authorize(ctx, requesterID, id); err != nil {
		return err
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	s.cache.Invalidate(ctx)

	logger.InfoContext(ctx, "Property deleted", "property_id", id)
	return nil
}

// authorize loads the property and checks the requester owns it.
func (s *propertyService) authorize(ctx context.Context, requesterID, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	if p == nil {
		return domain.ErrPropertyNotFound
	}
	if !p.IsOwner(requesterID) {
		return domain.ErrForbidden
	}
	return nil
}
