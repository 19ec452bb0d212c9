package drafts

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
)

// Bundle is the admin console's editing view of one service: the current
// working draft, the live published version (if any) and the retained
// publish history.
type Bundle struct {
	Draft     *models.ServiceVersion  `json:"draft"`
	Published *models.ServiceVersion  `json:"published,omitempty"`
	History   []models.ServiceVersion `json:"history"`
}

// Service serializes concurrent admin edits to service drafts using
// optimistic concurrency and manages the draft-to-published transition.
type Service struct {
	repo Repository
}

// NewService creates a draft service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a draft service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// GetDraft returns the editing bundle for a service, lazily creating a blank
// draft with documented defaults when none exists. The read itself is
// idempotent; the lazy create is race-safe in the repository.
func (s *Service) GetDraft(ctx context.Context, serviceID uuid.UUID) (*Bundle, error) {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	draft, err := s.repo.GetDraft(ctx, serviceID)
	if errors.Is(err, ErrNotFound) {
		draft, err = s.repo.EnsureDraft(ctx, svc)
		if err == nil {
			log.Printf("drafts: lazily created draft %s for service %s", draft.ID, serviceID)
		}
	}
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{Draft: draft, History: []models.ServiceVersion{}}

	published, err := s.repo.GetPublished(ctx, serviceID)
	if err == nil {
		bundle.Published = published
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	history, err := s.repo.History(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	bundle.History = history

	return bundle, nil
}

// PatchCard validates and applies a card edit against the service's current
// draft. The write succeeds only if expectedRowVersion matches the stored
// row; on success the returned draft carries row_version = expected + 1.
func (s *Service) PatchCard(ctx context.Context, serviceID uuid.UUID, card models.ServiceCard, expectedRowVersion int) (*models.ServiceVersion, error) {
	if err := ValidateCard(&card); err != nil {
		return nil, err
	}
	return s.patch(ctx, serviceID, expectedRowVersion, ColumnCard, card)
}

// PatchPricing validates and applies a pricing edit. Same CAS contract as
// PatchCard.
func (s *Service) PatchPricing(ctx context.Context, serviceID uuid.UUID, pricing models.ServicePricing, expectedRowVersion int) (*models.ServiceVersion, error) {
	if err := ValidatePricing(&pricing); err != nil {
		return nil, err
	}
	return s.patch(ctx, serviceID, expectedRowVersion, ColumnPricing, pricing)
}

// PatchFunnel validates and applies a funnel edit. Same CAS contract as
// PatchCard.
func (s *Service) PatchFunnel(ctx context.Context, serviceID uuid.UUID, funnel models.ServiceFunnel, expectedRowVersion int) (*models.ServiceVersion, error) {
	if err := ValidateFunnel(&funnel); err != nil {
		return nil, err
	}
	return s.patch(ctx, serviceID, expectedRowVersion, ColumnFunnel, funnel)
}

func (s *Service) patch(ctx context.Context, serviceID uuid.UUID, expectedRowVersion int, column string, value interface{}) (*models.ServiceVersion, error) {
	draft, err := s.repo.GetDraft(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateContent(ctx, draft.ID, expectedRowVersion, column, value)
	if err != nil {
		return nil, err
	}

	log.Printf("drafts: service %s %s updated, row_version %d -> %d",
		serviceID, column, expectedRowVersion, updated.RowVersion)
	return updated, nil
}

// Publish promotes the identified draft to the live published version. The
// expectedRowVersion guard rejects publishing content that was edited after
// the caller last fetched it; re-publishing an already-published version is
// a clean no-op, so UI-level retries are safe.
func (s *Service) Publish(ctx context.Context, draftID uuid.UUID, expectedRowVersion int) (*models.ServiceVersion, error) {
	published, err := s.repo.Publish(ctx, draftID, expectedRowVersion)
	if err != nil {
		return nil, err
	}
	log.Printf("drafts: version %s published for service %s (row_version %d)",
		published.ID, published.ServiceID, published.RowVersion)
	return published, nil
}
