package drafts

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorstep-market/doorstep/app/models"
)

// fakeRepository implements Repository in memory with the same CAS and
// uniqueness semantics the SQL layer guarantees.
type fakeRepository struct {
	mu       sync.Mutex
	services map[uuid.UUID]*models.Service
	versions map[uuid.UUID]*models.ServiceVersion
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		services: make(map[uuid.UUID]*models.Service),
		versions: make(map[uuid.UUID]*models.ServiceVersion),
	}
}

func (f *fakeRepository) addService(category string) *models.Service {
	f.mu.Lock()
	defer f.mu.Unlock()
	svc := &models.Service{ID: uuid.New(), Slug: "svc-" + uuid.NewString()[:8], Category: category, Active: true}
	f.services[svc.ID] = svc
	return svc
}

func (f *fakeRepository) GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	svc, ok := f.services[serviceID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *svc
	return &cp, nil
}

func (f *fakeRepository) findLocked(serviceID uuid.UUID, state string) *models.ServiceVersion {
	for _, v := range f.versions {
		if v.ServiceID == serviceID && v.State == state {
			return v
		}
	}
	return nil
}

func (f *fakeRepository) GetDraft(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := f.findLocked(serviceID, models.VersionStateDraft); v != nil {
		cp := *v
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRepository) EnsureDraft(ctx context.Context, service *models.Service) (*models.ServiceVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Insert-if-absent, like ON CONFLICT DO NOTHING on the partial index.
	if v := f.findLocked(service.ID, models.VersionStateDraft); v != nil {
		cp := *v
		return &cp, nil
	}
	card, pricing, funnel := models.DefaultDraftContent(service.Category)
	v := &models.ServiceVersion{
		ID: uuid.New(), ServiceID: service.ID, State: models.VersionStateDraft,
		RowVersion: 1, Card: card, Pricing: pricing, Funnel: funnel,
	}
	f.versions[v.ID] = v
	cp := *v
	return &cp, nil
}

func (f *fakeRepository) GetVersion(ctx context.Context, id uuid.UUID) (*models.ServiceVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeRepository) GetPublished(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := f.findLocked(serviceID, models.VersionStatePublished); v != nil {
		cp := *v
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRepository) History(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ServiceVersion
	for _, v := range f.versions {
		if v.ServiceID == serviceID && (v.State == models.VersionStatePublished || v.State == models.VersionStateArchived) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeRepository) UpdateContent(ctx context.Context, id uuid.UUID, expectedRowVersion int, column string, value interface{}) (*models.ServiceVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if v.State != models.VersionStateDraft {
		return nil, ErrNotEditable
	}
	if v.RowVersion != expectedRowVersion {
		return nil, &VersionConflictError{Expected: expectedRowVersion, Actual: v.RowVersion}
	}
	switch column {
	case ColumnCard:
		v.Card = value.(models.ServiceCard)
	case ColumnPricing:
		v.Pricing = value.(models.ServicePricing)
	case ColumnFunnel:
		v.Funnel = value.(models.ServiceFunnel)
	}
	v.RowVersion++
	cp := *v
	return &cp, nil
}

func (f *fakeRepository) Publish(ctx context.Context, draftID uuid.UUID, expectedRowVersion int) (*models.ServiceVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[draftID]
	if !ok {
		return nil, ErrNotFound
	}
	if v.State == models.VersionStatePublished {
		cp := *v
		return &cp, nil
	}
	if v.State != models.VersionStateDraft {
		return nil, ErrNotEditable
	}
	if expectedRowVersion > 0 && v.RowVersion != expectedRowVersion {
		return nil, &VersionConflictError{Expected: expectedRowVersion, Actual: v.RowVersion}
	}
	if prev := f.findLocked(v.ServiceID, models.VersionStatePublished); prev != nil {
		prev.State = models.VersionStateArchived
	}
	now := time.Now()
	v.State = models.VersionStatePublished
	v.PublishedAt = &now
	svc := f.services[v.ServiceID]
	id := v.ID
	svc.PublishedVersionID = &id
	cp := *v
	return &cp, nil
}

func validCard() models.ServiceCard {
	return models.ServiceCard{
		Title:    "Pre-Listing Inspection",
		Category: "inspection",
		CTA:      models.CardCTA{Type: models.CTATypeBook, Label: "Book now"},
		Flags:    models.CardFlags{Active: true},
	}
}

func TestGetDraftLazyCreates(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	bundle, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	require.NotNil(t, bundle.Draft)
	assert.Equal(t, 1, bundle.Draft.RowVersion)
	assert.Equal(t, models.VersionStateDraft, bundle.Draft.State)
	assert.Nil(t, bundle.Published)
	assert.Empty(t, bundle.History)

	// Second read returns the same draft, not a new one.
	again, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, bundle.Draft.ID, again.Draft.ID)
}

func TestGetDraftConcurrentFirstReadsCreateOneDraft(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("staging")
	s := NewService(repo)

	const readers = 16
	ids := make(chan uuid.UUID, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bundle, err := s.GetDraft(context.Background(), svc.ID)
			if err == nil {
				ids <- bundle.Draft.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uuid.UUID]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1, "concurrent first reads must not create duplicate drafts")
}

func TestGetDraftUnknownService(t *testing.T) {
	s := NewService(newFakeRepository())
	_, err := s.GetDraft(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatchCardBumpsRowVersionByOne(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	bundle, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, bundle.Draft.RowVersion)

	card := validCard()
	updated, err := s.PatchCard(ctx, svc.ID, card, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.RowVersion)
	assert.Equal(t, "Pre-Listing Inspection", updated.Card.Title)

	// Retrying the same patch with the stale row_version is rejected.
	_, err = s.PatchCard(ctx, svc.ID, card, 1)
	require.Error(t, err)
	var conflict *VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.Expected)
	assert.Equal(t, 2, conflict.Actual)
}

func TestConcurrentStalePatchesAtMostOneWins(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	_, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			card := validCard()
			card.Title = card.Title + " variant"
			_, err := s.PatchCard(ctx, svc.ID, card, 1)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
		} else if IsVersionConflict(err) {
			conflicts++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one writer may win")
	assert.Equal(t, 1, conflicts, "the loser must see a version conflict")

	draft, err := repo.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, draft.RowVersion, "winner bumps row_version by exactly 1")
}

// A successful patch must hand back the exact row it wrote: row_version is
// the caller's expected value plus one and the content is the caller's own,
// even when other writers land right behind it. A read-back after the update
// would violate this under concurrency.
func TestPatchReturnsTheRowItWrote(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	_, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers*16)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			title := fmt.Sprintf("Pre-Listing Inspection v%d", n)
			for {
				draft, err := repo.GetDraft(ctx, svc.ID)
				if err != nil {
					errs <- err
					return
				}
				card := validCard()
				card.Title = title
				updated, err := s.PatchCard(ctx, svc.ID, card, draft.RowVersion)
				if IsVersionConflict(err) {
					continue
				}
				if err != nil {
					errs <- err
					return
				}
				if updated.RowVersion != draft.RowVersion+1 {
					errs <- fmt.Errorf("expected row_version %d, snapshot has %d", draft.RowVersion+1, updated.RowVersion)
				}
				if updated.Card.Title != title {
					errs <- fmt.Errorf("snapshot carries another writer's content: %q", updated.Card.Title)
				}
				return
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	draft, err := repo.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1+writers, draft.RowVersion)
}

func TestPatchCardValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	_, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)

	bad := validCard()
	bad.Title = "ab" // below the 3-char minimum
	_, err = s.PatchCard(ctx, svc.ID, bad, 1)
	require.Error(t, err)
	require.True(t, IsValidation(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Fields)
	assert.Equal(t, "title", ve.Fields[0].Path)

	// A rejected payload must not bump the row version.
	draft, err := repo.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, draft.RowVersion)
}

func TestPatchPricingRejectsDuplicateTierIDs(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("photo")
	s := NewService(repo)
	ctx := context.Background()

	_, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)

	pricing := models.ServicePricing{
		Currency: "USD",
		Tiers: []models.PricingTier{
			{ID: "base", Name: "Base Package", PriceCents: 10000},
			{ID: "base", Name: "Premium", PriceCents: 25000},
		},
	}
	_, err = s.PatchPricing(ctx, svc.ID, pricing, 1)
	require.True(t, IsValidation(err))
}

func TestPublishLifecycle(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	bundle, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	draftID := bundle.Draft.ID

	updated, err := s.PatchCard(ctx, svc.ID, validCard(), 1)
	require.NoError(t, err)

	published, err := s.Publish(ctx, draftID, updated.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, models.VersionStatePublished, published.State)
	require.NotNil(t, published.PublishedAt)

	storedSvc, err := repo.GetService(ctx, svc.ID)
	require.NoError(t, err)
	require.NotNil(t, storedSvc.PublishedVersionID)
	assert.Equal(t, draftID, *storedSvc.PublishedVersionID)

	// Publishing an already-published version is a clean no-op.
	again, err := s.Publish(ctx, draftID, updated.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, published.ID, again.ID)
	assert.Equal(t, models.VersionStatePublished, again.State)
}

func TestPublishStaleRowVersionRejected(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	bundle, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)

	// Draft edited after the UI fetched row_version 1.
	_, err = s.PatchCard(ctx, svc.ID, validCard(), 1)
	require.NoError(t, err)

	_, err = s.Publish(ctx, bundle.Draft.ID, 1)
	assert.True(t, IsVersionConflict(err))
}

func TestPublishSupersedesPreviousVersion(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	first, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	_, err = s.Publish(ctx, first.Draft.ID, 0)
	require.NoError(t, err)

	// A fresh draft appears on next access and can be published again.
	second, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Draft.ID, second.Draft.ID)
	require.NotNil(t, second.Published)

	_, err = s.Publish(ctx, second.Draft.ID, 0)
	require.NoError(t, err)

	bundle, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	require.NotNil(t, bundle.Published)
	assert.Equal(t, second.Draft.ID, bundle.Published.ID)

	// The superseded version is archived, not deleted.
	archived, err := repo.GetVersion(ctx, first.Draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VersionStateArchived, archived.State)
	assert.Len(t, bundle.History, 2)
}

func TestPatchAfterPublishRequiresNewDraft(t *testing.T) {
	repo := newFakeRepository()
	svc := repo.addService("inspection")
	s := NewService(repo)
	ctx := context.Background()

	bundle, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	_, err = s.Publish(ctx, bundle.Draft.ID, 0)
	require.NoError(t, err)

	// The published row no longer takes writes; a fresh draft row does.
	fresh, err := s.GetDraft(ctx, svc.ID)
	require.NoError(t, err)
	require.NotEqual(t, bundle.Draft.ID, fresh.Draft.ID)
	assert.Equal(t, 1, fresh.Draft.RowVersion)

	_, err = s.PatchCard(ctx, svc.ID, validCard(), 1)
	require.NoError(t, err)
}
