package drafts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doorstep-market/doorstep/app/models"
)

// Content columns accepted by UpdateContent.
const (
	ColumnCard    = "card"
	ColumnPricing = "pricing"
	ColumnFunnel  = "funnel"
)

// Repository provides the row-store operations used by the draft service.
// All content writes go through the compare-and-swap in UpdateContent; there
// is deliberately no plain Save for version rows.
type Repository interface {
	GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error)
	GetDraft(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error)
	EnsureDraft(ctx context.Context, service *models.Service) (*models.ServiceVersion, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*models.ServiceVersion, error)
	GetPublished(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error)
	History(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceVersion, error)
	UpdateContent(ctx context.Context, id uuid.UUID, expectedRowVersion int, column string, value interface{}) (*models.ServiceVersion, error)
	Publish(ctx context.Context, draftID uuid.UUID, expectedRowVersion int) (*models.ServiceVersion, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a draft repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	var svc models.Service
	err := r.db.WithContext(ctx).First(&svc, "id = ?", serviceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("get service", err)
	}
	return &svc, nil
}

func (r *gormRepository) GetDraft(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error) {
	var v models.ServiceVersion
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND state = ?", serviceID, models.VersionStateDraft).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("get draft", err)
	}
	return &v, nil
}

// EnsureDraft lazily creates the blank working draft for a service. The
// insert races against concurrent first-reads, so it goes through
// ON CONFLICT DO NOTHING against the partial unique index on
// (service_id) WHERE state='draft' and then re-reads the winning row. Two
// simultaneous first-reads can never produce two draft rows.
func (r *gormRepository) EnsureDraft(ctx context.Context, service *models.Service) (*models.ServiceVersion, error) {
	card, pricing, funnel := models.DefaultDraftContent(service.Category)
	draft := models.ServiceVersion{
		ID:         uuid.New(),
		ServiceID:  service.ID,
		State:      models.VersionStateDraft,
		RowVersion: 1,
		Card:       card,
		Pricing:    pricing,
		Funnel:     funnel,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "service_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Name: "state"}, Value: models.VersionStateDraft},
		}},
		DoNothing: true,
	}).Create(&draft).Error
	if err != nil {
		return nil, upstream("create draft", err)
	}
	return r.GetDraft(ctx, service.ID)
}

func (r *gormRepository) GetVersion(ctx context.Context, id uuid.UUID) (*models.ServiceVersion, error) {
	var v models.ServiceVersion
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("get version", err)
	}
	return &v, nil
}

func (r *gormRepository) GetPublished(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error) {
	var v models.ServiceVersion
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND state = ?", serviceID, models.VersionStatePublished).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("get published", err)
	}
	return &v, nil
}

func (r *gormRepository) History(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceVersion, error) {
	var versions []models.ServiceVersion
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND state IN ?", serviceID, []string{models.VersionStatePublished, models.VersionStateArchived}).
		Order("published_at DESC").
		Find(&versions).Error
	if err != nil {
		return nil, upstream("history", err)
	}
	return versions, nil
}

// UpdateContent performs the single-statement compare-and-swap that
// serializes concurrent admin edits:
//
//	UPDATE service_versions
//	SET <column> = ?, row_version = row_version + 1
//	WHERE id = ? AND row_version = ? AND state = 'draft'
//
// Zero affected rows means the write lost; the re-read distinguishes a
// missing row, a promoted row and a stale row_version. On success RETURNING
// hands back the updated row in the same statement, so the snapshot always
// carries row_version = expected + 1 even with a concurrent writer racing on
// the next version.
func (r *gormRepository) UpdateContent(ctx context.Context, id uuid.UUID, expectedRowVersion int, column string, value interface{}) (*models.ServiceVersion, error) {
	var updated models.ServiceVersion
	res := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND row_version = ? AND state = ?", id, expectedRowVersion, models.VersionStateDraft).
		Updates(map[string]interface{}{
			column:        value,
			"row_version": gorm.Expr("row_version + 1"),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return nil, upstream("update "+column, res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := r.GetVersion(ctx, id)
		if err != nil {
			return nil, err
		}
		if !current.IsEditable() {
			return nil, ErrNotEditable
		}
		return nil, &VersionConflictError{Expected: expectedRowVersion, Actual: current.RowVersion}
	}
	return &updated, nil
}

// Publish promotes a draft inside one transaction: the previous published row
// is archived (retained for rollback, never deleted), the draft becomes the
// published row with a published_at stamp, and the service's
// published_version_id pointer moves to it. Re-publishing an
// already-published version is a clean no-op.
func (r *gormRepository) Publish(ctx context.Context, draftID uuid.UUID, expectedRowVersion int) (*models.ServiceVersion, error) {
	var published models.ServiceVersion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.ServiceVersion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&v, "id = ?", draftID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return upstream("load draft", err)
		}

		if v.State == models.VersionStatePublished {
			published = v
			return nil
		}
		if v.State != models.VersionStateDraft {
			return ErrNotEditable
		}
		if expectedRowVersion > 0 && v.RowVersion != expectedRowVersion {
			return &VersionConflictError{Expected: expectedRowVersion, Actual: v.RowVersion}
		}

		now := time.Now()
		if err := tx.Model(&models.ServiceVersion{}).
			Where("service_id = ? AND state = ?", v.ServiceID, models.VersionStatePublished).
			Update("state", models.VersionStateArchived).Error; err != nil {
			return upstream("archive previous", err)
		}
		if err := tx.Model(&v).Updates(map[string]interface{}{
			"state":        models.VersionStatePublished,
			"published_at": now,
		}).Error; err != nil {
			return upstream("promote draft", err)
		}
		if err := tx.Model(&models.Service{}).
			Where("id = ?", v.ServiceID).
			Update("published_version_id", v.ID).Error; err != nil {
			return upstream("move published pointer", err)
		}

		v.State = models.VersionStatePublished
		v.PublishedAt = &now
		published = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &published, nil
}
