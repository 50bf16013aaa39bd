package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStatusChanged is returned when a transition finds the quotation no longer
// in the expected status
var ErrStatusChanged = errors.New("quotation status changed concurrently")

type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create stores the quotation with its items and bumps the client's quotation counter
func (r *QuotationRepository) Create(ctx context.Context, q *domain.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client").Create(q).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Client{}).
			Where("id = ?", q.ClientID).
			UpdateColumn("quotation_count", gorm.Expr("quotation_count + ?", 1)).Error
	})
}

func (r *QuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var q domain.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateContent saves the quotation's own columns. When replaceItems is set the
// stored items are swapped for q.Items. When the client changed, the quotation
// counter moves from previousClientID to the new client.
func (r *QuotationRepository) UpdateContent(ctx context.Context, q *domain.Quotation, replaceItems bool, previousClientID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replaceItems {
			if err := tx.Where("quotation_id = ?", q.ID).Delete(&domain.QuotationItem{}).Error; err != nil {
				return err
			}
			for i := range q.Items {
				q.Items[i].ID = uuid.Nil
				q.Items[i].QuotationID = q.ID
			}
			if len(q.Items) > 0 {
				if err := tx.Create(&q.Items).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Omit(clause.Associations).Save(q).Error; err != nil {
			return err
		}

		if previousClientID != uuid.Nil && previousClientID != q.ClientID {
			if err := tx.Model(&domain.Client{}).
				Where("id = ? AND quotation_count > 0", previousClientID).
				UpdateColumn("quotation_count", gorm.Expr("quotation_count - ?", 1)).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Client{}).
				Where("id = ?", q.ClientID).
				UpdateColumn("quotation_count", gorm.Expr("quotation_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Transition moves a quotation from one status to another. The update only
// applies while the stored status still equals from. Accepting a quotation
// records the purchase on the client.
func (r *QuotationRepository) Transition(ctx context.Context, q *domain.Quotation, from domain.QuotationStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Quotation{}).
			Where("id = ? AND status = ?", q.ID, from).
			Updates(map[string]interface{}{
				"status":       q.Status,
				"responded_at": q.RespondedAt,
				"updated_at":   q.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusChanged
		}

		if q.Status == domain.QuotationStatusAccepted {
			return tx.Model(&domain.Client{}).
				Where("id = ?", q.ClientID).
				UpdateColumns(map[string]interface{}{
					"purchase_count":  gorm.Expr("purchase_count + ?", 1),
					"total_purchases": gorm.Expr("total_purchases + ?", q.Total),
				}).Error
		}
		return nil
	})
}

func (r *QuotationRepository) SetSentAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Quotation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"sent_at": at, "updated_at": at}).Error
}

func (r *QuotationRepository) SetDocumentPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&domain.Quotation{}).Where("id = ?", id).
		UpdateColumn("document_path", path).Error
}

// Delete removes the quotation and its items
func (r *QuotationRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_id = ?", id).Delete(&domain.QuotationItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Quotation{}, "id = ?", id)
		deleted = result.RowsAffected > 0
		return result.Error
	})
	return deleted, err
}

func (r *QuotationRepository) List(ctx context.Context, filter domain.QuotationFilter) ([]domain.Quotation, int64, error) {
	var quotations []domain.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quotation{})

	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(client_name) LIKE ?", searchPattern, searchPattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Preload("Items", orderedItems).
		Offset(offset).Limit(filter.PageSize).
		Order("created_at DESC").Order("number DESC").
		Find(&quotations).Error

	return quotations, total, err
}

// ListOverdue returns pending quotations whose validity ended before now
func (r *QuotationRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	err := r.db.WithContext(ctx).
		Where("status = ? AND valid_until < ?", domain.QuotationStatusPending, now).
		Order("valid_until ASC").
		Find(&quotations).Error
	return quotations, err
}

// ListCreatedBetween returns quotations created in [from, to) with their items
func (r *QuotationRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&quotations).Error
	return quotations, err
}

func (r *QuotationRepository) ListRecent(ctx context.Context, limit int) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Order("created_at DESC").Order("number DESC").
		Limit(limit).
		Find(&quotations).Error
	return quotations, err
}

type statusCount struct {
	Status domain.QuotationStatus
	Count  int
}

// CountByStatus returns the number of quotations per status
func (r *QuotationRepository) CountByStatus(ctx context.Context) (map[domain.QuotationStatus]int, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.QuotationStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
