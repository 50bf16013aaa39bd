package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) GetByRUT(ctx context.Context, rut string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).First(&client, "rut = ?", rut).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// Block sets the blocked flag if it is not already set. It reports whether
// the row changed.
func (r *ClientRepository) Block(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Client{}).
		Where("id = ? AND is_blocked = ?", id, false).
		Updates(map[string]interface{}{
			"is_blocked": true,
			"blocked_at": at,
			"updated_at": at,
		})
	return result.RowsAffected > 0, result.Error
}

// applyStatusFilter narrows a client query to a derived status
func applyStatusFilter(query *gorm.DB, status string, atRiskThreshold int) *gorm.DB {
	switch domain.ClientStatus(status) {
	case domain.ClientStatusBlocked:
		return query.Where("is_blocked = ?", true)
	case domain.ClientStatusAtRisk:
		return query.Where("is_blocked = ? AND quotation_count >= ? AND purchase_count = 0", false, atRiskThreshold)
	case domain.ClientStatusActive:
		return query.Where("is_blocked = ? AND NOT (quotation_count >= ? AND purchase_count = 0)", false, atRiskThreshold)
	default:
		return query
	}
}

func (r *ClientRepository) List(ctx context.Context, filter domain.ClientFilter, atRiskThreshold int) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Client{})

	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(business_name) LIKE ? OR LOWER(rut) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern,
		)
	}
	query = applyStatusFilter(query, filter.Status, atRiskThreshold)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Offset(offset).Limit(filter.PageSize).Order("business_name ASC").Find(&clients).Error

	return clients, total, err
}

func (r *ClientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Client{}).Count(&count).Error
	return count, err
}

func (r *ClientRepository) CountBlocked(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Client{}).Where("is_blocked = ?", true).Count(&count).Error
	return count, err
}

// TopByPurchases returns clients ordered by cumulative purchases. With
// onlyBuyers set, clients without purchases are excluded.
func (r *ClientRepository) TopByPurchases(ctx context.Context, limit int, onlyBuyers bool) ([]domain.Client, error) {
	var clients []domain.Client
	query := r.db.WithContext(ctx).Model(&domain.Client{})
	if onlyBuyers {
		query = query.Where("total_purchases > 0")
	}
	err := query.Order("total_purchases DESC").Order("business_name ASC").Limit(limit).Find(&clients).Error
	return clients, err
}

// AtRisk returns unblocked clients with threshold or more quotations and no purchases
func (r *ClientRepository) AtRisk(ctx context.Context, threshold int) ([]domain.Client, error) {
	var clients []domain.Client
	query := applyStatusFilter(r.db.WithContext(ctx).Model(&domain.Client{}), string(domain.ClientStatusAtRisk), threshold)
	err := query.Order("quotation_count DESC").Order("business_name ASC").Find(&clients).Error
	return clients, err
}

// CountWithStatus counts clients in a derived status
func (r *ClientRepository) CountWithStatus(ctx context.Context, status domain.ClientStatus, atRiskThreshold int) (int64, error) {
	var count int64
	query := applyStatusFilter(r.db.WithContext(ctx).Model(&domain.Client{}), string(status), atRiskThreshold)
	err := query.Count(&count).Error
	return count, err
}
