package rankings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fitrank/fitrank-api/internal/models"
)

// Repository reads session stats ordered by a metric, highest first, with
// ties broken by ascending record id.
type Repository interface {
	Top(ctx context.Context, m Metric, w Window, limit int) ([]models.SessionStats, error)
	// BestForUser returns nil when the user has no record in the window.
	BestForUser(ctx context.Context, userID uint, m Metric, w Window) (*models.SessionStats, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ranked(ctx context.Context, m Metric, w Window) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.SessionStats{})
	if w.From != nil {
		q = q.Where("created_at >= ?", *w.From)
	}
	if w.To != nil {
		q = q.Where("created_at <= ?", *w.To)
	}
	return q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: m.Column()}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

func (r *GormRepository) Top(ctx context.Context, m Metric, w Window, limit int) ([]models.SessionStats, error) {
	var out []models.SessionStats
	if err := r.ranked(ctx, m, w).Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query top %s: %w", m, err)
	}
	return out, nil
}

func (r *GormRepository) BestForUser(ctx context.Context, userID uint, m Metric, w Window) (*models.SessionStats, error) {
	var s models.SessionStats
	err := r.ranked(ctx, m, w).Where("user_id = ?", userID).Take(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query best %s for user %d: %w", m, userID, err)
	}
	return &s, nil
}
