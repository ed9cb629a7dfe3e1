package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fitrank/fitrank-api/internal/models"
)

// Repository defines persistence operations for users.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmails(ctx context.Context, emails []string) ([]models.User, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error)
}

// GormRepository implements Repository on a gorm connection.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GormRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

func (r *GormRepository) FindByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	var out []models.User
	if len(emails) == 0 {
		return out, nil
	}
	if err := r.db.WithContext(ctx).Where("email IN ?", emails).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find users by email: %w", err)
	}
	return out, nil
}

// Update writes the given columns and returns the reloaded row.
// A nil value in fields sets the column to NULL.
func (r *GormRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	if len(fields) > 0 {
		err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrEmailTaken
			}
			return nil, fmt.Errorf("update user %d: %w", id, err)
		}
	}
	return r.GetByID(ctx, id)
}
