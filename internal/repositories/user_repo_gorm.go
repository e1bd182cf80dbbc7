package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/accounts/internal/models"
	"gorm.io/gorm"
)

// userRecord is the GORM mapping of the users table
type userRecord struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	FirstName    string  `gorm:"size:255;not null"`
	LastName     string  `gorm:"size:255;not null"`
	Email        string  `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string  `gorm:"size:255;not null"`
	Avatar       *string `gorm:"size:255"`
	DateCreated  time.Time
	DateUpdated  time.Time
}

func (userRecord) TableName() string { return "users" }

func toRecord(u *models.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Avatar:       u.Avatar,
		DateCreated:  u.DateCreated,
		DateUpdated:  u.DateUpdated,
	}
}

func (r *userRecord) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Avatar:       r.Avatar,
		DateCreated:  r.DateCreated,
		DateUpdated:  r.DateUpdated,
	}
}

// GormUserRepository is the MySQL user store
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Migrate creates or updates the users table
func (r *GormUserRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userRecord{})
}

// mapGormError needs the connection opened with TranslateError
func mapGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.ErrConflict
	default:
		return err
	}
}

func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	rec := toRecord(user)

	if user.ID == 0 {
		if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
			return fmt.Errorf("failed to insert user: %w", mapGormError(err))
		}
		user.ID = rec.ID
		return nil
	}

	result := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", user.ID).Updates(map[string]any{
		"first_name":    rec.FirstName,
		"last_name":     rec.LastName,
		"email":         rec.Email,
		"password_hash": rec.PasswordHash,
		"avatar":        rec.Avatar,
		"date_updated":  rec.DateUpdated,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", mapGormError(result.Error))
	}

	// MySQL reports zero affected rows for unchanged values, so existence is checked separately
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", mapGormError(err))
		}
		if count == 0 {
			return models.ErrNotFound
		}
	}

	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Delete(&userRecord{}, user.ID)
	if result.Error != nil {
		return mapGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err)
	}
	return rec.toModel(), nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, "email = ?", email).Error; err != nil {
		return nil, mapGormError(err)
	}
	return rec.toModel(), nil
}

func (r *GormUserRepository) FindPaginated(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var recs []userRecord
	err := r.db.WithContext(ctx).Order("id asc").Limit(limit).Offset(offset).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users := make([]*models.User, 0, len(recs))
	for i := range recs {
		users = append(users, recs[i].toModel())
	}
	return users, nil
}

func (r *GormUserRepository) CountAll(ctx context.Context) (int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&userRecord{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return int(total), nil
}
