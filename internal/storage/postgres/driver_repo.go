package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/storage"
)

type driverRepo struct {
	db *gorm.DB
}

func withDriverRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Vehicle")
}

func (r *driverRepo) GetByID(ctx context.Context, id string) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.WithContext(ctx).Scopes(withDriverRelations).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *driverRepo) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.WithContext(ctx).Scopes(withDriverRelations).First(&d, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *driverRepo) GetAll(ctx context.Context) ([]models.Driver, error) {
	var drivers []models.Driver
	if err := r.db.WithContext(ctx).Scopes(withDriverRelations).Order("created_at DESC").Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}

func (r *driverRepo) CreateWithUser(ctx context.Context, user *models.User, driver *models.Driver) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		driver.UserID = user.ID
		return tx.Omit(clause.Associations).Create(driver).Error
	})
	if err != nil {
		return translate(err)
	}
	driver.User = user
	return nil
}

func (r *driverRepo) Update(ctx context.Context, id string, fields storage.Fields) (*models.Driver, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Driver{}).Where("id = ?", id).Updates(map[string]interface{}(fields))
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, storage.ErrNotFound
		}
	}
	return r.GetByID(ctx, id)
}
