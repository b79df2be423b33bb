package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
)

type repository struct{}

func New() directorydomain.Repository {
	return &repository{}
}

func (r *repository) ListCustomers(ctx context.Context, db *gorm.DB) ([]directorydomain.Customer, error) {
	var rows []directorydomain.Customer
	err := db.WithContext(ctx).
		Order("id").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindCustomerByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*directorydomain.Customer, error) {
	var row directorydomain.Customer
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListDepartments(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]directorydomain.Department, error) {
	var rows []directorydomain.Department
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListDimensionedContainers(ctx context.Context, db *gorm.DB, departmentID snowflake.ID) ([]directorydomain.Container, error) {
	var rows []directorydomain.Container
	err := db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("id").
		Find(&rows).Error
	return rows, err
}
