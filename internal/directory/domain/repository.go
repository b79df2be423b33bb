package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListCustomers(ctx context.Context, db *gorm.DB) ([]Customer, error)
	FindCustomerByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	ListDepartments(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]Department, error)
	ListDimensionedContainers(ctx context.Context, db *gorm.DB, departmentID snowflake.ID) ([]Container, error)
}
