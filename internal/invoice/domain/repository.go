package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Invoice, error)
	// MarkFinal performs the guarded draft-to-final update and reports
	// whether a row transitioned.
	MarkFinal(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}
