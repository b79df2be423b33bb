package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	billingrundomain "github.com/recordbay/recordbay/internal/billingrun/domain"
	"github.com/recordbay/recordbay/internal/charge"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	"github.com/recordbay/recordbay/internal/period"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&billingrundomain.BillingRun{}))
	return db
}

func newRun(node *snowflake.Node, customerID snowflake.ID, p period.Period, status billingrundomain.RunStatus) *billingrundomain.BillingRun {
	return &billingrundomain.BillingRun{
		ID:         node.Generate(),
		CustomerID: customerID,
		Period:     p,
		Mode:       directorydomain.ModeSeparate,
		Status:     status,
		StartedAt:  time.Now().UTC(),
	}
}

// The unique index on (customer_id, period) must surface as ErrDuplicateRun
// on the sqlite dev driver too, not just through postgres error translation.
func TestCreateDuplicateRunOnSqlite(t *testing.T) {
	db := newTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	p, err := period.Parse("2026-08")
	require.NoError(t, err)
	ctx := context.Background()
	repo := New()

	customerID := node.Generate()
	require.NoError(t, repo.Create(ctx, db, newRun(node, customerID, p, billingrundomain.StatusRunning)))

	err = repo.Create(ctx, db, newRun(node, customerID, p, billingrundomain.StatusRunning))
	require.ErrorIs(t, err, billingrundomain.ErrDuplicateRun)

	// A different period for the same customer is fine.
	require.NoError(t, repo.Create(ctx, db, newRun(node, customerID, p.Previous(), billingrundomain.StatusRunning)))
}

func TestTakeOverFailedClearsPreviousState(t *testing.T) {
	db := newTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	p, err := period.Parse("2026-08")
	require.NoError(t, err)
	ctx := context.Background()
	repo := New()

	customerID := node.Generate()
	msg := "aggregate charges: boom"
	finished := time.Now().UTC()
	stale := newRun(node, customerID, p, billingrundomain.StatusFailed)
	stale.Error = &msg
	stale.FinishedAt = &finished
	stale.InvoiceIDs = datatypes.JSONSlice[string]{"42"}
	stale.Failures = datatypes.NewJSONType([]charge.DepartmentFailure{
		{DepartmentID: node.Generate(), DepartmentName: "Legal", Reason: "rate_not_configured"},
	})
	require.NoError(t, db.Create(stale).Error)

	taken, err := repo.TakeOverFailed(ctx, db, customerID, p, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, taken)

	run, err := repo.FindByCustomerPeriod(ctx, db, customerID, p)
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Equal(t, billingrundomain.StatusRunning, run.Status)
	require.Nil(t, run.Error)
	require.Nil(t, run.FinishedAt)
	require.Empty(t, run.InvoiceIDs)
	require.Empty(t, run.Failures.Data())
}

func TestTakeOverSkipsNonFailedRuns(t *testing.T) {
	db := newTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	p, err := period.Parse("2026-08")
	require.NoError(t, err)
	ctx := context.Background()
	repo := New()

	customerID := node.Generate()
	require.NoError(t, db.Create(newRun(node, customerID, p, billingrundomain.StatusCompleted)).Error)

	taken, err := repo.TakeOverFailed(ctx, db, customerID, p, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, taken)
}
