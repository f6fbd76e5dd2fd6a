package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"GeoAttend/internal/model"
	"GeoAttend/internal/repository"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/snowflake"
	"GeoAttend/storage/database"
)

func init() {
	_ = snowflake.Init(2, 1)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.MigrateDB(db))
	return db
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestZoneServiceLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewZoneRepository(db)
	inv := &countingInvalidator{}
	svc := NewZoneService(repo, inv, 120)
	ctx := context.Background()

	zone, err := svc.Create(ctx, "admin-1", ZoneInput{Name: ptr(" Head Office "), Latitude: ptr(hqLat), Longitude: ptr(hqLng)})
	require.NoError(t, err)
	assert.Len(t, zone.ID, 36)
	assert.Equal(t, "Head Office", zone.Name)
	assert.Equal(t, 120.0, zone.RadiusMeters)
	assert.True(t, zone.Active)
	assert.Equal(t, "admin-1", zone.CreatedBy)

	updated, err := svc.Update(ctx, zone.ID, ZoneInput{RadiusMeters: ptr(250.0)})
	require.NoError(t, err)
	assert.Equal(t, 250.0, updated.RadiusMeters)
	assert.Equal(t, "Head Office", updated.Name)

	require.NoError(t, svc.Deactivate(ctx, zone.ID))
	active, err := repo.ListActiveZones(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.Equal(t, 3, inv.calls)
}

func TestZoneServiceValidation(t *testing.T) {
	svc := NewZoneService(repository.NewZoneRepository(setupTestDB(t)), nil, 0)
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin", ZoneInput{Name: ptr("HQ")})
	assert.True(t, stderrors.Is(err, errors.InvalidRequest))

	_, err = svc.Create(ctx, "admin", ZoneInput{Name: ptr("HQ"), Latitude: ptr(91.0), Longitude: ptr(0.0)})
	assert.True(t, stderrors.Is(err, errors.InvalidRequest))

	_, err = svc.Create(ctx, "admin", ZoneInput{Name: ptr("HQ"), Latitude: ptr(0.0), Longitude: ptr(0.0), RadiusMeters: ptr(0.0)})
	assert.True(t, stderrors.Is(err, errors.InvalidRequest))

	_, err = svc.Update(ctx, "missing", ZoneInput{Name: ptr("x")})
	assert.True(t, stderrors.Is(err, errors.ZoneNotFound))

	err = svc.Deactivate(ctx, "missing")
	assert.True(t, stderrors.Is(err, errors.ZoneNotFound))
}

func TestRemoteWorkSubmitAndDecide(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, wib)
	svc := NewRemoteWorkService(repository.NewGrantRepository(db), ClockFunc(func() time.Time { return now }), wib)
	ctx := context.Background()

	grant, err := svc.Submit(ctx, "emp-1", RemoteWorkRequest{
		StartDate: "2024-03-05", EndDate: "2024-03-07", Destination: "Bandung", Purpose: "client visit",
	})
	require.NoError(t, err)
	assert.Equal(t, model.GrantStatusPending, grant.Status)
	assert.Equal(t, 3, grant.DurationDays)
	assert.NotZero(t, grant.ID)

	mine, err := svc.ListMine(ctx, "emp-1", 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	pending, err := svc.List(ctx, "pending", 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	decided, err := svc.Approve(ctx, "admin-1", grant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GrantStatusApproved, decided.Status)
	assert.Equal(t, "admin-1", decided.ApprovedBy)
	require.NotNil(t, decided.ApprovedDate)

	_, err = svc.Reject(ctx, "admin-1", grant.ID, "late")
	assert.True(t, stderrors.Is(err, errors.GrantNotPending))

	_, err = svc.Approve(ctx, "admin-1", 999)
	assert.True(t, stderrors.Is(err, errors.GrantNotFound))
}

func TestRemoteWorkValidation(t *testing.T) {
	svc := NewRemoteWorkService(repository.NewGrantRepository(setupTestDB(t)), nil, wib)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "emp-1", RemoteWorkRequest{StartDate: "2024-03-07", EndDate: "2024-03-05"})
	assert.True(t, stderrors.Is(err, errors.InvalidDateRange))

	_, err = svc.Submit(ctx, "emp-1", RemoteWorkRequest{StartDate: "07/03/2024", EndDate: "2024-03-05"})
	assert.True(t, stderrors.Is(err, errors.InvalidRequest))

	single, err := svc.Submit(ctx, "emp-1", RemoteWorkRequest{StartDate: "2024-03-05", EndDate: "2024-03-05"})
	require.NoError(t, err)
	assert.Equal(t, 1, single.DurationDays)

	_, err = svc.Reject(ctx, "admin", single.ID, "  ")
	assert.True(t, stderrors.Is(err, errors.RejectionReasonRequired))

	rejected, err := svc.Reject(ctx, "admin", single.ID, "no budget")
	require.NoError(t, err)
	assert.Equal(t, model.GrantStatusRejected, rejected.Status)
	assert.Equal(t, "no budget", rejected.RejectionReason)

	_, err = svc.List(ctx, "archived", 0)
	assert.True(t, stderrors.Is(err, errors.InvalidRequest))
}
