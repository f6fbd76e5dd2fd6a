package attendance

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GeoAttend/internal/eligibility"
	"GeoAttend/internal/geofence"
	"GeoAttend/internal/model"
	"GeoAttend/pkg/errors"
	"GeoAttend/utils"
)

// memStore 模拟 (employee_id, date) 唯一键上的 upsert
type memStore struct {
	mu      sync.Mutex
	rows    map[string]*model.AttendanceRecord
	err     error
	lostRow bool
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*model.AttendanceRecord)}
}

func key(employeeID, date string) string { return employeeID + "|" + date }

func (m *memStore) UpsertCheckIn(ctx context.Context, r *model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	k := key(r.EmployeeID, r.Date)
	cp := *r
	if existing, ok := m.rows[k]; ok {
		cp.CheckOutAt = existing.CheckOutAt
	}
	m.rows[k] = &cp
	return nil
}

func (m *memStore) SetCheckOut(ctx context.Context, employeeID string, date, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	row, ok := m.rows[key(employeeID, utils.DateKey(date))]
	if !ok || m.lostRow {
		return ErrNoRecord
	}
	row.CheckOutAt = &at
	return nil
}

func (m *memStore) GetForDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	row, ok := m.rows[key(employeeID, utils.DateKey(date))]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

var jakarta = time.FixedZone("WIB", 7*3600)

func clockAt(hour, minute int) func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 1, hour, minute, 0, 0, jakarta) }
}

func newRecorder(store Store, now func() time.Time) *Recorder {
	return NewRecorder(store, Policy{Location: jakarta, WorkStart: "08:00", LateThreshold: 15 * time.Minute}, now)
}

var today = time.Date(2024, 3, 1, 0, 0, 0, 0, jakarta)

func withinVerdict() eligibility.Verdict {
	return eligibility.Verdict{
		CanAttend: true,
		Reason:    eligibility.WithinOfficeZone,
		Nearest:   &geofence.Match{Zone: model.GeofenceZone{ID: "hq", Name: "Jakarta HQ"}, DistanceMeters: 40},
	}
}

func TestCheckIn_WithinZone(t *testing.T) {
	store := newMemStore()
	r := newRecorder(store, clockAt(7, 55))
	coord := &model.Coordinate{Latitude: -6.2, Longitude: 106.8}

	rec, err := r.CheckIn(context.Background(), "emp-1", today, withinVerdict(), coord)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", rec.Date)
	assert.Equal(t, "Jakarta HQ", rec.LocationLabel)
	assert.Equal(t, model.AttendanceStatusPresent, rec.Status)
	assert.False(t, rec.UsedRemoteWorkException)
	require.NotNil(t, rec.LocationLat)
	assert.Equal(t, -6.2, *rec.LocationLat)
}

func TestCheckIn_NotEligible(t *testing.T) {
	store := newMemStore()
	r := newRecorder(store, clockAt(8, 0))

	_, err := r.CheckIn(context.Background(), "emp-1", today, eligibility.Verdict{Reason: eligibility.OutsideZoneNoGrant}, nil)
	assert.True(t, stderrors.Is(err, errors.NotEligible))
	def, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.OutsideZoneNoGrant.Code, def.Code)

	_, err = r.CheckIn(context.Background(), "emp-1", today, eligibility.Verdict{Reason: eligibility.LocationUnavailableNoGrant}, nil)
	assert.True(t, stderrors.Is(err, errors.NotEligible))
	assert.Empty(t, store.rows)
}

func TestCheckIn_DegradedRemoteWork(t *testing.T) {
	store := newMemStore()
	r := newRecorder(store, clockAt(8, 10))

	verdict := eligibility.Verdict{CanAttend: true, Reason: eligibility.RemoteWorkApprovedLocationDegraded, UsedRemoteWorkException: true}
	rec, err := r.CheckIn(context.Background(), "emp-1", today, verdict, nil)
	require.NoError(t, err)
	assert.Equal(t, model.LabelWorkFromHome, rec.LocationLabel)
	assert.True(t, rec.UsedRemoteWorkException)
	assert.Nil(t, rec.LocationLat)
	assert.Nil(t, rec.LocationLng)
}

func TestCheckIn_LateAfterThreshold(t *testing.T) {
	store := newMemStore()

	rec, err := newRecorder(store, clockAt(8, 15)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStatusPresent, rec.Status)

	rec, err = newRecorder(store, clockAt(8, 16)).CheckIn(context.Background(), "emp-2", today, withinVerdict(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStatusLate, rec.Status)
}

func TestCheckIn_SecondOverwrites(t *testing.T) {
	store := newMemStore()

	_, err := newRecorder(store, clockAt(7, 50)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	require.NoError(t, err)

	remote := eligibility.Verdict{CanAttend: true, Reason: eligibility.RemoteWorkApproved, UsedRemoteWorkException: true}
	_, err = newRecorder(store, clockAt(9, 0)).CheckIn(context.Background(), "emp-1", today, remote, nil)
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	row := store.rows[key("emp-1", "2024-03-01")]
	assert.Equal(t, model.LabelWorkFromHome, row.LocationLabel)
	assert.Equal(t, 9, row.CheckInAt.Hour())
}

func TestCheckIn_StoreError(t *testing.T) {
	store := newMemStore()
	store.err = stderrors.New("disk full")

	_, err := newRecorder(store, clockAt(8, 0)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	assert.True(t, stderrors.Is(err, errors.StoreError))
	assert.Contains(t, err.Error(), "disk full")
}

func TestCheckOut_RequiresCheckIn(t *testing.T) {
	store := newMemStore()
	r := newRecorder(store, clockAt(17, 0))

	_, err := r.CheckOut(context.Background(), "emp-1", today)
	assert.ErrorIs(t, err, errors.NoCheckInYet)
}

func TestCheckOut_AfterCheckIn(t *testing.T) {
	store := newMemStore()
	_, err := newRecorder(store, clockAt(8, 0)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	require.NoError(t, err)

	rec, err := newRecorder(store, clockAt(17, 5)).CheckOut(context.Background(), "emp-1", today)
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOutAt)
	assert.Equal(t, 17, rec.CheckOutAt.Hour())
	assert.Equal(t, "Jakarta HQ", rec.LocationLabel)

	// 再次签到不清空签退时间
	_, err = newRecorder(store, clockAt(17, 30)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	require.NoError(t, err)
	assert.NotNil(t, store.rows[key("emp-1", "2024-03-01")].CheckOutAt)
}

func TestCheckOut_RowVanished(t *testing.T) {
	store := newMemStore()
	_, err := newRecorder(store, clockAt(8, 0)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	require.NoError(t, err)
	store.lostRow = true

	_, err = newRecorder(store, clockAt(17, 0)).CheckOut(context.Background(), "emp-1", today)
	assert.ErrorIs(t, err, errors.NoCheckInYet)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Jakarta HQ", Label(withinVerdict()))
	assert.Equal(t, model.LabelWorkFromHome, Label(eligibility.Verdict{Reason: eligibility.RemoteWorkApproved, UsedRemoteWorkException: true}))
	assert.Equal(t, model.LabelRemoteLocation, Label(eligibility.Verdict{Reason: eligibility.WithinOfficeZone}))

	// 定位成功但在区域外，凭许可签到时仍记录最近区域名称
	outside := eligibility.Compute(eligibility.Input{
		Location: &model.Coordinate{Latitude: -6.2, Longitude: 106.8},
		Geofence: geofence.Result{
			WithinAny: false,
			Nearest:   &geofence.Match{Zone: model.GeofenceZone{ID: "hq", Name: "HQ"}, DistanceMeters: 150},
		},
		HasGrant: true,
	})
	require.Equal(t, eligibility.RemoteWorkApproved, outside.Reason)
	assert.Equal(t, "HQ", Label(outside))
}

func TestCheckIn_RepeatAfterCheckOutReturnsStoredCheckOut(t *testing.T) {
	store := newMemStore()
	_, err := newRecorder(store, clockAt(8, 0)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	require.NoError(t, err)
	_, err = newRecorder(store, clockAt(17, 0)).CheckOut(context.Background(), "emp-1", today)
	require.NoError(t, err)

	rec, err := newRecorder(store, clockAt(17, 30)).CheckIn(context.Background(), "emp-1", today, withinVerdict(), nil)
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOutAt)
	assert.Equal(t, 17, rec.CheckOutAt.Hour())
	assert.Equal(t, 0, rec.CheckOutAt.Minute())
	assert.Equal(t, 30, rec.CheckInAt.Minute())
}
