package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"GeoAttend/internal/model"
	"GeoAttend/internal/repository"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/snowflake"
	"GeoAttend/pkg/token"
	"GeoAttend/storage/database"
)

var wib = time.FixedZone("WIB", 7*3600)

const (
	hqLat = -6.2000
	hqLng = 106.8166
)

func init() {
	_ = snowflake.Init(3, 1)
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error struct {
		Details map[string]json.RawMessage `json:"details"`
		Code    string                     `json:"code"`
		Message string                     `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *ut.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// asEmployee 代替 jwt 中间件直接注入身份
func asEmployee(ctx context.Context, c *app.RequestContext) {
	id := string(c.GetHeader("X-Test-Employee"))
	if id == "" {
		c.Next(ctx)
		return
	}
	role := token.RoleEmployee
	if string(c.GetHeader("X-Test-Role")) == token.RoleAdmin {
		role = token.RoleAdmin
	}
	c.Set(token.IdentityKey, token.Claims{EmployeeID: id, Role: role})
	c.Next(ctx)
}

func employee(id string) ut.Header { return ut.Header{Key: "X-Test-Employee", Value: id} }

var (
	admin    = ut.Header{Key: "X-Test-Role", Value: token.RoleAdmin}
	jsonType = ut.Header{Key: "Content-Type", Value: "application/json"}
)

func body(t *testing.T, v interface{}) *ut.Body {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}
}

type testEnv struct {
	engine *route.Engine
	zones  *repository.ZoneRepository
	now    time.Time
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.MigrateDB(db))

	env := &testEnv{
		zones: repository.NewZoneRepository(db),
		now:   time.Date(2024, 3, 4, 8, 5, 0, 0, wib),
	}
	clock := service.ClockFunc(func() time.Time { return env.now })
	grants := repository.NewGrantRepository(db)

	att := service.NewAttendanceService(env.zones, grants, repository.NewAttendanceRepository(db), nil, clock, service.AttendanceConfig{
		Location:       wib,
		WorkStart:      "08:00",
		LateThreshold:  15 * time.Minute,
		FallbackDays:   3,
		FallbackLimit:  5,
		SessionIdleTTL: time.Minute,
	})
	zones := service.NewZoneService(env.zones, nil, 100)
	remote := service.NewRemoteWorkService(grants, clock, wib)

	prevA, prevZ, prevR := attendanceService, zoneService, remoteWorkService
	attendanceService = func() *service.AttendanceService { return att }
	zoneService = func() *service.ZoneService { return zones }
	remoteWorkService = func() *service.RemoteWorkService { return remote }
	t.Cleanup(func() {
		attendanceService, zoneService, remoteWorkService = prevA, prevZ, prevR
	})

	e := route.NewEngine(config.NewOptions([]config.Option{}))
	e.Use(asEmployee)
	e.GET("/healthz", Health)
	e.GET("/v1/attendance/eligibility", GetEligibility)
	e.POST("/v1/attendance/check-in", CheckIn)
	e.POST("/v1/attendance/check-out", CheckOut)
	e.GET("/v1/attendance/today", GetToday)
	e.GET("/v1/attendance/history", GetHistory)
	e.POST("/v1/remote-work", CreateRemoteWork)
	e.GET("/v1/remote-work", ListMyRemoteWork)
	e.GET("/v1/admin/remote-work", ListRemoteWork)
	e.POST("/v1/admin/remote-work/:id/approve", ApproveRemoteWork)
	e.POST("/v1/admin/remote-work/:id/reject", RejectRemoteWork)
	e.GET("/v1/admin/zones", ListZones)
	e.POST("/v1/admin/zones", CreateZone)
	e.PUT("/v1/admin/zones/:id", UpdateZone)
	e.POST("/v1/admin/zones/:id/deactivate", DeactivateZone)
	env.engine = e

	require.NoError(t, env.zones.CreateZone(context.Background(), &model.GeofenceZone{
		ID: "zone-hq", Name: "Head Office", Latitude: hqLat, Longitude: hqLng, RadiusMeters: 100, Active: true,
	}))
	return env
}

func TestGetEligibility(t *testing.T) {
	env := setup(t)

	w := ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/eligibility?lat=-6.2&lng=106.8166&accuracy=12&permission=granted", nil, employee("emp-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Nearest struct {
			ZoneID string `json:"zone_id"`
		} `json:"nearest_zone"`
		Date      string `json:"date"`
		Reason    string `json:"reason"`
		CanAttend bool   `json:"can_attend"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.True(t, data.CanAttend)
	assert.Equal(t, "withinOfficeZone", data.Reason)
	assert.Equal(t, "zone-hq", data.Nearest.ZoneID)
	assert.Equal(t, "2024-03-04", data.Date)
}

func TestGetEligibility_PermissionDenied(t *testing.T) {
	env := setup(t)

	w := ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/eligibility?error_code=1", nil, employee("emp-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		LocationError struct {
			Code string `json:"code"`
		} `json:"location_error"`
		Reason    string `json:"reason"`
		CanAttend bool   `json:"can_attend"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.False(t, data.CanAttend)
	assert.Equal(t, "locationUnavailableNoGrant", data.Reason)
	assert.Equal(t, "LOCATION_PERMISSION_DENIED", data.LocationError.Code)
}

func TestGetEligibility_BadInput(t *testing.T) {
	env := setup(t)

	w := ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/eligibility?lat=95&lng=10", nil, employee("emp-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/eligibility?captured_at=yesterday", nil, employee("emp-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/eligibility", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAttendanceFlow(t *testing.T) {
	env := setup(t)
	emp := employee("emp-1")

	// 区域外且没有远程办公许可
	w := ut.PerformRequest(env.engine, http.MethodPost, "/v1/attendance/check-in",
		body(t, map[string]interface{}{"lat": -6.21, "lng": 106.8166, "accuracy": 10}), emp, jsonType)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	env1 := decode(t, w)
	assert.Equal(t, "OUTSIDE_ZONE_NO_GRANT", env1.Error.Code)
	assert.Contains(t, string(env1.Error.Details["eligibility"]), "outsideZoneNoGrant")

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/attendance/check-out", nil, emp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_CHECK_IN_YET", decode(t, w).Error.Code)

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/attendance/check-in",
		body(t, map[string]interface{}{"lat": hqLat, "lng": hqLng, "accuracy": 10, "captured_at": "1709514300000"}), emp, jsonType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var checkIn struct {
		Record struct {
			LocationLabel string `json:"location_label"`
			Status        string `json:"status"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &checkIn))
	assert.Equal(t, "Head Office", checkIn.Record.LocationLabel)
	assert.Equal(t, "present", checkIn.Record.Status)

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/today", nil, emp)
	require.Equal(t, http.StatusOK, w.Code)
	var today struct {
		Date       string `json:"date"`
		CheckedIn  bool   `json:"checked_in"`
		CheckedOut bool   `json:"checked_out"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &today))
	assert.Equal(t, "2024-03-04", today.Date)
	assert.True(t, today.CheckedIn)
	assert.False(t, today.CheckedOut)

	env.now = env.now.Add(9 * time.Hour)
	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/attendance/check-out", nil, emp)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/history?from=2024-03-01&to=2024-03-04", nil, emp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w).Meta["count"])

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/history?from=2024-03-05&to=2024-03-04", nil, emp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DATE_RANGE", decode(t, w).Error.Code)
}

func TestGetToday_NoRecord(t *testing.T) {
	env := setup(t)

	w := ut.PerformRequest(env.engine, http.MethodGet, "/v1/attendance/today", nil, employee("emp-9"))
	require.Equal(t, http.StatusOK, w.Code)
	var today struct {
		Record    *json.RawMessage `json:"record"`
		CheckedIn bool             `json:"checked_in"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &today))
	assert.Nil(t, today.Record)
	assert.False(t, today.CheckedIn)
}

func TestRemoteWorkFlow(t *testing.T) {
	env := setup(t)
	emp := employee("emp-2")

	w := ut.PerformRequest(env.engine, http.MethodPost, "/v1/remote-work",
		body(t, map[string]string{"start_date": "2024-03-04", "end_date": "2024-03-06", "destination": "Bandung"}), emp, jsonType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var grant struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		DurationDays int    `json:"duration_days"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &grant))
	assert.Equal(t, "pending", grant.Status)
	assert.Equal(t, 3, grant.DurationDays)

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/remote-work",
		body(t, map[string]string{"start_date": "2024-03-06", "end_date": "2024-03-04"}), emp, jsonType)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/remote-work", nil, emp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w).Meta["count"])

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/admin/remote-work?status=pending", nil, employee("boss"), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w).Meta["count"])

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/remote-work/"+grant.ID+"/reject",
		body(t, map[string]string{"reason": " "}), employee("boss"), admin, jsonType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REJECTION_REASON_REQUIRED", decode(t, w).Error.Code)

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/remote-work/"+grant.ID+"/approve", nil, employee("boss"), admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/remote-work/"+grant.ID+"/approve", nil, employee("boss"), admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	conflict := decode(t, w)
	assert.Equal(t, "GRANT_NOT_PENDING", conflict.Error.Code)
	assert.JSONEq(t, `"approved"`, string(conflict.Error.Details["current_status"]))

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/remote-work/abc/approve", nil, employee("boss"), admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/remote-work/42/approve", nil, employee("boss"), admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 批准后区域外也可以签到
	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/attendance/check-in",
		body(t, map[string]interface{}{"lat": -6.9175, "lng": 107.6191, "accuracy": 20}), emp, jsonType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	// 定位成功，标签取最近区域
	assert.Contains(t, w.Body.String(), `"location_label":"Head Office"`)
	assert.Contains(t, w.Body.String(), `"used_remote_work_exception":true`)
}

func TestZoneAdmin(t *testing.T) {
	env := setup(t)
	boss := employee("boss")

	w := ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/zones",
		body(t, map[string]interface{}{"name": "Branch", "latitude": -6.9175, "longitude": 107.6191}), boss, admin, jsonType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var zone model.GeofenceZone
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &zone))
	assert.Equal(t, 100.0, zone.RadiusMeters)
	assert.True(t, zone.Active)

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/zones",
		body(t, map[string]interface{}{"name": "No center"}), boss, admin, jsonType)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ut.PerformRequest(env.engine, http.MethodPut, "/v1/admin/zones/"+zone.ID,
		body(t, map[string]interface{}{"radius_meters": 250}), boss, admin, jsonType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"radius_meters":250`)

	w = ut.PerformRequest(env.engine, http.MethodPost, "/v1/admin/zones/"+zone.ID+"/deactivate", nil, boss, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/admin/zones?include_inactive=false", nil, boss, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w).Meta["count"])

	w = ut.PerformRequest(env.engine, http.MethodGet, "/v1/admin/zones", nil, boss, admin)
	assert.EqualValues(t, 2, decode(t, w).Meta["count"])

	w = ut.PerformRequest(env.engine, http.MethodPut, "/v1/admin/zones/missing",
		body(t, map[string]interface{}{"name": "x"}), boss, admin, jsonType)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	env := setup(t)

	prev := healthCheckers
	t.Cleanup(func() { healthCheckers = prev })

	healthCheckers = map[string]Checker{"database": func(context.Context) error { return nil }}
	w := ut.PerformRequest(env.engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	healthCheckers = map[string]Checker{"redis": func(context.Context) error { return context.DeadlineExceeded }}
	w = ut.PerformRequest(env.engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}
