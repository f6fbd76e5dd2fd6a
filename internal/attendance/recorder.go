// Package attendance 写入签到 / 签退记录。
package attendance

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"GeoAttend/internal/eligibility"
	"GeoAttend/internal/model"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/metrics"
	"GeoAttend/utils"
)

// ErrNoRecord 存储中没有对应日期的记录
var ErrNoRecord = stderrors.New("attendance record not found")

// Store 考勤记录存储，UpsertCheckIn 以 (employee_id, date) 为唯一键
type Store interface {
	UpsertCheckIn(ctx context.Context, record *model.AttendanceRecord) error
	// SetCheckOut 记录不存在时返回 ErrNoRecord
	SetCheckOut(ctx context.Context, employeeID string, date, at time.Time) error
	// GetForDate 记录不存在时返回 (nil, nil)
	GetForDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error)
}

// Policy 迟到判定
type Policy struct {
	Location      *time.Location
	WorkStart     string // HH:MM
	LateThreshold time.Duration
}

// Recorder 不做重试，存储错误原样包装返回
type Recorder struct {
	store  Store
	policy Policy
	now    func() time.Time
}

func NewRecorder(store Store, policy Policy, now func() time.Time) *Recorder {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Recorder{store: store, policy: policy, now: now}
}

// CheckIn 只有 verdict.CanAttend 时写入；同一天重复签到覆盖签到信息，保留签退时间
func (r *Recorder) CheckIn(ctx context.Context, employeeID string, date time.Time, verdict eligibility.Verdict, coord *model.Coordinate) (*model.AttendanceRecord, error) {
	if !verdict.CanAttend {
		metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckIn), "rejected")
		return nil, notEligible(verdict)
	}

	now := r.now().In(r.policy.Location)
	record := &model.AttendanceRecord{
		EmployeeID:              employeeID,
		Date:                    utils.DateKey(date),
		CheckInAt:               &now,
		LocationLabel:           Label(verdict),
		UsedRemoteWorkException: verdict.UsedRemoteWorkException,
		Status:                  r.status(utils.DateKey(date), now),
	}
	if coord != nil {
		lat, lng := coord.Latitude, coord.Longitude
		record.LocationLat = &lat
		record.LocationLng = &lng
	}

	if err := r.store.UpsertCheckIn(ctx, record); err != nil {
		metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckIn), "error")
		return nil, errors.Wrap(errors.StoreError, err)
	}

	// upsert 保留了已有的签退时间，返回值与库中一致
	stored, err := r.store.GetForDate(ctx, employeeID, date)
	if err != nil {
		logger.Logger.Warn("Failed to reload attendance record after check-in",
			zap.String("employee_id", employeeID),
			zap.String("date", record.Date),
			zap.Error(err),
		)
	} else if stored != nil {
		record.CheckOutAt = stored.CheckOutAt
	}

	metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckIn), "ok")
	logger.Logger.Info("Check-in recorded",
		zap.String("employee_id", employeeID),
		zap.String("date", record.Date),
		zap.String("reason", string(verdict.Reason)),
		zap.String("status", string(record.Status)),
		zap.Bool("used_remote_work_exception", verdict.UsedRemoteWorkException),
	)
	return record, nil
}

// CheckOut 不再校验资格，只要求当天已签到
func (r *Recorder) CheckOut(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	record, err := r.store.GetForDate(ctx, employeeID, date)
	if err != nil {
		metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckOut), "error")
		return nil, errors.Wrap(errors.StoreError, err)
	}
	if !record.HasCheckedIn() {
		metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckOut), "rejected")
		return nil, errors.NoCheckInYet
	}

	now := r.now().In(r.policy.Location)
	if err := r.store.SetCheckOut(ctx, employeeID, date, now); err != nil {
		if stderrors.Is(err, ErrNoRecord) {
			metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckOut), "rejected")
			return nil, errors.NoCheckInYet
		}
		metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckOut), "error")
		return nil, errors.Wrap(errors.StoreError, err)
	}

	metrics.GetMetrics().RecordWrite(ctx, string(model.AttemptActionCheckOut), "ok")
	record.CheckOutAt = &now
	return record, nil
}

// Label 有最近区域时取其名称（区域外凭许可签到也一样），否则使用远程办公许可时为 Work From Home，再否则为 Remote Location
func Label(verdict eligibility.Verdict) string {
	if verdict.Nearest != nil {
		return verdict.Nearest.Zone.Name
	}
	if verdict.UsedRemoteWorkException {
		return model.LabelWorkFromHome
	}
	return model.LabelRemoteLocation
}

func (r *Recorder) status(date string, checkInAt time.Time) model.AttendanceStatus {
	day, err := utils.ParseDate(date, r.policy.Location)
	if err != nil {
		return model.AttendanceStatusPresent
	}
	start, err := utils.ParseClock(r.policy.WorkStart, day)
	if err != nil {
		return model.AttendanceStatusPresent
	}
	if checkInAt.After(start.Add(r.policy.LateThreshold)) {
		return model.AttendanceStatusLate
	}
	return model.AttendanceStatusPresent
}

func notEligible(verdict eligibility.Verdict) error {
	if verdict.Reason == eligibility.OutsideZoneNoGrant {
		return errors.Wrap(errors.OutsideZoneNoGrant, errors.NotEligible)
	}
	if msg := verdict.Reason.Message(); msg != "" {
		return errors.NotEligible.WithMessage(msg)
	}
	return errors.NotEligible
}
