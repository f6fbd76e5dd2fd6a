package service

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/eligibility"
	"GeoAttend/internal/geofence"
	"GeoAttend/internal/location"
	"GeoAttend/internal/model"
	"GeoAttend/internal/remotework"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/metrics"
	"GeoAttend/utils"
)

const (
	defaultSessionID   = "default"
	defaultHistoryDays = 30
	defaultHistorySize = 31
	maxHistorySize     = 366
	publishTimeout     = 3 * time.Second
)

// Clock 时间来源，测试里替换
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// ZoneStore 启用中的围栏
type ZoneStore interface {
	ListActiveZones(ctx context.Context) ([]model.GeofenceZone, error)
}

// AttendanceStore 考勤记录存储
type AttendanceStore interface {
	attendance.Store
	ListHistory(ctx context.Context, employeeID, from, to string, limit int) ([]model.AttendanceRecord, error)
}

// EventPublisher 打卡尝试事件，发布失败不影响打卡
type EventPublisher interface {
	PublishAttempt(ctx context.Context, msg model.AttendanceAttemptMessage) error
}

type AttendanceConfig struct {
	Location       *time.Location
	WorkStart      string
	LateThreshold  time.Duration
	FallbackDays   int
	FallbackLimit  int
	RetryPause     time.Duration
	SessionIdleTTL time.Duration
}

// Evaluation 一次资格判定的完整结果
type Evaluation struct {
	// At 判定时刻（配置时区），签到日期由它决定
	At            time.Time
	Date          string
	Verdict       eligibility.Verdict
	Sample        *model.LocationSample
	LocationError *location.Error
	Grant         remotework.Decision
}

// CheckInResult 不满足资格时 Record 为空，Evaluation 仍然返回给调用方
type CheckInResult struct {
	Evaluation *Evaluation
	Record     *model.AttendanceRecord
}

type AttendanceService struct {
	zones     ZoneStore
	store     AttendanceStore
	authority *remotework.Authority
	recorder  *attendance.Recorder
	sessions  *location.Sessions
	events    EventPublisher
	clock     Clock
	loc       *time.Location
}

func NewAttendanceService(zones ZoneStore, grants remotework.GrantStore, store AttendanceStore, events EventPublisher, clock Clock, cfg AttendanceConfig) *AttendanceService {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &AttendanceService{
		zones:     zones,
		store:     store,
		authority: remotework.NewAuthority(grants, cfg.FallbackDays, cfg.FallbackLimit),
		recorder: attendance.NewRecorder(store, attendance.Policy{
			Location:      cfg.Location,
			WorkStart:     cfg.WorkStart,
			LateThreshold: cfg.LateThreshold,
		}, clock.Now),
		sessions: location.NewSessions(cfg.SessionIdleTTL, location.WithPause(cfg.RetryPause)),
		events:   events,
		clock:    clock,
		loc:      cfg.Location,
	}
}

func (s *AttendanceService) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Evaluate 定位 -> 围栏 -> 远程办公许可 -> 判定，不写库
func (s *AttendanceService) Evaluate(ctx context.Context, employeeID, sessionID string, report location.Report) (*Evaluation, error) {
	now := s.now()
	ev := &Evaluation{At: now, Date: utils.DateKey(now)}

	sample, locErr := s.acquire(ctx, employeeID, sessionID, report)
	if locErr == nil {
		ev.Sample = &sample
	} else {
		ev.LocationError = locErr
	}

	var result geofence.Result
	if ev.Sample != nil {
		zones, err := s.zones.ListActiveZones(ctx)
		if err != nil {
			logger.Logger.Error("Failed to load active zones",
				zap.String("employee_id", employeeID),
				zap.Error(err),
			)
			return nil, errors.Wrap(errors.StoreError, err)
		}
		result = geofence.Resolve(sample.Coordinate, zones)
	}

	ev.Grant = s.authority.Decide(ctx, employeeID, now, ev.LocationError != nil)

	var coord *model.Coordinate
	if ev.Sample != nil {
		coord = &ev.Sample.Coordinate
	}
	ev.Verdict = eligibility.Compute(eligibility.Input{
		Location: coord,
		Geofence: result,
		HasGrant: ev.Grant.Granted,
	})

	metrics.GetMetrics().RecordVerdict(ctx, string(ev.Verdict.Reason), ev.Verdict.CanAttend)
	return ev, nil
}

func (s *AttendanceService) acquire(ctx context.Context, employeeID, sessionID string, report location.Report) (model.LocationSample, *location.Error) {
	if sessionID == "" {
		sessionID = defaultSessionID
	}
	start := time.Now()
	acquirer := s.sessions.Get(employeeID + ":" + sessionID)
	sample, err := acquirer.Acquire(ctx, location.NewReportedProvider(report, s.clock.Now))
	elapsed := time.Since(start).Seconds()

	if err == nil {
		metrics.GetMetrics().RecordAcquireDuration(ctx, elapsed, "ok")
		return sample, nil
	}

	locErr, ok := location.AsError(err)
	if !ok {
		locErr = &location.Error{Kind: location.PositionUnavailable, Message: err.Error(), Err: err}
	}
	metrics.GetMetrics().RecordAcquireDuration(ctx, elapsed, string(locErr.Kind))
	metrics.GetMetrics().RecordLocationFailure(ctx, string(locErr.Kind))
	logger.Logger.Info("Location unavailable for attendance attempt",
		zap.String("employee_id", employeeID),
		zap.String("kind", string(locErr.Kind)),
		zap.Error(err),
	)
	return model.LocationSample{}, locErr
}

// CheckIn 服务端重新判定后写入，不信任客户端给出的结论
func (s *AttendanceService) CheckIn(ctx context.Context, employeeID, sessionID string, report location.Report) (*CheckInResult, error) {
	ev, err := s.Evaluate(ctx, employeeID, sessionID, report)
	if err != nil {
		return nil, err
	}
	res := &CheckInResult{Evaluation: ev}

	var coord *model.Coordinate
	if ev.Sample != nil {
		coord = &ev.Sample.Coordinate
	}
	res.Record, err = s.recorder.CheckIn(ctx, employeeID, ev.At, ev.Verdict, coord)

	s.publish(ctx, employeeID, model.AttemptActionCheckIn, ev, err)
	return res, err
}

// CheckOut 只要求当天已签到
func (s *AttendanceService) CheckOut(ctx context.Context, employeeID string) (*model.AttendanceRecord, error) {
	now := s.now()
	record, err := s.recorder.CheckOut(ctx, employeeID, now)

	s.publish(ctx, employeeID, model.AttemptActionCheckOut, &Evaluation{At: now, Date: utils.DateKey(now)}, err)
	return record, err
}

// TodayKey 配置时区下的当天日期
func (s *AttendanceService) TodayKey() string {
	return utils.DateKey(s.now())
}

// Today 当天没有记录时返回 nil
func (s *AttendanceService) Today(ctx context.Context, employeeID string) (*model.AttendanceRecord, error) {
	record, err := s.store.GetForDate(ctx, employeeID, s.now())
	if err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}
	return record, nil
}

// History from / to 为空时取最近 30 天
func (s *AttendanceService) History(ctx context.Context, employeeID, from, to string, limit int) ([]model.AttendanceRecord, error) {
	now := s.now()
	if to == "" {
		to = utils.DateKey(now)
	}
	if from == "" {
		end, err := utils.ParseDate(to, s.loc)
		if err != nil {
			return nil, errors.InvalidRequest.WithMessage("to must be YYYY-MM-DD")
		}
		from = utils.DateKey(end.AddDate(0, 0, -defaultHistoryDays))
	}

	diff, err := utils.DaysBetween(from, to)
	if err != nil {
		return nil, errors.InvalidRequest.WithMessage("from and to must be YYYY-MM-DD")
	}
	if diff < 0 {
		return nil, errors.InvalidDateRange
	}

	if limit <= 0 {
		limit = defaultHistorySize
	}
	if limit > maxHistorySize {
		limit = maxHistorySize
	}

	records, err := s.store.ListHistory(ctx, employeeID, from, to, limit)
	if err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}
	return records, nil
}

func (s *AttendanceService) publish(ctx context.Context, employeeID string, action model.AttemptAction, ev *Evaluation, writeErr error) {
	if s.events == nil {
		return
	}

	msg := model.AttendanceAttemptMessage{
		EmployeeID:              employeeID,
		Date:                    ev.Date,
		Action:                  string(action),
		CanAttend:               ev.Verdict.CanAttend,
		Reason:                  string(ev.Verdict.Reason),
		UsedRemoteWorkException: ev.Verdict.UsedRemoteWorkException,
		GrantMatch:              string(ev.Grant.Match),
		Outcome:                 outcome(writeErr),
		OccurredAt:              s.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	if action == model.AttemptActionCheckOut {
		msg.CanAttend = writeErr == nil
		msg.GrantMatch = ""
	}
	if ev.LocationError != nil {
		msg.LocationError = string(ev.LocationError.Kind)
	}
	if n := ev.Verdict.Nearest; n != nil {
		d := n.DistanceMeters
		msg.ZoneID = n.Zone.ID
		msg.DistanceMeters = &d
	}

	// 请求结束不应该中断审计事件
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.PublishAttempt(pubCtx, msg); err != nil {
		logger.Logger.Warn("Attendance attempt event dropped",
			zap.String("employee_id", employeeID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "recorded"
	case stderrors.Is(err, errors.StoreError):
		return "failed"
	default:
		return "rejected"
	}
}
