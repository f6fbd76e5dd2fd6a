package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"GeoAttend/internal/model"
	"GeoAttend/internal/repository"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/snowflake"
	"GeoAttend/utils"
)

const (
	defaultGrantListSize = 50
	maxGrantListSize     = 200
)

// RemoteWorkStore 远程办公申请
type RemoteWorkStore interface {
	CreateGrant(ctx context.Context, grant *model.RemoteWorkGrant) error
	GetGrant(ctx context.Context, id int64) (*model.RemoteWorkGrant, error)
	ListGrantsByEmployee(ctx context.Context, employeeID string, limit int) ([]model.RemoteWorkGrant, error)
	ListGrantsByStatus(ctx context.Context, status model.GrantStatus, limit int) ([]model.RemoteWorkGrant, error)
	DecideGrant(ctx context.Context, id int64, status model.GrantStatus, by string, at time.Time, reason string) (*model.RemoteWorkGrant, error)
}

type RemoteWorkRequest struct {
	StartDate   string
	EndDate     string
	Destination string
	Purpose     string
}

type RemoteWorkService struct {
	store RemoteWorkStore
	clock Clock
	loc   *time.Location
}

func NewRemoteWorkService(store RemoteWorkStore, clock Clock, loc *time.Location) *RemoteWorkService {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RemoteWorkService{store: store, clock: clock, loc: loc}
}

// Submit 新申请为 pending，天数按首尾都算
func (s *RemoteWorkService) Submit(ctx context.Context, employeeID string, req RemoteWorkRequest) (*model.RemoteWorkGrant, error) {
	if _, err := utils.ParseDate(req.StartDate, s.loc); err != nil {
		return nil, errors.InvalidRequest.WithMessage("start_date must be YYYY-MM-DD")
	}
	if _, err := utils.ParseDate(req.EndDate, s.loc); err != nil {
		return nil, errors.InvalidRequest.WithMessage("end_date must be YYYY-MM-DD")
	}
	days, err := utils.InclusiveDays(req.StartDate, req.EndDate)
	if err != nil {
		return nil, errors.InvalidRequest
	}
	if days < 1 {
		return nil, errors.InvalidDateRange
	}

	id, err := snowflake.NextID()
	if err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}

	grant := &model.RemoteWorkGrant{
		ID:           id,
		EmployeeID:   employeeID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       model.GrantStatusPending,
		Destination:  strings.TrimSpace(req.Destination),
		Purpose:      strings.TrimSpace(req.Purpose),
		DurationDays: days,
	}
	if err := s.store.CreateGrant(ctx, grant); err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}

	logger.Logger.Info("Remote work request submitted",
		zap.Int64("grant_id", grant.ID),
		zap.String("employee_id", employeeID),
		zap.String("start_date", grant.StartDate),
		zap.String("end_date", grant.EndDate),
		zap.Int("duration_days", days),
	)
	return grant, nil
}

func (s *RemoteWorkService) ListMine(ctx context.Context, employeeID string, limit int) ([]model.RemoteWorkGrant, error) {
	grants, err := s.store.ListGrantsByEmployee(ctx, employeeID, clampLimit(limit))
	if err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}
	return grants, nil
}

// List status 为空时返回全部
func (s *RemoteWorkService) List(ctx context.Context, status string, limit int) ([]model.RemoteWorkGrant, error) {
	st := model.GrantStatus(status)
	switch st {
	case "", model.GrantStatusPending, model.GrantStatusApproved, model.GrantStatusRejected:
	default:
		return nil, errors.InvalidRequest.WithMessage("status must be pending, approved or rejected")
	}

	grants, err := s.store.ListGrantsByStatus(ctx, st, clampLimit(limit))
	if err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}
	return grants, nil
}

func (s *RemoteWorkService) Approve(ctx context.Context, adminID string, id int64) (*model.RemoteWorkGrant, error) {
	return s.decide(ctx, adminID, id, model.GrantStatusApproved, "")
}

// Reject 必须填写原因
func (s *RemoteWorkService) Reject(ctx context.Context, adminID string, id int64, reason string) (*model.RemoteWorkGrant, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.RejectionReasonRequired
	}
	return s.decide(ctx, adminID, id, model.GrantStatusRejected, reason)
}

func (s *RemoteWorkService) decide(ctx context.Context, adminID string, id int64, status model.GrantStatus, reason string) (*model.RemoteWorkGrant, error) {
	grant, err := s.store.DecideGrant(ctx, id, status, adminID, s.clock.Now().In(s.loc), reason)
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return nil, errors.GrantNotFound
	case stderrors.Is(err, repository.ErrStateConflict):
		return grant, errors.GrantNotPending
	case err != nil:
		return nil, errors.Wrap(errors.StoreError, err)
	}

	logger.Logger.Info("Remote work request decided",
		zap.Int64("grant_id", id),
		zap.String("status", string(status)),
		zap.String("decided_by", adminID),
	)
	return grant, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultGrantListSize
	}
	if limit > maxGrantListSize {
		return maxGrantListSize
	}
	return limit
}
