// Package remotework 判断员工在某天是否有已批准的远程办公（WFH / 出差）许可。
package remotework

import (
	"context"
	"time"

	"go.uber.org/zap"

	"GeoAttend/internal/model"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/metrics"
	"GeoAttend/utils"
)

// GrantStore 远程办公申请的读取接口
type GrantStore interface {
	// ListApprovedGrants 已批准的申请，按开始日期倒序，最多 limit 条
	ListApprovedGrants(ctx context.Context, employeeID string, limit int) ([]model.RemoteWorkGrant, error)
	// ListGrantsForDate 已批准且覆盖 date 的申请
	ListGrantsForDate(ctx context.Context, employeeID string, date time.Time) ([]model.RemoteWorkGrant, error)
}

// MatchKind 命中的规则
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchFallback MatchKind = "fallback"
	MatchNone     MatchKind = "none"
)

// Decision 判定结果
type Decision struct {
	Grant   *model.RemoteWorkGrant
	Match   MatchKind
	Granted bool
}

// Authority 远程办公许可判定
type Authority struct {
	store         GrantStore
	fallbackDays  int
	fallbackLimit int
}

// NewAuthority fallbackDays < 0 时关闭定位失败下的兜底窗口
func NewAuthority(store GrantStore, fallbackDays, fallbackLimit int) *Authority {
	if fallbackLimit <= 0 {
		fallbackLimit = 5
	}
	return &Authority{
		store:         store,
		fallbackDays:  fallbackDays,
		fallbackLimit: fallbackLimit,
	}
}

// HasApprovedGrant 查询失败时记录日志并返回 false
func (a *Authority) HasApprovedGrant(ctx context.Context, employeeID string, today time.Time, locationDegraded bool) bool {
	return a.Decide(ctx, employeeID, today, locationDegraded).Granted
}

// Decide 先按日期精确匹配；定位异常时再看最近几条已批准申请，开始日期与 today 相差不超过 fallbackDays 即可
func (a *Authority) Decide(ctx context.Context, employeeID string, today time.Time, locationDegraded bool) Decision {
	decision := a.decide(ctx, employeeID, today, locationDegraded)
	metrics.GetMetrics().RecordGrantMatch(ctx, string(decision.Match), locationDegraded)
	return decision
}

func (a *Authority) decide(ctx context.Context, employeeID string, today time.Time, locationDegraded bool) Decision {
	date := utils.DateKey(today)

	grants, err := a.store.ListGrantsForDate(ctx, employeeID, today)
	if err != nil {
		logger.Logger.Error("Failed to list remote work grants for date",
			zap.String("employee_id", employeeID),
			zap.String("date", date),
			zap.Error(err),
		)
		return Decision{Match: MatchNone}
	}
	for i := range grants {
		if grants[i].IsApproved() && grants[i].Covers(date) {
			return Decision{Granted: true, Match: MatchExact, Grant: &grants[i]}
		}
	}

	if !locationDegraded || a.fallbackDays < 0 {
		return Decision{Match: MatchNone}
	}

	recent, err := a.store.ListApprovedGrants(ctx, employeeID, a.fallbackLimit)
	if err != nil {
		logger.Logger.Error("Failed to list recent remote work grants",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return Decision{Match: MatchNone}
	}
	for i := range recent {
		if !recent[i].IsApproved() {
			continue
		}
		diff, err := utils.DaysBetween(recent[i].StartDate, date)
		if err != nil {
			logger.Logger.Warn("Skipping remote work grant with malformed start date",
				zap.Int64("grant_id", recent[i].ID),
				zap.String("start_date", recent[i].StartDate),
			)
			continue
		}
		if abs(diff) <= a.fallbackDays {
			logger.Logger.Info("Remote work granted through fallback window",
				zap.String("employee_id", employeeID),
				zap.String("date", date),
				zap.Int64("grant_id", recent[i].ID),
				zap.Int("days_from_start", diff),
			)
			return Decision{Granted: true, Match: MatchFallback, Grant: &recent[i]}
		}
	}

	return Decision{Match: MatchNone}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
