package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"GeoAttend/internal/model"
	"GeoAttend/utils"
)

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// ListApprovedGrants 最近的已批准申请，按开始日期倒序
func (r *GrantRepository) ListApprovedGrants(ctx context.Context, employeeID string, limit int) ([]model.RemoteWorkGrant, error) {
	var grants []model.RemoteWorkGrant
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND status = ?", employeeID, model.GrantStatusApproved).
		Order("start_date DESC").Order("id DESC").
		Limit(limit).
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("list approved grants: %w", err)
	}
	return grants, nil
}

// ListGrantsForDate 已批准且 start_date <= date <= end_date
func (r *GrantRepository) ListGrantsForDate(ctx context.Context, employeeID string, date time.Time) ([]model.RemoteWorkGrant, error) {
	day := utils.DateKey(date)

	var grants []model.RemoteWorkGrant
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND status = ?", employeeID, model.GrantStatusApproved).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("start_date DESC").
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("list grants for date: %w", err)
	}
	return grants, nil
}

func (r *GrantRepository) CreateGrant(ctx context.Context, grant *model.RemoteWorkGrant) error {
	if err := r.db.WithContext(ctx).Create(grant).Error; err != nil {
		return fmt.Errorf("create grant: %w", err)
	}
	return nil
}

func (r *GrantRepository) GetGrant(ctx context.Context, id int64) (*model.RemoteWorkGrant, error) {
	var grant model.RemoteWorkGrant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&grant).Error; err != nil {
		return nil, notFound(err)
	}
	return &grant, nil
}

// ListGrantsByEmployee 员工自己的申请，最新的在前
func (r *GrantRepository) ListGrantsByEmployee(ctx context.Context, employeeID string, limit int) ([]model.RemoteWorkGrant, error) {
	var grants []model.RemoteWorkGrant
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("list grants by employee: %w", err)
	}
	return grants, nil
}

// ListGrantsByStatus status 为空时返回全部
func (r *GrantRepository) ListGrantsByStatus(ctx context.Context, status model.GrantStatus, limit int) ([]model.RemoteWorkGrant, error) {
	var grants []model.RemoteWorkGrant
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("list grants by status: %w", err)
	}
	return grants, nil
}

// DecideGrant 仅当申请仍为 pending 时更新，避免并发审批互相覆盖
func (r *GrantRepository) DecideGrant(ctx context.Context, id int64, status model.GrantStatus, by string, at time.Time, reason string) (*model.RemoteWorkGrant, error) {
	updates := map[string]interface{}{"status": status}
	if status == model.GrantStatusApproved {
		updates["approved_by"] = by
		updates["approved_date"] = at
	} else {
		updates["rejection_reason"] = reason
	}

	res := r.db.WithContext(ctx).Model(&model.RemoteWorkGrant{}).
		Where("id = ? AND status = ?", id, model.GrantStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("decide grant: %w", res.Error)
	}

	grant, err := r.GetGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return grant, ErrStateConflict
	}
	return grant, nil
}
