package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"GeoAttend/internal/model"
)

type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// CreateAttempt message_id 重复时不写入，返回 false
func (r *AttemptRepository) CreateAttempt(ctx context.Context, attempt *model.AttendanceAttempt) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
		Create(attempt)
	if res.Error != nil {
		return false, fmt.Errorf("create attempt: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *AttemptRepository) ListAttempts(ctx context.Context, employeeID, date string) ([]model.AttendanceAttempt, error) {
	var attempts []model.AttendanceAttempt
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date = ?", employeeID, date).
		Order("occurred_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
