package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/model"
	"GeoAttend/utils"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertCheckIn INSERT ... ON CONFLICT (employee_id, date) DO UPDATE，签退时间不被覆盖
func (r *AttendanceRepository) UpsertCheckIn(ctx context.Context, record *model.AttendanceRecord) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"check_in_at",
			"location_lat",
			"location_lng",
			"location_label",
			"used_remote_work_exception",
			"status",
			"updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("upsert check-in: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) SetCheckOut(ctx context.Context, employeeID string, date, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.AttendanceRecord{}).
		Where("employee_id = ? AND date = ? AND check_in_at IS NOT NULL", employeeID, utils.DateKey(date)).
		Update("check_out_at", at)
	if res.Error != nil {
		return fmt.Errorf("set check-out: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return attendance.ErrNoRecord
	}
	return nil
}

func (r *AttendanceRepository) GetForDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date = ?", employeeID, utils.DateKey(date)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance for date: %w", err)
	}
	return &record, nil
}

// ListHistory [from, to] 区间内的记录，日期倒序
func (r *AttendanceRepository) ListHistory(ctx context.Context, employeeID, from, to string, limit int) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date >= ? AND date <= ?", employeeID, from, to).
		Order("date DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	return records, nil
}
