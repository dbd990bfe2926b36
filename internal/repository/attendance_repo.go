package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AryanManu544/Presenze/internal/model"
)

// AttendanceRepository 考勤记录数据访问接口
//
// 仓储层只做等值过滤，不做归属校验；归属校验在 Service 层完成
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	// ListByOwner subject 为空时返回该用户全部记录
	ListByOwner(ctx context.Context, userID, subject string) ([]model.AttendanceRecord, error)
	// FindByKey 按逻辑键 (user_id, subject, date) 查找，按创建时间升序
	// 正常情况下至多一条；历史数据可能存在重复
	FindByKey(ctx context.Context, userID, subject string, date time.Time) ([]model.AttendanceRecord, error)
	Update(ctx context.Context, record *model.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("attendance_record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) ListByOwner(ctx context.Context, userID, subject string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	db := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if subject != "" {
		db = db.Where("subject = ?", subject)
	}
	err := db.Order("date ASC, created_at ASC").Find(&records).Error
	return records, err
}

func (r *attendanceRepo) FindByKey(ctx context.Context, userID, subject string, date time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND subject = ? AND date = ?", userID, subject, model.DateOnly(date)).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) Update(ctx context.Context, record *model.AttendanceRecord) error {
	record.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("attendance_record_id = ?", record.AttendanceRecordID).
		Updates(map[string]interface{}{
			"subject":    record.Subject,
			"date":       model.DateOnly(record.Date),
			"status":     record.Status,
			"updated_at": record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *attendanceRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("attendance_record_id = ?", id).
		Delete(&model.AttendanceRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *attendanceRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("attendance_record_id IN ?", ids).
		Delete(&model.AttendanceRecord{}).Error
}
