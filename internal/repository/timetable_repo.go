package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AryanManu544/Presenze/internal/model"
)

// TimetableRepository 课表时段数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, slot *model.TimetableSlot) error
	// CreateBatch 在单个事务中批量插入（ICS 导入）
	CreateBatch(ctx context.Context, slots []model.TimetableSlot) error
	GetByID(ctx context.Context, id string) (*model.TimetableSlot, error)
	// ListByOwner subject 为空时返回该用户全部时段
	ListByOwner(ctx context.Context, userID, subject string) ([]model.TimetableSlot, error)
	Update(ctx context.Context, slot *model.TimetableSlot) error
	Delete(ctx context.Context, id string) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, slot *model.TimetableSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *timetableRepo) CreateBatch(ctx context.Context, slots []model.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&slots, 100).Error
	})
}

func (r *timetableRepo) GetByID(ctx context.Context, id string) (*model.TimetableSlot, error) {
	var slot model.TimetableSlot
	err := r.db.WithContext(ctx).
		Where("timetable_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByOwner 按创建顺序返回，保证展开结果的时段迭代顺序稳定
func (r *timetableRepo) ListByOwner(ctx context.Context, userID, subject string) ([]model.TimetableSlot, error) {
	var slots []model.TimetableSlot
	db := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if subject != "" {
		db = db.Where("subject = ?", subject)
	}
	err := db.Order("created_at ASC, timetable_slot_id ASC").Find(&slots).Error
	return slots, err
}

func (r *timetableRepo) Update(ctx context.Context, slot *model.TimetableSlot) error {
	slot.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.TimetableSlot{}).
		Where("timetable_slot_id = ?", slot.TimetableSlotID).
		Updates(map[string]interface{}{
			"day":        slot.Day,
			"time":       slot.Time,
			"subject":    slot.Subject,
			"updated_at": slot.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *timetableRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("timetable_slot_id = ?", id).
		Delete(&model.TimetableSlot{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
