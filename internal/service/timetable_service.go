package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/internal/model"
	"github.com/AryanManu544/Presenze/internal/repository"
	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableSlotNotFound   = apperrors.NotFound("课表时段不存在")
	ErrTimetableSlotNotOwner   = apperrors.Forbidden("无权操作此课表时段")
	ErrTimetableICSParseFailed = apperrors.Validation("file", "ICS 文件解析失败")
	ErrTimetableICSEmpty       = apperrors.Validation("file", "ICS 文件中未发现有效课程事件")
)

// ── TimetableService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 时段 CRUD 与考勤记录一致：不存在 → NotFound，非本人 → Forbidden
//   - day 写入前规范化为英文星期名（Monday…Sunday），time 为自由文本
//   - ImportICS 追加导入，已存在的相同 (day, time, subject) 时段不会重复创建
//   - ExportICS 每个时段输出一个每周重复的 VEVENT
// ─────────────────────────────────────────────────────────────

// TimetableService 课表模块业务接口
type TimetableService interface {
	Create(ctx context.Context, userID string, req *dto.CreateTimetableSlotRequest) (*dto.TimetableSlotResponse, error)
	List(ctx context.Context, userID string) ([]dto.TimetableSlotResponse, error)
	Get(ctx context.Context, id, userID string) (*dto.TimetableSlotResponse, error)
	Update(ctx context.Context, id, userID string, req *dto.UpdateTimetableSlotRequest) (*dto.TimetableSlotResponse, error)
	Delete(ctx context.Context, id, userID string) error
	// ImportICS 从 ICS 文件导入时段
	ImportICS(ctx context.Context, userID string, reader io.Reader) (*dto.ImportICSResponse, error)
	// ExportICS 导出为 iCalendar 文本
	ExportICS(ctx context.Context, userID string) ([]byte, error)
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(cfg *config.AttendanceConfig, repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{
		repo:   repo,
		logger: logger,
		loc:    cfg.Location(),
		now:    time.Now,
	}
}

func (s *timetableService) Create(ctx context.Context, userID string, req *dto.CreateTimetableSlotRequest) (*dto.TimetableSlotResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	day, err := normalizeDay("day", req.Day)
	if err != nil {
		return nil, err
	}
	slotTime, err := normalizeSlotTime("time", req.Time)
	if err != nil {
		return nil, err
	}
	subject, err := normalizeSubject("subject", req.Subject)
	if err != nil {
		return nil, err
	}

	slot := &model.TimetableSlot{
		UserID:  userID,
		Day:     day,
		Time:    slotTime,
		Subject: subject,
	}
	if err := s.repo.Timetable.Create(ctx, slot); err != nil {
		s.logger.Error("创建课表时段失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	resp := toSlotResponse(slot)
	return &resp, nil
}

func (s *timetableService) List(ctx context.Context, userID string) ([]dto.TimetableSlotResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	slots, err := s.repo.Timetable.ListByOwner(ctx, userID, "")
	if err != nil {
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	result := make([]dto.TimetableSlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, toSlotResponse(&slots[i]))
	}
	return result, nil
}

func (s *timetableService) Get(ctx context.Context, id, userID string) (*dto.TimetableSlotResponse, error) {
	slot, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toSlotResponse(slot)
	return &resp, nil
}

func (s *timetableService) Update(ctx context.Context, id, userID string, req *dto.UpdateTimetableSlotRequest) (*dto.TimetableSlotResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}

	var day, slotTime, subject *string
	if req.Day != nil {
		v, err := normalizeDay("day", *req.Day)
		if err != nil {
			return nil, err
		}
		day = &v
	}
	if req.Time != nil {
		v, err := normalizeSlotTime("time", *req.Time)
		if err != nil {
			return nil, err
		}
		slotTime = &v
	}
	if req.Subject != nil {
		v, err := normalizeSubject("subject", *req.Subject)
		if err != nil {
			return nil, err
		}
		subject = &v
	}

	slot, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if day == nil && slotTime == nil && subject == nil {
		resp := toSlotResponse(slot)
		return &resp, nil
	}

	if day != nil {
		slot.Day = *day
	}
	if slotTime != nil {
		slot.Time = *slotTime
	}
	if subject != nil {
		slot.Subject = *subject
	}
	if err := s.repo.Timetable.Update(ctx, slot); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableSlotNotFound
		}
		s.logger.Error("更新课表时段失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	resp := toSlotResponse(slot)
	return &resp, nil
}

func (s *timetableService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Timetable.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableSlotNotFound
		}
		s.logger.Error("删除课表时段失败", zap.String("id", id), zap.Error(err))
		return apperrors.Store(err)
	}
	return nil
}

func (s *timetableService) getOwned(ctx context.Context, id, userID string) (*model.TimetableSlot, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrTimetableSlotNotFound
	}
	slot, err := s.repo.Timetable.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableSlotNotFound
		}
		s.logger.Error("查询课表时段失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	if slot.UserID != userID {
		return nil, ErrTimetableSlotNotOwner
	}
	return slot, nil
}

// ════════════════════════════════════════════════════════════
// ImportICS — 导入 ICS 课表
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 解析 ICS 为时段列表（已按 day+time+subject 合并）
//   2. 过滤掉用户已有的相同时段
//   3. 单事务批量插入

func (s *timetableService) ImportICS(ctx context.Context, userID string, reader io.Reader) (*dto.ImportICSResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}

	// 1. 解析
	parsed, err := ParseTimetableICS(reader, userID, s.loc)
	if err != nil {
		s.logger.Warn("ICS 解析失败", zap.Error(err))
		return nil, ErrTimetableICSParseFailed
	}
	if len(parsed) == 0 {
		return nil, ErrTimetableICSEmpty
	}

	// 2. 去掉已存在的时段，重复导入同一文件不产生新数据
	existing, err := s.repo.Timetable.ListByOwner(ctx, userID, "")
	if err != nil {
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}
	seen := make(map[slotKey]bool, len(existing))
	for _, e := range existing {
		seen[keyOfSlot(e)] = true
	}
	toCreate := make([]model.TimetableSlot, 0, len(parsed))
	for _, p := range parsed {
		if seen[keyOfSlot(p)] {
			continue
		}
		toCreate = append(toCreate, p)
	}

	// 3. 批量插入（事务封装在 Repository 层）
	if err := s.repo.Timetable.CreateBatch(ctx, toCreate); err != nil {
		s.logger.Error("课表导入事务失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	resp := &dto.ImportICSResponse{
		ImportedCount: len(toCreate),
		Slots:         make([]dto.TimetableSlotResponse, 0, len(toCreate)),
	}
	for i := range toCreate {
		resp.Slots = append(resp.Slots, toSlotResponse(&toCreate[i]))
	}
	s.logger.Info("ICS 课表导入完成",
		zap.String("user_id", userID),
		zap.Int("parsed", len(parsed)),
		zap.Int("imported", len(toCreate)),
	)
	return resp, nil
}

// ExportICS 导出当前用户全部时段
func (s *timetableService) ExportICS(ctx context.Context, userID string) ([]byte, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	slots, err := s.repo.Timetable.ListByOwner(ctx, userID, "")
	if err != nil {
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}
	return []byte(BuildTimetableICS(slots, s.now().In(s.loc))), nil
}

// ── 辅助 ──

type slotKey struct {
	day, time, subject string
}

func keyOfSlot(s model.TimetableSlot) slotKey {
	return slotKey{day: s.Day, time: s.Time, subject: s.Subject}
}

func toSlotResponse(s *model.TimetableSlot) dto.TimetableSlotResponse {
	return dto.TimetableSlotResponse{
		ID:      s.TimetableSlotID,
		Day:     s.Day,
		Time:    s.Time,
		Subject: s.Subject,
	}
}
