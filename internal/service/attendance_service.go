package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/internal/model"
	"github.com/AryanManu544/Presenze/internal/repository"
	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
	"github.com/AryanManu544/Presenze/pkg/metrics"
)

// ── 考勤模块业务错误 ──

var (
	ErrAttendanceNotFound = apperrors.NotFound("考勤记录不存在")
	ErrAttendanceNotOwner = apperrors.Forbidden("无权操作此考勤记录")
)

// StatusUnmarked 月视图中尚无记录的日期
const StatusUnmarked = "unmarked"

const defaultMarkConcurrency = 8

// ── AttendanceService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 所有读写都以 userID 为归属校验依据；记录存在但不属于调用者时返回 Forbidden
//   - BuildScheduleView 只读：课表展开 + 已有记录合并，按日去重
//   - SubmitMarks 按日期 find-or-create，并发度受配置限制；
//     单项失败汇总返回，已成功的写入不回滚
//   - 不同请求对同一 (subject, date) 的并发写为后写覆盖，不加锁
// ─────────────────────────────────────────────────────────────

// AttendanceService 考勤模块业务接口
type AttendanceService interface {
	// Mark 新建一条考勤记录，date 为空时取当天
	Mark(ctx context.Context, userID string, req *dto.MarkAttendanceRequest) (*dto.AttendanceRecordResponse, error)
	// List subject 为空时返回全部记录
	List(ctx context.Context, userID, subject string) ([]dto.AttendanceRecordResponse, error)
	Get(ctx context.Context, id, userID string) (*dto.AttendanceRecordResponse, error)
	Update(ctx context.Context, id, userID string, req *dto.UpdateAttendanceRequest) (*dto.AttendanceRecordResponse, error)
	Delete(ctx context.Context, id, userID string) error
	// BuildScheduleView month 为 YYYY-MM，为空时取当前月份
	BuildScheduleView(ctx context.Context, userID, subject, month string) (*dto.ScheduleViewResponse, error)
	SubmitMarks(ctx context.Context, userID string, req *dto.MarkMultipleRequest) (*dto.BatchResult, error)
	Summary(ctx context.Context, userID string) (*dto.SummaryResponse, error)
}

type attendanceService struct {
	repo        *repository.Repository
	logger      *zap.Logger
	loc         *time.Location
	concurrency int
	now         func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(cfg *config.AttendanceConfig, repo *repository.Repository, logger *zap.Logger) AttendanceService {
	concurrency := cfg.MarkConcurrency
	if concurrency <= 0 {
		concurrency = defaultMarkConcurrency
	}
	return &attendanceService{
		repo:        repo,
		logger:      logger,
		loc:         cfg.Location(),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// 单条记录 CRUD
// ════════════════════════════════════════════════════════════

func (s *attendanceService) Mark(ctx context.Context, userID string, req *dto.MarkAttendanceRequest) (*dto.AttendanceRecordResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	subject, err := normalizeSubject("subject", req.Subject)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus("status", req.Status)
	if err != nil {
		return nil, err
	}
	date := model.DateOnly(s.now().In(s.loc))
	if req.Date != nil {
		if date, err = parseDate("date", *req.Date, s.loc); err != nil {
			return nil, err
		}
	}

	record := &model.AttendanceRecord{
		UserID:  userID,
		Subject: subject,
		Date:    date,
		Status:  status,
	}
	if err := s.repo.Attendance.Create(ctx, record); err != nil {
		s.logger.Error("创建考勤记录失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	resp := toAttendanceResponse(record)
	return &resp, nil
}

func (s *attendanceService) List(ctx context.Context, userID, subject string) ([]dto.AttendanceRecordResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	records, err := s.repo.Attendance.ListByOwner(ctx, userID, subject)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	result := make([]dto.AttendanceRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, toAttendanceResponse(&records[i]))
	}
	return result, nil
}

func (s *attendanceService) Get(ctx context.Context, id, userID string) (*dto.AttendanceRecordResponse, error) {
	record, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toAttendanceResponse(record)
	return &resp, nil
}

func (s *attendanceService) Update(ctx context.Context, id, userID string, req *dto.UpdateAttendanceRequest) (*dto.AttendanceRecordResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}

	// 1. 先校验补丁字段
	var (
		subject *string
		date    *time.Time
		status  *model.AttendanceStatus
	)
	if req.Subject != nil {
		v, err := normalizeSubject("subject", *req.Subject)
		if err != nil {
			return nil, err
		}
		subject = &v
	}
	if req.Date != nil {
		v, err := parseDate("date", *req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		date = &v
	}
	if req.Status != nil {
		v, err := parseStatus("status", *req.Status)
		if err != nil {
			return nil, err
		}
		status = &v
	}

	// 2. 存在性与归属
	record, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if subject == nil && date == nil && status == nil {
		resp := toAttendanceResponse(record)
		return &resp, nil
	}

	// 3. 仅应用提供的字段
	keyMoved := (subject != nil && *subject != record.Subject) ||
		(date != nil && !date.Equal(model.DateOnly(record.Date)))
	if subject != nil {
		record.Subject = *subject
	}
	if date != nil {
		record.Date = *date
	}
	if status != nil {
		record.Status = *status
	}
	if err := s.repo.Attendance.Update(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		s.logger.Error("更新考勤记录失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	// 4. 逻辑键变更后，目标键上的其他记录被本次编辑取代
	if keyMoved {
		if err := s.collapseKey(ctx, record); err != nil {
			return nil, err
		}
	}

	resp := toAttendanceResponse(record)
	return &resp, nil
}

// collapseKey 删除与 keep 同一 (user, subject, date) 的其他记录
func (s *attendanceService) collapseKey(ctx context.Context, keep *model.AttendanceRecord) error {
	existing, err := s.repo.Attendance.FindByKey(ctx, keep.UserID, keep.Subject, keep.Date)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Time("date", keep.Date), zap.Error(err))
		return apperrors.Store(err)
	}
	var ids []string
	for _, r := range existing {
		if r.AttendanceRecordID != keep.AttendanceRecordID && r.UserID == keep.UserID {
			ids = append(ids, r.AttendanceRecordID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.repo.Attendance.DeleteByIDs(ctx, ids); err != nil {
		s.logger.Error("清理重复考勤记录失败", zap.Strings("ids", ids), zap.Error(err))
		return apperrors.Store(err)
	}
	s.logger.Info("编辑后合并重复考勤记录", zap.String("id", keep.AttendanceRecordID), zap.Int("removed", len(ids)))
	return nil
}

func (s *attendanceService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Attendance.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttendanceNotFound
		}
		s.logger.Error("删除考勤记录失败", zap.String("id", id), zap.Error(err))
		return apperrors.Store(err)
	}
	return nil
}

// getOwned 查询记录并校验归属：不存在 → NotFound，非本人 → Forbidden
func (s *attendanceService) getOwned(ctx context.Context, id, userID string) (*model.AttendanceRecord, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrAttendanceNotFound
	}
	record, err := s.repo.Attendance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		s.logger.Error("查询考勤记录失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	if record.UserID != userID {
		return nil, ErrAttendanceNotOwner
	}
	return record, nil
}

// ════════════════════════════════════════════════════════════
// BuildScheduleView — 科目月视图
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 查询该科目的课表时段与已有记录
//   2. 按时段展开目标月份的上课日期，按日去重（保留首次出现位置）
//   3. 逐日附加已有状态，无记录则为 unmarked

func (s *attendanceService) BuildScheduleView(ctx context.Context, userID, subject, month string) (*dto.ScheduleViewResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	subject, err := normalizeSubject("subject", subject)
	if err != nil {
		return nil, err
	}
	year, mon, err := parseMonth(month, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}

	slots, err := s.repo.Timetable.ListByOwner(ctx, userID, subject)
	if err != nil {
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}
	records, err := s.repo.Attendance.ListByOwner(ctx, userID, subject)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	// 日期 → 状态；重复记录以最早的一条为准
	lookup := make(map[time.Time]model.AttendanceStatus, len(records))
	for _, r := range records {
		key := model.DateOnly(r.Date)
		if _, ok := lookup[key]; !ok {
			lookup[key] = r.Status
		}
	}

	dates := DedupeDates(Expand(slots, subject, year, mon))
	entries := make([]dto.ScheduleEntry, 0, len(dates))
	for _, d := range dates {
		status := StatusUnmarked
		if st, ok := lookup[d]; ok {
			status = string(st)
		}
		entries = append(entries, dto.ScheduleEntry{
			Date:    dto.FormatDate(d),
			Weekday: model.WeekdayName(d.Weekday()),
			Status:  status,
		})
	}

	return &dto.ScheduleViewResponse{
		Subject: subject,
		Month:   fmt.Sprintf("%04d-%02d", year, int(mon)),
		Entries: entries,
	}, nil
}

// ════════════════════════════════════════════════════════════
// SubmitMarks — 批量标记
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 逐项解析日期与状态；status 为 null 的项跳过，不创建也不删除记录
//   2. 同一批次内重复日期合并为最后一个非 null 状态
//   3. 每个日期 find-or-create，受 errgroup 并发上限约束
//   4. 汇总单项失败；已提交的写入不回滚

type markTask struct {
	date   time.Time
	raw    string
	status model.AttendanceStatus
}

type markOutcome struct {
	outcome string
	err     error
}

func (s *attendanceService) SubmitMarks(ctx context.Context, userID string, req *dto.MarkMultipleRequest) (*dto.BatchResult, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	subject, err := normalizeSubject("subject", req.Subject)
	if err != nil {
		return nil, err
	}

	result := &dto.BatchResult{}

	// 1-2. 解析并合并
	var tasks []*markTask
	index := make(map[time.Time]*markTask)
	for i, item := range req.Dates {
		date, err := parseDate(fmt.Sprintf("dates[%d].date", i), item.Date, s.loc)
		if err != nil {
			result.Failures = append(result.Failures, toMarkFailure(item.Date, err))
			metrics.RecordMark(metrics.MarkFailed)
			continue
		}
		if item.Status == nil {
			result.Skipped++
			metrics.RecordMark(metrics.MarkSkipped)
			continue
		}
		status, err := parseStatus(fmt.Sprintf("dates[%d].status", i), *item.Status)
		if err != nil {
			result.Failures = append(result.Failures, toMarkFailure(item.Date, err))
			metrics.RecordMark(metrics.MarkFailed)
			continue
		}
		if t, ok := index[date]; ok {
			t.status = status
			continue
		}
		t := &markTask{date: date, raw: item.Date, status: status}
		index[date] = t
		tasks = append(tasks, t)
	}

	// 3. 有界并发写入；单项错误不取消其他项
	outcomes := make([]markOutcome, len(tasks))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			outcome, err := s.upsertMark(ctx, userID, subject, t.date, t.status)
			outcomes[i] = markOutcome{outcome: outcome, err: err}
			return nil
		})
	}
	_ = g.Wait()

	// 4. 汇总
	for i, o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, toMarkFailure(dto.FormatDate(tasks[i].date), o.err))
			metrics.RecordMark(metrics.MarkFailed)
			continue
		}
		result.Applied++
		metrics.RecordMark(o.outcome)
	}
	result.Failed = len(result.Failures)
	result.Success = result.Failed == 0

	if result.Failed > 0 {
		s.logger.Warn("批量标记部分失败",
			zap.String("user_id", userID),
			zap.String("subject", subject),
			zap.Int("applied", result.Applied),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

// upsertMark 按逻辑键 find-or-create
// 已存在多条重复记录时保留最早一条，其余删除
func (s *attendanceService) upsertMark(ctx context.Context, userID, subject string, date time.Time, status model.AttendanceStatus) (string, error) {
	existing, err := s.repo.Attendance.FindByKey(ctx, userID, subject, date)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Time("date", date), zap.Error(err))
		return "", apperrors.Store(err)
	}
	// 仓储按 user_id 过滤时不会命中；用于不按归属过滤的存储实现
	for _, r := range existing {
		if r.UserID != userID {
			return "", ErrAttendanceNotOwner
		}
	}

	if len(existing) == 0 {
		record := &model.AttendanceRecord{
			UserID:  userID,
			Subject: subject,
			Date:    date,
			Status:  status,
		}
		if err := s.repo.Attendance.Create(ctx, record); err != nil {
			s.logger.Error("创建考勤记录失败", zap.Time("date", date), zap.Error(err))
			return "", apperrors.Store(err)
		}
		return metrics.MarkCreated, nil
	}

	outcome := metrics.MarkUnchanged
	keep := existing[0]
	if keep.Status != status {
		keep.Status = status
		if err := s.repo.Attendance.Update(ctx, &keep); err != nil {
			s.logger.Error("更新考勤记录失败", zap.Time("date", date), zap.Error(err))
			return "", apperrors.Store(err)
		}
		outcome = metrics.MarkUpdated
	}

	if len(existing) > 1 {
		ids := make([]string, 0, len(existing)-1)
		for _, r := range existing[1:] {
			ids = append(ids, r.AttendanceRecordID)
		}
		if err := s.repo.Attendance.DeleteByIDs(ctx, ids); err != nil {
			s.logger.Error("清理重复考勤记录失败", zap.Strings("ids", ids), zap.Error(err))
			return "", apperrors.Store(err)
		}
		s.logger.Info("已合并重复考勤记录", zap.Time("date", date), zap.Int("removed", len(ids)))
	}
	return outcome, nil
}

// ════════════════════════════════════════════════════════════
// Summary — 出勤统计
// ════════════════════════════════════════════════════════════

func (s *attendanceService) Summary(ctx context.Context, userID string) (*dto.SummaryResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	records, err := s.repo.Attendance.ListByOwner(ctx, userID, "")
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}
	return buildSummary(records), nil
}

func buildSummary(records []model.AttendanceRecord) *dto.SummaryResponse {
	stats := Summarize(records)

	subjects := make([]string, 0, len(stats))
	for subject := range stats {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	resp := &dto.SummaryResponse{Subjects: make([]dto.SubjectSummary, 0, len(subjects))}
	var overall SubjectStats
	for _, subject := range subjects {
		st := stats[subject]
		resp.Subjects = append(resp.Subjects, toSubjectSummary(subject, st))
		overall.Present += st.Present
		overall.Absent += st.Absent
		overall.Total += st.Total
	}
	overall.Percentage = Percentage(overall.Present, overall.Total)
	resp.Overall = toSubjectSummary("", overall)
	return resp
}

// ── 转换 ──

func toAttendanceResponse(r *model.AttendanceRecord) dto.AttendanceRecordResponse {
	return dto.AttendanceRecordResponse{
		ID:        r.AttendanceRecordID,
		Subject:   r.Subject,
		Date:      dto.FormatDate(r.Date),
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toSubjectSummary(subject string, st SubjectStats) dto.SubjectSummary {
	return dto.SubjectSummary{
		Subject:    subject,
		Present:    st.Present,
		Absent:     st.Absent,
		Total:      st.Total,
		Percentage: st.Percentage,
		Tier:       string(st.Tier()),
	}
}

func toMarkFailure(date string, err error) dto.MarkFailure {
	return dto.MarkFailure{
		Date:    date,
		Reason:  apperrors.KindOf(err).String(),
		Message: apperrors.PublicMessage(err),
	}
}
