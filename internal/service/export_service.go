package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/internal/repository"
	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = apperrors.New(apperrors.KindInternal, "生成 Excel 文件失败")
)

const (
	sheetSummary = "Summary"
	sheetRecords = "Records"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出当前用户全部考勤记录为 Excel (.xlsx)
//   - Sheet "Summary"：每科目一行统计 + 合计行
//   - Sheet "Records"：逐条记录，按日期升序
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAttendance 返回 buf（Excel 内容）, filename（建议文件名）, error
	ExportAttendance(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.AttendanceConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
		loc:    cfg.Location(),
		now:    time.Now,
	}
}

func (s *exportService) ExportAttendance(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	if err := requireOwner(userID); err != nil {
		return nil, "", err
	}

	// 1. 查询记录
	records, err := s.repo.Attendance.ListByOwner(ctx, userID, "")
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, "", apperrors.Store(err)
	}
	summary := buildSummary(records)

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range []string{sheetSummary, sheetRecords} {
		if _, err := f.NewSheet(name); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", name), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}
	// 删除默认 Sheet1
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(sheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	tierStyles := map[string]int{}
	for tier, color := range map[Tier]string{
		TierGood:     "#C6EFCE",
		TierWarning:  "#FFEB9C",
		TierCritical: "#FFC7CE",
	} {
		st, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		tierStyles[string(tier)] = st
	}

	// ── Summary ──
	summaryHeader := []string{"Subject", "Present", "Absent", "Total", "Percentage", "Tier"}
	writeRow(f, sheetSummary, 1, toCells(summaryHeader))
	_ = f.SetCellStyle(sheetSummary, cell("A", 1), cell(colName(len(summaryHeader)-1), 1), headerStyle)
	_ = f.SetColWidth(sheetSummary, "A", "A", 28)
	_ = f.SetColWidth(sheetSummary, "B", "F", 12)

	row := 2
	for _, sub := range summary.Subjects {
		writeSummaryRow(f, row, sub, tierStyles)
		row++
	}
	overall := summary.Overall
	overall.Subject = "Overall"
	writeSummaryRow(f, row, overall, tierStyles)

	// ── Records ──
	recordHeader := []string{"Date", "Weekday", "Subject", "Status"}
	writeRow(f, sheetRecords, 1, toCells(recordHeader))
	_ = f.SetCellStyle(sheetRecords, cell("A", 1), cell(colName(len(recordHeader)-1), 1), headerStyle)
	_ = f.SetColWidth(sheetRecords, "A", "B", 14)
	_ = f.SetColWidth(sheetRecords, "C", "C", 28)
	_ = f.SetColWidth(sheetRecords, "D", "D", 10)

	for i, r := range records {
		writeRow(f, sheetRecords, i+2, []interface{}{
			dto.FormatDate(r.Date),
			r.Date.Weekday().String(),
			r.Subject,
			string(r.Status),
		})
	}

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("attendance_%s.xlsx", s.now().In(s.loc).Format("20060102"))
	return buf, filename, nil
}

func writeSummaryRow(f *excelize.File, row int, sub dto.SubjectSummary, tierStyles map[string]int) {
	writeRow(f, sheetSummary, row, []interface{}{
		sub.Subject,
		sub.Present,
		sub.Absent,
		sub.Total,
		fmt.Sprintf("%.2f%%", sub.Percentage),
		sub.Tier,
	})
	if st, ok := tierStyles[sub.Tier]; ok {
		_ = f.SetCellStyle(sheetSummary, cell("F", row), cell("F", row), st)
	}
}

// ── 辅助函数 ──

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		_ = f.SetCellValue(sheet, cell(colName(i), row), v)
	}
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
